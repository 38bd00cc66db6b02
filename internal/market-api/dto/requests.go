package dto

import (
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-api/store"
)

type CreateUserRequest struct {
	Username      string  `json:"username" validate:"required,min=3,max=50"`
	Password      string  `json:"password" validate:"required,min=6"`
	WalletAddress *string `json:"walletAddress"`
	Role          string  `json:"role" validate:"omitempty,oneof=bettor creator expert trader"` // default bettor
}

// Wallet trata "" como carteira ausente
func (r CreateUserRequest) Wallet() *string {
	if r.WalletAddress == nil || *r.WalletAddress == "" {
		return nil
	}
	return r.WalletAddress
}

func (r CreateUserRequest) ToNewUser() store.NewUser {
	return store.NewUser{
		Username:      r.Username,
		Password:      r.Password,
		WalletAddress: r.Wallet(),
		Role:          store.Role(r.Role),
	}
}

type OutcomeRequest struct {
	Name string   `json:"name" validate:"required,min=1"`
	Odds *float64 `json:"odds" validate:"required,gt=0"`
}

func (r OutcomeRequest) ToNewOutcome() store.NewOutcome {
	return store.NewOutcome{Name: r.Name, Odds: *r.Odds}
}

type CreateEventRequest struct {
	Title         string           `json:"title" validate:"required,min=5"`
	Category      string           `json:"category" validate:"required,min=1"`
	Subcategory   string           `json:"subcategory" validate:"required,min=1"`
	Description   string           `json:"description"`
	StartDate     string           `json:"startDate" validate:"required,rfc3339"`
	EndDate       *string          `json:"endDate" validate:"omitempty,rfc3339"`
	Status        string           `json:"status" validate:"omitempty,oneof=upcoming active completed canceled"`
	Outcomes      []OutcomeRequest `json:"outcomes" validate:"required,dive"`
	LiquidityPool *float64         `json:"liquidityPool" validate:"required,gt=0"`
	CreatorID     *int64           `json:"creatorId" validate:"required"`
}

// ToNewEvent assume que a requisição já passou na validação
func (r CreateEventRequest) ToNewEvent() (store.NewEvent, error) {
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return store.NewEvent{}, err
	}
	var end *time.Time
	if r.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *r.EndDate)
		if err != nil {
			return store.NewEvent{}, err
		}
		end = &t
	}
	outcomes := make([]store.NewOutcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcomes = append(outcomes, o.ToNewOutcome())
	}
	return store.NewEvent{
		Title:         r.Title,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Description:   r.Description,
		StartDate:     start,
		EndDate:       end,
		Status:        store.EventStatus(r.Status),
		LiquidityPool: *r.LiquidityPool,
		CreatorID:     *r.CreatorID,
		Outcomes:      outcomes,
	}, nil
}

type PlaceBetRequest struct {
	UserID    *int64   `json:"userId" validate:"required"`
	EventID   *int64   `json:"eventId" validate:"required"`
	OutcomeID *int64   `json:"outcomeId" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required,gt=0"`
	Odds      *float64 `json:"odds" validate:"required,gt=0"` // odd que o cliente viu
}

func (r PlaceBetRequest) ToNewBet() store.NewBet {
	return store.NewBet{
		UserID:    *r.UserID,
		EventID:   *r.EventID,
		OutcomeID: *r.OutcomeID,
		Amount:    *r.Amount,
		Odds:      *r.Odds,
	}
}

// FollowRequest: follow ausente conta como true
type FollowRequest struct {
	UserID *int64 `json:"userId" validate:"required,gt=0"`
	Follow *bool  `json:"follow"`
}

func (r FollowRequest) Following() bool { return r.Follow == nil || *r.Follow }

type SettleRequest struct {
	OutcomeID *int64 `json:"outcomeId" validate:"required"`
}

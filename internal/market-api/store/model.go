package store

import "time"

type Role string

const (
	RoleBettor  Role = "bettor"
	RoleCreator Role = "creator"
	RoleExpert  Role = "expert"
	RoleTrader  Role = "trader"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCanceled  EventStatus = "canceled"
)

// Closed indica que o evento já foi liquidado ou cancelado
func (s EventStatus) Closed() bool { return s == EventCompleted || s == EventCanceled }

type BetStatus string

const (
	BetActive   BetStatus = "active"
	BetWon      BetStatus = "won"
	BetLost     BetStatus = "lost"
	BetRefunded BetStatus = "refunded"
)

// DefaultEventDuration é aplicada quando o evento chega sem endDate
const DefaultEventDuration = 24 * time.Hour

// FeaturedLimit é o número de eventos retornados em FeaturedEvents
const FeaturedLimit = 3

// User é o apostador/criador registrado. Password nunca sai em JSON.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Password      string    `json:"-"`
	WalletAddress *string   `json:"walletAddress"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Event struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	Category      string      `json:"category"`
	Subcategory   string      `json:"subcategory"`
	Description   string      `json:"description"`
	StartDate     time.Time   `json:"startDate"`
	EndDate       time.Time   `json:"endDate"`
	CreatedAt     time.Time   `json:"createdAt"`
	Status        EventStatus `json:"status"`
	LiquidityPool float64     `json:"liquidityPool"`
	CreatorID     int64       `json:"creatorId"`
	Outcomes      []Outcome   `json:"outcomes"`
}

// Outcome é um resultado selecionável de um evento, com sua odd
type Outcome struct {
	ID      int64   `json:"id"`
	EventID int64   `json:"eventId"`
	Name    string  `json:"name"`
	Odds    float64 `json:"odds"`
}

type Bet struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	EventID   int64     `json:"eventId"`
	OutcomeID int64     `json:"outcomeId"`
	Amount    float64   `json:"amount"`
	Odds      float64   `json:"odds"`
	Date      time.Time `json:"date"`
	Status    BetStatus `json:"status"`
}

// Expert é independente de User no storage
type Expert struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	WalletAddress    string    `json:"walletAddress"`
	Avatar           string    `json:"avatar,omitempty"`
	Specialty        string    `json:"specialty"`
	WinRate          float64   `json:"winRate"`
	TotalPredictions int       `json:"totalPredictions"`
	CreatedAt        time.Time `json:"createdAt"`
}

// FollowKey é a chave composta (usuário, expert) da relação de follow
type FollowKey struct {
	UserID   int64
	ExpertID int64
}

type Follow struct {
	UserID    int64     `json:"userId"`
	ExpertID  int64     `json:"expertId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f Follow) Key() FollowKey { return FollowKey{UserID: f.UserID, ExpertID: f.ExpertID} }

type PlatformStats struct {
	TotalBets    int     `json:"totalBets"`
	TotalVolume  float64 `json:"totalVolume"`
	ActiveEvents int     `json:"activeEvents"`
	ActiveUsers  int     `json:"activeUsers"`
}

// Settlement resume o resultado de liquidar ou cancelar um evento
type Settlement struct {
	EventID          int64       `json:"eventId"`
	Status           EventStatus `json:"status"`
	WinningOutcomeID *int64      `json:"winningOutcomeId,omitempty"`
	Won              int         `json:"won"`
	Lost             int         `json:"lost"`
	Refunded         int         `json:"refunded"`
	Payout           float64     `json:"payout"`
}

// Entradas de criação. Campos controlados pelo servidor (id, datas, status de aposta) não entram aqui.

type NewUser struct {
	Username      string
	Password      string
	WalletAddress *string
	Role          Role
}

type NewOutcome struct {
	Name string
	Odds float64
}

type NewEvent struct {
	Title         string
	Category      string
	Subcategory   string
	Description   string
	StartDate     time.Time
	EndDate       *time.Time
	Status        EventStatus
	LiquidityPool float64
	CreatorID     int64
	Outcomes      []NewOutcome
}

type NewBet struct {
	UserID    int64
	EventID   int64
	OutcomeID int64
	Amount    float64
	Odds      float64
}

type NewExpert struct {
	Username         string
	WalletAddress    string
	Avatar           string
	Specialty        string
	WinRate          float64
	TotalPredictions int
}

// Package store guarda usuários, eventos, outcomes, apostas, experts e follows.
//
// Get* retorna (nil, nil) quando o registro não existe: ausência não é erro
// nesta camada, só na API. Nenhuma operação valida unicidade ou referências;
// quem chama já validou o formato da entrada.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEventClosed     = errors.New("event already closed")
	ErrOutcomeMismatch = errors.New("outcome does not belong to event")
)

type Storage interface {
	CreateUser(ctx context.Context, in NewUser) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByWalletAddress(ctx context.Context, address string) (*User, error)

	CreateEvent(ctx context.Context, in NewEvent) (*Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	FeaturedEvents(ctx context.Context) ([]Event, error)

	CreateOutcome(ctx context.Context, eventID int64, in NewOutcome) (*Outcome, error)
	ListOutcomes(ctx context.Context, eventID int64) ([]Outcome, error)

	CreateBet(ctx context.Context, in NewBet) (*Bet, error)
	GetBet(ctx context.Context, id int64) (*Bet, error)
	ListUserBets(ctx context.Context, userID int64) ([]Bet, error)

	CreateExpert(ctx context.Context, in NewExpert) (*Expert, error)
	GetExpert(ctx context.Context, id int64) (*Expert, error)
	ListExperts(ctx context.Context) ([]Expert, error)
	Leaderboard(ctx context.Context) ([]Expert, error)
	FollowExpert(ctx context.Context, userID, expertID int64) error
	UnfollowExpert(ctx context.Context, userID, expertID int64) error
	FollowedExperts(ctx context.Context, userID int64) ([]Expert, error)

	PlatformStats(ctx context.Context, now time.Time) (PlatformStats, error)

	// SettleEvent fecha o evento como completed e liquida as apostas ativas
	// contra o outcome vencedor. ErrNotFound, ErrEventClosed, ErrOutcomeMismatch.
	SettleEvent(ctx context.Context, eventID, outcomeID int64) (*Settlement, error)
	// CancelEvent fecha o evento como canceled e devolve as apostas ativas.
	CancelEvent(ctx context.Context, eventID int64) (*Settlement, error)
	// ActivateDueEvents move eventos upcoming com início <= now para active.
	ActivateDueEvents(ctx context.Context, now time.Time) (int, error)

	Ping(ctx context.Context) error
}

// Clock permite fixar o "agora" nos testes
type Clock func() time.Time

func defaultEndDate(start time.Time, end *time.Time) time.Time {
	if end != nil {
		return *end
	}
	return start.Add(DefaultEventDuration)
}

func defaultRole(r Role) Role {
	if r == "" {
		return RoleBettor
	}
	return r
}

func defaultStatus(s EventStatus) EventStatus {
	if s == "" {
		return EventUpcoming
	}
	return s
}

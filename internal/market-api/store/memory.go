package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory implementa Storage em mapas do processo. Os dados somem no restart.
// Um único RWMutex torna cada operação atômica em relação às outras.
type Memory struct {
	mu  sync.RWMutex
	now Clock

	users    map[int64]*User
	events   map[int64]*Event
	outcomes map[int64]*Outcome
	bets     map[int64]*Bet
	experts  map[int64]*Expert
	follows  map[FollowKey]Follow

	nextUserID    int64
	nextEventID   int64
	nextOutcomeID int64
	nextBetID     int64
	nextExpertID  int64
}

type MemoryOption func(*Memory)

// WithClock troca a fonte de tempo usada para createdAt/date
func WithClock(c Clock) MemoryOption {
	return func(m *Memory) { m.now = c }
}

// NewMemory cria um storage vazio com contadores de id zerados
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		now:      time.Now,
		users:    make(map[int64]*User),
		events:   make(map[int64]*Event),
		outcomes: make(map[int64]*Outcome),
		bets:     make(map[int64]*Bet),
		experts:  make(map[int64]*Expert),
		follows:  make(map[FollowKey]Follow),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

var _ Storage = (*Memory)(nil)

// CreateUser grava o usuário com role bettor quando nenhuma é informada
func (m *Memory) CreateUser(_ context.Context, in NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	u := &User{
		ID:            m.nextUserID,
		Username:      in.Username,
		Password:      in.Password,
		WalletAddress: in.WalletAddress,
		Role:          defaultRole(in.Role),
		CreatedAt:     m.now().UTC(),
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// GetUser retorna nil quando o id não existe
func (m *Memory) GetUser(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetUserByUsername busca por username exato
func (m *Memory) GetUserByUsername(_ context.Context, username string) (*User, error) {
	return m.findUser(func(u *User) bool { return u.Username == username }), nil
}

// GetUserByWalletAddress busca pela carteira vinculada
func (m *Memory) GetUserByWalletAddress(_ context.Context, address string) (*User, error) {
	return m.findUser(func(u *User) bool { return u.WalletAddress != nil && *u.WalletAddress == address }), nil
}

// findUser devolve o usuário de menor id que satisfaz match
func (m *Memory) findUser(match func(*User) bool) *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *User
	for _, u := range m.users {
		if match(u) && (found == nil || u.ID < found.ID) {
			found = u
		}
	}
	if found == nil {
		return nil
	}
	cp := *found
	return &cp
}

// CreateEvent grava evento e outcomes de uma vez, sob o mesmo lock
func (m *Memory) CreateEvent(_ context.Context, in NewEvent) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextEventID++
	e := &Event{
		ID:            m.nextEventID,
		Title:         in.Title,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		Description:   in.Description,
		StartDate:     in.StartDate.UTC(),
		EndDate:       defaultEndDate(in.StartDate, in.EndDate).UTC(),
		CreatedAt:     m.now().UTC(),
		Status:        defaultStatus(in.Status),
		LiquidityPool: in.LiquidityPool,
		CreatorID:     in.CreatorID,
	}
	m.events[e.ID] = e
	for _, o := range in.Outcomes {
		m.insertOutcome(e.ID, o)
	}
	return m.eventView(e), nil
}

// GetEvent retorna o evento com seus outcomes ou nil
func (m *Memory) GetEvent(_ context.Context, id int64) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	return m.eventView(e), nil
}

// ListEvents lista todos os eventos por id
func (m *Memory) ListEvents(_ context.Context) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.allEvents()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FeaturedEvents: os 3 mais recentes por createdAt (id desc no empate)
func (m *Memory) FeaturedEvents(_ context.Context) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.allEvents()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > FeaturedLimit {
		out = out[:FeaturedLimit]
	}
	return out, nil
}

// CreateOutcome acrescenta um outcome ao evento
func (m *Memory) CreateOutcome(_ context.Context, eventID int64, in NewOutcome) (*Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.insertOutcome(eventID, in)
	return &o, nil
}

// ListOutcomes lista os outcomes do evento por id
func (m *Memory) ListOutcomes(_ context.Context, eventID int64) ([]Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outcomesOf(eventID), nil
}

// CreateBet sempre grava status active, independente da entrada
func (m *Memory) CreateBet(_ context.Context, in NewBet) (*Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBetID++
	b := &Bet{
		ID:        m.nextBetID,
		UserID:    in.UserID,
		EventID:   in.EventID,
		OutcomeID: in.OutcomeID,
		Amount:    in.Amount,
		Odds:      in.Odds,
		Date:      m.now().UTC(),
		Status:    BetActive,
	}
	m.bets[b.ID] = b
	cp := *b
	return &cp, nil
}

// GetBet retorna nil quando a aposta não existe
func (m *Memory) GetBet(_ context.Context, id int64) (*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bets[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

// ListUserBets lista as apostas do usuário por id
func (m *Memory) ListUserBets(_ context.Context, userID int64) ([]Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterBets(func(b *Bet) bool { return b.UserID == userID }), nil
}

// CreateExpert grava um perfil de expert
func (m *Memory) CreateExpert(_ context.Context, in NewExpert) (*Expert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextExpertID++
	x := &Expert{
		ID:               m.nextExpertID,
		Username:         in.Username,
		WalletAddress:    in.WalletAddress,
		Avatar:           in.Avatar,
		Specialty:        in.Specialty,
		WinRate:          in.WinRate,
		TotalPredictions: in.TotalPredictions,
		CreatedAt:        m.now().UTC(),
	}
	m.experts[x.ID] = x
	cp := *x
	return &cp, nil
}

// GetExpert retorna nil quando o expert não existe
func (m *Memory) GetExpert(_ context.Context, id int64) (*Expert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	x, ok := m.experts[id]
	if !ok {
		return nil, nil
	}
	cp := *x
	return &cp, nil
}

// ListExperts lista os experts por id
func (m *Memory) ListExperts(_ context.Context) ([]Expert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.allExperts()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Leaderboard ordena por winRate desc (id asc no empate)
func (m *Memory) Leaderboard(_ context.Context) ([]Expert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.allExperts()
	sortLeaderboard(out)
	return out, nil
}

// FollowExpert é idempotente: a chave composta garante um follow por par
func (m *Memory) FollowExpert(_ context.Context, userID, expertID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := FollowKey{UserID: userID, ExpertID: expertID}
	if _, ok := m.follows[k]; ok {
		return nil
	}
	m.follows[k] = Follow{UserID: userID, ExpertID: expertID, CreatedAt: m.now().UTC()}
	return nil
}

// UnfollowExpert remove o par; sem follow não é erro
func (m *Memory) UnfollowExpert(_ context.Context, userID, expertID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.follows, FollowKey{UserID: userID, ExpertID: expertID})
	return nil
}

// FollowedExperts lista os experts seguidos pelo usuário
func (m *Memory) FollowedExperts(_ context.Context, userID int64) ([]Expert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Expert{}
	for k := range m.follows {
		if k.UserID != userID {
			continue
		}
		if x, ok := m.experts[k.ExpertID]; ok {
			out = append(out, *x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PlatformStats calcula os totais da plataforma no instante now
func (m *Memory) PlatformStats(_ context.Context, now time.Time) (PlatformStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bets := m.filterBets(func(*Bet) bool { return true })
	events := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, *e)
	}
	return aggregateStats(bets, events, now), nil
}

// SettleEvent fecha o evento com outcomeID vencedor
func (m *Memory) SettleEvent(_ context.Context, eventID, outcomeID int64) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	if e.Status.Closed() {
		return nil, ErrEventClosed
	}
	o, ok := m.outcomes[outcomeID]
	if !ok || o.EventID != eventID {
		return nil, ErrOutcomeMismatch
	}
	return m.close(e, &outcomeID), nil
}

// CancelEvent fecha o evento devolvendo todas as apostas
func (m *Memory) CancelEvent(_ context.Context, eventID int64) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	if e.Status.Closed() {
		return nil, ErrEventClosed
	}
	return m.close(e, nil), nil
}

// ActivateDueEvents passa para active os upcoming que já começaram
func (m *Memory) ActivateDueEvents(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Status == EventUpcoming && !e.StartDate.After(now) {
			e.Status = EventActive
			n++
		}
	}
	return n, nil
}

// Ping sempre responde ok
func (m *Memory) Ping(context.Context) error { return nil }

// close aplica a liquidação; chamador segura o lock de escrita
func (m *Memory) close(e *Event, winning *int64) *Settlement {
	bets := m.filterBets(func(b *Bet) bool { return b.EventID == e.ID })
	st, next := settleBets(e.ID, bets, winning)
	for id, s := range next {
		m.bets[id].Status = s
	}
	e.Status = st.Status
	return &st
}

func (m *Memory) insertOutcome(eventID int64, in NewOutcome) Outcome {
	m.nextOutcomeID++
	o := &Outcome{ID: m.nextOutcomeID, EventID: eventID, Name: in.Name, Odds: in.Odds}
	m.outcomes[o.ID] = o
	return *o
}

func (m *Memory) outcomesOf(eventID int64) []Outcome {
	out := []Outcome{}
	for _, o := range m.outcomes {
		if o.EventID == eventID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) eventView(e *Event) *Event {
	cp := *e
	cp.Outcomes = m.outcomesOf(e.ID)
	return &cp
}

func (m *Memory) allEvents() []Event {
	out := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *m.eventView(e))
	}
	return out
}

func (m *Memory) allExperts() []Expert {
	out := make([]Expert, 0, len(m.experts))
	for _, x := range m.experts {
		out = append(out, *x)
	}
	return out
}

func (m *Memory) filterBets(match func(*Bet) bool) []Bet {
	out := []Bet{}
	for _, b := range m.bets {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortLeaderboard(xs []Expert) {
	sort.SliceStable(xs, func(i, j int) bool {
		if xs[i].WinRate != xs[j].WinRate {
			return xs[i].WinRate > xs[j].WinRate
		}
		return xs[i].ID < xs[j].ID
	})
}

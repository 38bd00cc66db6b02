package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock avança um segundo a cada chamada
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestMemory() (*Memory, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemory(WithClock(clk.Now)), clk
}

func sampleEvent(title string, start time.Time) NewEvent {
	return NewEvent{
		Title:         title,
		Category:      "Sports",
		Subcategory:   "Premier League",
		StartDate:     start,
		LiquidityPool: 10,
		CreatorID:     1,
		Outcomes:      []NewOutcome{{Name: "Home", Odds: 2.1}, {Name: "Away", Odds: 1.8}},
	}
}

func TestCreateUserAssignsIncreasingIDs(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()

	u1, err := m.CreateUser(ctx, NewUser{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	u2, err := m.CreateUser(ctx, NewUser{Username: "bob", Password: "secret2", Role: RoleCreator})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u1.ID)
	assert.Equal(t, int64(2), u2.ID)
	assert.Equal(t, RoleBettor, u1.Role)
	assert.Equal(t, RoleCreator, u2.Role)
}

func TestCreateUserDoesNotRejectDuplicates(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()

	_, err := m.CreateUser(ctx, NewUser{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	dup, err := m.CreateUser(ctx, NewUser{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), dup.ID)

	first, err := m.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
}

func TestGetUserAbsentIsNotAnError(t *testing.T) {
	m, _ := newTestMemory()
	u, err := m.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGetUserByWalletAddress(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	addr := "0xabc"

	_, err := m.CreateUser(ctx, NewUser{Username: "nowallet", Password: "secret1"})
	require.NoError(t, err)
	created, err := m.CreateUser(ctx, NewUser{Username: "withwallet", Password: "secret1", WalletAddress: &addr})
	require.NoError(t, err)

	got, err := m.GetUserByWalletAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	got, err = m.GetUserByWalletAddress(ctx, "0xdef")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateEventDefaultsEndDate(t *testing.T) {
	m, _ := newTestMemory()
	start := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)

	e, err := m.CreateEvent(context.Background(), sampleEvent("Arsenal vs Chelsea", start))
	require.NoError(t, err)

	assert.Equal(t, start.Add(24*time.Hour), e.EndDate)
	assert.Equal(t, EventUpcoming, e.Status)
	require.Len(t, e.Outcomes, 2)
	assert.Equal(t, e.ID, e.Outcomes[0].EventID)
	assert.Equal(t, "Home", e.Outcomes[0].Name)
}

func TestCreateEventKeepsExplicitEndDate(t *testing.T) {
	m, _ := newTestMemory()
	start := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	in := sampleEvent("Arsenal vs Chelsea", start)
	in.EndDate = &end
	in.Status = EventActive

	e, err := m.CreateEvent(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, end, e.EndDate)
	assert.Equal(t, EventActive, e.Status)
}

func TestOutcomesAreScopedToEvent(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()

	e1, err := m.CreateEvent(ctx, sampleEvent("first event", time.Now()))
	require.NoError(t, err)
	e2, err := m.CreateEvent(ctx, sampleEvent("second event", time.Now()))
	require.NoError(t, err)

	o, err := m.CreateOutcome(ctx, e1.ID, NewOutcome{Name: "Draw", Odds: 3.4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), o.ID)
	assert.Equal(t, e1.ID, o.EventID)

	outs, err := m.ListOutcomes(ctx, e1.ID)
	require.NoError(t, err)
	require.Len(t, outs, 3)
	assert.Equal(t, []string{"Home", "Away", "Draw"}, []string{outs[0].Name, outs[1].Name, outs[2].Name})

	outs, err = m.ListOutcomes(ctx, e2.ID)
	require.NoError(t, err)
	assert.Len(t, outs, 2)

	outs, err = m.ListOutcomes(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestFeaturedEventsReturnsNewestThree(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, title := range []string{"event one", "event two", "event three", "event four", "event five"} {
		_, err := m.CreateEvent(ctx, sampleEvent(title, start))
		require.NoError(t, err)
	}

	featured, err := m.FeaturedEvents(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{featured[0].ID, featured[1].ID, featured[2].ID})
	assert.True(t, featured[0].CreatedAt.After(featured[1].CreatedAt))

	all, err := m.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, int64(1), all[0].ID)
}

func TestCreateBetIsAlwaysActive(t *testing.T) {
	m, clk := newTestMemory()
	ctx := context.Background()

	b, err := m.CreateBet(ctx, NewBet{UserID: 7, EventID: 99, OutcomeID: 3, Amount: 0.5, Odds: 2.12})
	require.NoError(t, err)
	assert.Equal(t, BetActive, b.Status)
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, clk.t, b.Date)

	bets, err := m.ListUserBets(ctx, 7)
	require.NoError(t, err)
	require.Len(t, bets, 1)

	none, err := m.ListUserBets(ctx, 8)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPlatformStatsCountsDistinctBettors(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := m.CreateUser(ctx, NewUser{Username: "user", Password: "secret1"})
		require.NoError(t, err)
	}

	_, err := m.CreateEvent(ctx, sampleEvent("live now", now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = m.CreateEvent(ctx, sampleEvent("starts later", now.Add(time.Hour)))
	require.NoError(t, err)
	_, err = m.CreateEvent(ctx, sampleEvent("already over", now.Add(-48*time.Hour)))
	require.NoError(t, err)

	for _, nb := range []NewBet{
		{UserID: 1, EventID: 1, OutcomeID: 1, Amount: 0.1, Odds: 2},
		{UserID: 1, EventID: 1, OutcomeID: 2, Amount: 0.2, Odds: 2},
		{UserID: 3, EventID: 1, OutcomeID: 1, Amount: 1.5, Odds: 2},
	} {
		_, err := m.CreateBet(ctx, nb)
		require.NoError(t, err)
	}

	st, err := m.PlatformStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalBets)
	assert.Equal(t, 1.8, st.TotalVolume)
	assert.Equal(t, 1, st.ActiveEvents)
	assert.Equal(t, 2, st.ActiveUsers)
}

func TestLeaderboardSortsByWinRate(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()

	n, err := SeedExperts(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = m.CreateExpert(ctx, NewExpert{Username: "PoliticsPro", Specialty: "Politics", WinRate: 95.1})
	require.NoError(t, err)

	board, err := m.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "PoliticsPro", board[0].Username)
	assert.Equal(t, "CryptoSage", board[1].Username)
	assert.Equal(t, "SportsMaster", board[2].Username)

	again, err := SeedExperts(ctx, m)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestFollowIsIdempotentPerPair(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	_, err := SeedExperts(ctx, m)
	require.NoError(t, err)

	require.NoError(t, m.FollowExpert(ctx, 1, 2))
	require.NoError(t, m.FollowExpert(ctx, 1, 2))
	require.NoError(t, m.FollowExpert(ctx, 1, 1))
	require.NoError(t, m.FollowExpert(ctx, 2, 1))
	assert.Len(t, m.follows, 3)

	followed, err := m.FollowedExperts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, followed, 2)
	assert.Equal(t, int64(1), followed[0].ID)

	require.NoError(t, m.UnfollowExpert(ctx, 1, 2))
	require.NoError(t, m.UnfollowExpert(ctx, 1, 2))
	followed, err = m.FollowedExperts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, followed, 1)
}

func TestSettleEventResolvesActiveBets(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	e, err := m.CreateEvent(ctx, sampleEvent("Arsenal vs Chelsea", time.Now()))
	require.NoError(t, err)
	home, away := e.Outcomes[0].ID, e.Outcomes[1].ID

	_, err = m.CreateBet(ctx, NewBet{UserID: 1, EventID: e.ID, OutcomeID: home, Amount: 2, Odds: 2.1})
	require.NoError(t, err)
	_, err = m.CreateBet(ctx, NewBet{UserID: 2, EventID: e.ID, OutcomeID: away, Amount: 1, Odds: 1.8})
	require.NoError(t, err)
	_, err = m.CreateBet(ctx, NewBet{UserID: 3, EventID: e.ID + 1, OutcomeID: home, Amount: 1, Odds: 2.1})
	require.NoError(t, err)

	st, err := m.SettleEvent(ctx, e.ID, home)
	require.NoError(t, err)
	assert.Equal(t, EventCompleted, st.Status)
	assert.Equal(t, 1, st.Won)
	assert.Equal(t, 1, st.Lost)
	assert.Equal(t, 4.2, st.Payout)
	require.NotNil(t, st.WinningOutcomeID)
	assert.Equal(t, home, *st.WinningOutcomeID)

	b1, _ := m.GetBet(ctx, 1)
	b2, _ := m.GetBet(ctx, 2)
	b3, _ := m.GetBet(ctx, 3)
	assert.Equal(t, BetWon, b1.Status)
	assert.Equal(t, BetLost, b2.Status)
	assert.Equal(t, BetActive, b3.Status)

	got, _ := m.GetEvent(ctx, e.ID)
	assert.Equal(t, EventCompleted, got.Status)

	_, err = m.SettleEvent(ctx, e.ID, home)
	assert.ErrorIs(t, err, ErrEventClosed)
	_, err = m.CancelEvent(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEventClosed)
}

func TestSettleEventErrors(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	e1, err := m.CreateEvent(ctx, sampleEvent("first event", time.Now()))
	require.NoError(t, err)
	e2, err := m.CreateEvent(ctx, sampleEvent("second event", time.Now()))
	require.NoError(t, err)

	_, err = m.SettleEvent(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.SettleEvent(ctx, e1.ID, e2.Outcomes[0].ID)
	assert.ErrorIs(t, err, ErrOutcomeMismatch)

	_, err = m.CancelEvent(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelEventRefundsBets(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	e, err := m.CreateEvent(ctx, sampleEvent("Arsenal vs Chelsea", time.Now()))
	require.NoError(t, err)
	_, err = m.CreateBet(ctx, NewBet{UserID: 1, EventID: e.ID, OutcomeID: e.Outcomes[0].ID, Amount: 2, Odds: 2.1})
	require.NoError(t, err)

	st, err := m.CancelEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, EventCanceled, st.Status)
	assert.Equal(t, 1, st.Refunded)
	assert.Nil(t, st.WinningOutcomeID)

	b, _ := m.GetBet(ctx, 1)
	assert.Equal(t, BetRefunded, b.Status)
}

func TestActivateDueEvents(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := m.CreateEvent(ctx, sampleEvent("started", now.Add(-time.Minute)))
	require.NoError(t, err)
	_, err = m.CreateEvent(ctx, sampleEvent("not yet", now.Add(time.Minute)))
	require.NoError(t, err)
	canceled, err := m.CreateEvent(ctx, sampleEvent("canceled", now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = m.CancelEvent(ctx, canceled.ID)
	require.NoError(t, err)

	n, err := m.ActivateDueEvents(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e1, _ := m.GetEvent(ctx, 1)
	e2, _ := m.GetEvent(ctx, 2)
	e3, _ := m.GetEvent(ctx, 3)
	assert.Equal(t, EventActive, e1.Status)
	assert.Equal(t, EventUpcoming, e2.Status)
	assert.Equal(t, EventCanceled, e3.Status)
}

func TestMemoryConcurrentCreates(t *testing.T) {
	m, _ := newTestMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.CreateBet(ctx, NewBet{UserID: 1, EventID: 1, OutcomeID: 1, Amount: 1, Odds: 2})
		}()
	}
	wg.Wait()

	bets, err := m.ListUserBets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bets, 50)
	assert.Equal(t, int64(50), bets[49].ID)
}

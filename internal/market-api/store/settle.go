package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// settleBets decide o novo status das apostas ativas de um evento.
// winning nil significa cancelamento: toda aposta ativa vira refunded.
// Apostas já fechadas ficam fora do mapa retornado.
func settleBets(eventID int64, bets []Bet, winning *int64) (Settlement, map[int64]BetStatus) {
	st := Settlement{EventID: eventID, Status: EventCanceled}
	if winning != nil {
		st.Status = EventCompleted
		w := *winning
		st.WinningOutcomeID = &w
	}

	next := make(map[int64]BetStatus, len(bets))
	payout := decimal.Zero
	for _, b := range bets {
		if b.Status != BetActive {
			continue
		}
		switch {
		case winning == nil:
			next[b.ID] = BetRefunded
			st.Refunded++
		case b.OutcomeID == *winning:
			next[b.ID] = BetWon
			st.Won++
			payout = payout.Add(decimal.NewFromFloat(b.Amount).Mul(decimal.NewFromFloat(b.Odds)))
		default:
			next[b.ID] = BetLost
			st.Lost++
		}
	}
	st.Payout = payout.Round(8).InexactFloat64()
	return st, next
}

// aggregateStats calcula as estatísticas varrendo apostas e eventos.
// activeUsers conta userIds distintos que apostaram, não usuários cadastrados.
func aggregateStats(bets []Bet, events []Event, now time.Time) PlatformStats {
	volume := decimal.Zero
	bettors := make(map[int64]struct{})
	for _, b := range bets {
		volume = volume.Add(decimal.NewFromFloat(b.Amount))
		bettors[b.UserID] = struct{}{}
	}

	active := 0
	for _, e := range events {
		if isLive(e, now) {
			active++
		}
	}

	return PlatformStats{
		TotalBets:    len(bets),
		TotalVolume:  volume.InexactFloat64(),
		ActiveEvents: active,
		ActiveUsers:  len(bettors),
	}
}

// isLive: janela [startDate, endDate] contém now (inclusive nas pontas)
func isLive(e Event, now time.Time) bool {
	return !e.StartDate.After(now) && !e.EndDate.Before(now)
}

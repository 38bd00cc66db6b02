package topics

const (
	// Bets
	BetPlaced = "bet_placed"

	// Events (mercados)
	EventCreated = "event_created"
	EventSettled = "event_settled"
)

package events

// Evento publicado no tópico "bet_placed" após a aposta ser gravada
type BetPlaced struct {
	BetID     int64   `json:"bet_id"`
	UserID    int64   `json:"user_id"`
	EventID   int64   `json:"event_id"`
	OutcomeID int64   `json:"outcome_id"`
	Amount    float64 `json:"amount"`
	Odds      float64 `json:"odds"`
	TsUnixMs  int64   `json:"ts_unix_ms"`
}

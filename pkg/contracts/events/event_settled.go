package events

// Evento publicado no tópico "event_settled" quando um evento é liquidado ou cancelado
type EventSettled struct {
	EventID          int64   `json:"event_id"`
	Status           string  `json:"status"` // "completed" | "canceled"
	WinningOutcomeID *int64  `json:"winning_outcome_id,omitempty"`
	Won              int     `json:"won"`
	Lost             int     `json:"lost"`
	Refunded         int     `json:"refunded"`
	Payout           float64 `json:"payout"`
	TsUnixMs         int64   `json:"ts_unix_ms"`
}

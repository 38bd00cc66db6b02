package events

import "time"

// Evento publicado no tópico "event_created"
type EventCreated struct {
	EventID       int64     `json:"event_id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory"`
	CreatorID     int64     `json:"creator_id"`
	LiquidityPool float64   `json:"liquidity_pool"`
	Outcomes      []Outcome `json:"outcomes"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	TsUnixMs      int64     `json:"ts_unix_ms"`
}

type Outcome struct {
	OutcomeID int64   `json:"outcome_id"`
	Name      string  `json:"name"`
	Odds      float64 `json:"odds"`
}

package ws

import "strconv"

// ChannelEvents recebe todo evento de mercado criado
const ChannelEvents = "events"

// Tipos de Update
const (
	TypeEventCreated = "event_created"
	TypeBetPlaced    = "bet_placed"
	TypeEventSettled = "event_settled"
)

// EventChannel é o canal de apostas e liquidação de um evento
func EventChannel(eventID int64) string { return strconv.FormatInt(eventID, 10) }

// ClientMsg é o que o cliente manda: subscribe | unsubscribe | ping.
// Channel é obrigatório em subscribe/unsubscribe.
type ClientMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// Update é o que o hub entrega a quem assina Channel
type Update struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/radieske/prediction-market-poc/internal/market-api/store"
	"github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio, um writer por tópico.
// A chave da mensagem é o id do evento de mercado, mantendo a ordem por evento.
type KafkaPublisher struct {
	BetPlaced    kafka.MessageWriter
	EventCreated kafka.MessageWriter
	EventSettled kafka.MessageWriter

	now func() time.Time
}

// NewKafkaPublisher recebe um writer para cada tópico
func NewKafkaPublisher(betPlaced, eventCreated, eventSettled kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		BetPlaced:    betPlaced,
		EventCreated: eventCreated,
		EventSettled: eventSettled,
		now:          time.Now,
	}
}

// PublishBetPlaced publica em bet_placed
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, b store.Bet) error {
	return p.write(ctx, p.BetPlaced, b.EventID, events.BetPlaced{
		BetID:     b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		OutcomeID: b.OutcomeID,
		Amount:    b.Amount,
		Odds:      b.Odds,
		TsUnixMs:  p.now().UnixMilli(),
	})
}

// PublishEventCreated publica em event_created com os outcomes
func (p *KafkaPublisher) PublishEventCreated(ctx context.Context, e store.Event) error {
	outs := make([]events.Outcome, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		outs = append(outs, events.Outcome{OutcomeID: o.ID, Name: o.Name, Odds: o.Odds})
	}
	return p.write(ctx, p.EventCreated, e.ID, events.EventCreated{
		EventID:       e.ID,
		Title:         e.Title,
		Category:      e.Category,
		Subcategory:   e.Subcategory,
		CreatorID:     e.CreatorID,
		LiquidityPool: e.LiquidityPool,
		Outcomes:      outs,
		StartDate:     e.StartDate,
		EndDate:       e.EndDate,
		TsUnixMs:      p.now().UnixMilli(),
	})
}

// PublishEventSettled publica em event_settled o resultado da liquidação
func (p *KafkaPublisher) PublishEventSettled(ctx context.Context, s store.Settlement) error {
	return p.write(ctx, p.EventSettled, s.EventID, events.EventSettled{
		EventID:          s.EventID,
		Status:           string(s.Status),
		WinningOutcomeID: s.WinningOutcomeID,
		Won:              s.Won,
		Lost:             s.Lost,
		Refunded:         s.Refunded,
		Payout:           s.Payout,
		TsUnixMs:         p.now().UnixMilli(),
	})
}

func (p *KafkaPublisher) write(ctx context.Context, w kafka.MessageWriter, eventID int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, w, strconv.FormatInt(eventID, 10), b)
}

// Noop é usado quando KAFKA_BROKERS está vazio
type Noop struct{}

func (Noop) PublishBetPlaced(context.Context, store.Bet) error           { return nil }
func (Noop) PublishEventCreated(context.Context, store.Event) error      { return nil }
func (Noop) PublishEventSettled(context.Context, store.Settlement) error { return nil }

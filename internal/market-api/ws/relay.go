package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LocalRelay entrega direto no hub do processo
type LocalRelay struct{ Hub *Hub }

// Publish entrega no hub local de forma síncrona
func (l LocalRelay) Publish(_ context.Context, u Update) error {
	l.Hub.Broadcast(u)
	return nil
}

// RedisRelay publica no canal Redis; cada instância entrega aos seus clientes
// via StartRedisSubscriber
type RedisRelay struct {
	R       *redis.Client
	Channel string
}

// Publish serializa u e publica no canal
func (r RedisRelay) Publish(ctx context.Context, u Update) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.R.Publish(ctx, r.Channel, b).Err()
}

// StartRedisSubscriber assina channel e repassa cada Update ao hub até ctx acabar.
// Retorna depois que a assinatura foi confirmada pelo Redis.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) error {
	sub := r.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var u Update
				if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
					log.Warn("ws relay unmarshal", zap.Error(err))
					continue
				}
				hub.Broadcast(u)
			}
		}
	}()
	return nil
}

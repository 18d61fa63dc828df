package bus

import (
	"context"
	"time"

	"trade_core/pkg/logger"
	"trade_core/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// resubscribeDelay is the fixed supervised-restart backoff. No retry cap:
// the loop runs until the process is killed.
const resubscribeDelay = 5 * time.Second

type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, message any) error {
	payload, err := sonic.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string, h Handler) {
	logger.Info("subscribing to topic %q", topic)
	go b.listen(ctx, topic, h)
}

func (b *RedisBus) listen(ctx context.Context, topic string, h Handler) {
	for {
		sub := b.rdb.Subscribe(ctx, topic)

		ch := sub.Channel()
		logger.Info("listening on topic %q", topic)
		for msg := range ch {
			payload := []byte(msg.Payload)
			go h(ctx, payload)
		}
		_ = sub.Close()

		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Critical("subscription to %q dropped, resubscribing in %s", topic, resubscribeDelay)
		metrics.StreamRestarts.WithLabelValues("bus_" + topic).Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

package redisbus

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/modules/config"
	"trade_core/internal/state"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Module provides the shared Redis client plus the event bus and state
// store built on it.
func Module() fx.Option {
	return fx.Module("redisbus",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
				rdb := redis.NewClient(&redis.Options{
					Addr: cfg.Redis.Addr,
					DB:   cfg.Redis.DB,
				})
				if err := rdb.Ping(ctx).Err(); err != nil {
					return nil, errors.Wrap(err, "redis ping")
				}
				return rdb, nil
			},
			func(rdb *redis.Client) bus.Bus {
				return bus.NewRedisBus(rdb)
			},
			func(rdb *redis.Client) state.Store {
				return state.NewRedisStore(rdb)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, rdb *redis.Client) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return rdb.Close()
				},
			})
		}),
	)
}

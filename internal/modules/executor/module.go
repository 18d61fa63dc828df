package executor

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/modules/executor/service"
	"trade_core/internal/state"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			func(b bus.Bus, s state.Store, g exchange.Gateway) *service.Executor {
				return service.New(b, s, g)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, e *service.Executor, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					e.Run(ctx)
					return nil
				},
			})
		}),
	)
}

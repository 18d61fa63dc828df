package monitor

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/modules/monitor/service"
	"trade_core/internal/repository"
	"trade_core/internal/state"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("monitor",
		fx.Provide(
			func(b bus.Bus, s state.Store, g exchange.Gateway, r *repository.TradeLogRepo) *service.Monitor {
				return service.New(b, s, g, r)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, m *service.Monitor, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					m.Run(ctx)
					return nil
				},
			})
		}),
	)
}

package notifier

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/modules/config"
	"trade_core/internal/modules/notifier/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("notifier",
		fx.Provide(
			func(b bus.Bus, cfg *config.Config) (*service.Notifier, error) {
				return service.New(b, cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, n *service.Notifier, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					n.Run(ctx)
					return nil
				},
			})
		}),
	)
}

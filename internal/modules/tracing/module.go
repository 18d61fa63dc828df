package tracing

import (
	"context"

	"trade_core/internal/modules/config"
	"trade_core/pkg/tracing"

	"go.uber.org/fx"
)

// Module wires the global tracer when a Jaeger agent is configured; without
// one, opentracing's noop tracer stays in place.
func Module() fx.Option {
	return fx.Module("tracing",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
}

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade_core/internal/modules/config"
	"trade_core/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

// Module serves /metrics on the admin port.
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Service.AdminPort),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("admin server on :%d", cfg.Service.AdminPort)
						if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							logger.Error("admin server: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}

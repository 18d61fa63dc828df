package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trade_core/internal/modules/api/handlers"
	"trade_core/internal/modules/config"
	"trade_core/internal/repository"
	"trade_core/internal/state"
	"trade_core/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			func(trades *repository.TradeLogRepo, store state.Store) *handlers.Handlers {
				return handlers.New(trades, store)
			},
			newRouter,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *mux.Router, cfg *config.Config) {
			srv := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.Port),
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("reporting api on %s", srv.Addr)
						if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
							logger.Error("api server: %v", err)
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

func newRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/trades", h.Trades).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/positions", h.Positions).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

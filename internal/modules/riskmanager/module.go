package riskmanager

import (
	"context"

	"trade_core/internal/bus"
	"trade_core/internal/exchange"
	"trade_core/internal/modules/config"
	"trade_core/internal/modules/riskmanager/service"
	"trade_core/internal/state"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("riskmanager",
		fx.Provide(
			func(b bus.Bus, s state.Store, g exchange.Gateway, r exchange.Rules, cfg *config.Config) *service.RiskManager {
				return service.New(b, s, g, r, service.Config{
					QuoteAsset:          cfg.Risk.QuoteAsset,
					RiskPerTrade:        decimal.NewFromFloat(cfg.Risk.RiskPerTrade),
					MaxConcurrentTrades: cfg.Risk.MaxConcurrentTrades,
					ATRTimeframe:        cfg.Risk.ATRTimeframe,
					ATRPeriod:           cfg.Risk.ATRPeriod,
					ATRWarmupCandles:    cfg.Risk.ATRWarmupCandles,
					SLMultiplier:        decimal.NewFromFloat(cfg.Risk.SLATRMultiplier),
					TPMultiplier:        decimal.NewFromFloat(cfg.Risk.TPATRMultiplier),
				})
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, m *service.RiskManager, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					m.Run(ctx)
					return nil
				},
			})
		}),
	)
}

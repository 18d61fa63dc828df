package binance

import (
	"context"

	"trade_core/internal/exchange"
	"trade_core/internal/modules/config"
	"trade_core/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Module provides the concrete exchange gateway and the symbol rules loaded
// from exchangeInfo. Rules load once at startup and fail the whole process
// if unavailable: sizing without exchange rules is not safe.
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*exchange.Client, error) {
				c := exchange.NewClient(exchange.ClientConfig{
					BaseURL:   cfg.Exchange.BaseURL,
					WSURL:     cfg.Exchange.WSURL,
					APIKey:    cfg.Exchange.APIKey,
					APISecret: cfg.Exchange.APISecret,
				})
				if err := c.Ping(ctx); err != nil {
					return nil, errors.Wrap(err, "exchange ping")
				}
				logger.Info("exchange REST connection ok")
				return c, nil
			},
			func(c *exchange.Client) exchange.Gateway { return c },
			func(ctx context.Context, c *exchange.Client) (*exchange.Filters, error) {
				info, err := c.GetExchangeInfo(ctx)
				if err != nil {
					return nil, errors.Wrap(err, "load exchange info")
				}
				return exchange.NewFilters(info), nil
			},
			func(f *exchange.Filters) exchange.Rules { return f },
		),
	)
}

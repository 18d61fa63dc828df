package postgres

import (
	"context"

	"trade_core/internal/modules/config"
	"trade_core/internal/repository"
	"trade_core/pkg/db"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, errors.Wrap(err, "failed to create poolMaster")
				}

				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
			func(txm *db.PgTxManager) db.TxManager { return txm },
			repository.NewTradeLogRepo,
		),
		fx.Invoke(func(lc fx.Lifecycle, txm *db.PgTxManager) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					txm.Close()
					return nil
				},
			})
		}),
	)
}

package repository

import (
	"context"

	"trade_core/internal/models"
	"trade_core/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// TradeLogRepo writes and reads the append-only trade_logs table. Rows are
// inserted once per closed trade and never updated.
type TradeLogRepo struct {
	txm db.TxManager
}

func NewTradeLogRepo(txm db.TxManager) *TradeLogRepo {
	return &TradeLogRepo{txm: txm}
}

const insertTradeLog = `
INSERT INTO trade_logs
  (symbol, strategy, side, quantity, entry_price, exit_price, pnl, pnl_percent, timestamp_entry, timestamp_exit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *TradeLogRepo) Append(ctx context.Context, log models.TradeLog) error {
	return r.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertTradeLog,
			log.Symbol, log.Strategy, string(log.Side), log.Quantity,
			log.EntryPrice, log.ExitPrice, log.Pnl, log.PnlPercent,
			log.EntryTime, log.ExitTime,
		)
		if err != nil {
			return errors.Wrap(err, "insert trade log")
		}
		return nil
	})
}

const selectLastTrades = `
SELECT symbol, strategy, side, quantity, entry_price, exit_price, pnl, pnl_percent, timestamp_entry, timestamp_exit
FROM trade_logs
ORDER BY timestamp_exit DESC
LIMIT $1`

// LastN returns the most recently closed trades, newest first.
func (r *TradeLogRepo) LastN(ctx context.Context, limit int) ([]models.TradeLog, error) {
	rows, err := r.txm.Conn().Query(ctx, selectLastTrades, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query trade logs")
	}
	defer rows.Close()

	var out []models.TradeLog
	for rows.Next() {
		var t models.TradeLog
		var side string
		if err := rows.Scan(
			&t.Symbol, &t.Strategy, &side, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.Pnl, &t.PnlPercent,
			&t.EntryTime, &t.ExitTime,
		); err != nil {
			return nil, errors.Wrap(err, "scan trade log")
		}
		t.Side = models.OrderSide(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

package service

import (
	"context"
	"fmt"

	"trade_core/internal/bus"
	"trade_core/internal/models"
	"trade_core/pkg/logger"

	"github.com/bytedance/sonic"
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier relays position events to a Telegram chat. Without a token it
// stays inert and only logs, so the worker can run in environments with no
// bot configured.
type Notifier struct {
	bus    bus.Bus
	bot    *tgbot.BotAPI
	chatID int64
}

func New(b bus.Bus, token string, chatID int64) (*Notifier, error) {
	n := &Notifier{bus: b, chatID: chatID}
	if token == "" {
		logger.Warn("telegram token not configured, notifier inactive")
		return n, nil
	}
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	n.bot = bot
	return n, nil
}

// Run subscribes to the position topics.
func (n *Notifier) Run(ctx context.Context) {
	n.bus.Subscribe(ctx, models.TopicPositionOpened, n.onOpened)
	n.bus.Subscribe(ctx, models.TopicPositionClosed, n.onClosed)
}

func (n *Notifier) onOpened(_ context.Context, payload []byte) {
	var pos models.Position
	if err := sonic.Unmarshal(payload, &pos); err != nil {
		logger.Warn("malformed position_opened event: %v", err)
		return
	}
	tp := "-"
	if pos.TPPrice != nil {
		tp = fmt.Sprintf("%.6f", *pos.TPPrice)
	}
	n.send(fmt.Sprintf("📈 OPEN %s %s\nqty=%v entry=%.6f\nSL=%.6f TP=%s (%s)",
		pos.Side, pos.Symbol, pos.Quantity, pos.EntryPrice, pos.SLPrice, tp, pos.Strategy))
}

func (n *Notifier) onClosed(_ context.Context, payload []byte) {
	var trade models.TradeLog
	if err := sonic.Unmarshal(payload, &trade); err != nil {
		logger.Warn("malformed position_closed event: %v", err)
		return
	}
	emoji := "✅"
	if trade.Pnl < 0 {
		emoji = "🔻"
	}
	n.send(fmt.Sprintf("%s CLOSED %s %s\nentry=%.6f exit=%.6f\nP/L %.4f (%.2f%%)",
		emoji, trade.Side, trade.Symbol, trade.EntryPrice, trade.ExitPrice, trade.Pnl, trade.PnlPercent))
}

func (n *Notifier) send(msg string) {
	if n.bot == nil || n.chatID == 0 {
		logger.Info("(notifier inactive) %s", msg)
		return
	}
	if _, err := n.bot.Send(tgbot.NewMessage(n.chatID, msg)); err != nil {
		logger.Error("sending telegram message: %v", err)
	}
}

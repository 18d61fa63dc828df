package main

import (
	"context"
	"log"

	"trade_core/internal/modules/config"
	"trade_core/internal/modules/metrics"
	"trade_core/internal/modules/notifier"
	"trade_core/internal/modules/redisbus"
	"trade_core/pkg/logger"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init("worker"); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		redisbus.Module(),
		notifier.Module(),
		metrics.Module(),
	)
	app.Run()
}

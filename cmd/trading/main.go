package main

import (
	"context"
	"log"

	"trade_core/internal/modules/binance"
	"trade_core/internal/modules/config"
	"trade_core/internal/modules/executor"
	"trade_core/internal/modules/metrics"
	"trade_core/internal/modules/monitor"
	"trade_core/internal/modules/postgres"
	"trade_core/internal/modules/redisbus"
	"trade_core/internal/modules/riskmanager"
	"trade_core/internal/modules/tracing"
	"trade_core/pkg/logger"
	pkgtracing "trade_core/pkg/tracing"

	"go.uber.org/fx"
)

const serviceName = "trading"

func main() {
	if err := logger.Init(serviceName); err != nil {
		log.Fatal(err)
	}
	pkgtracing.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		tracing.Module(),
		redisbus.Module(),
		postgres.Module(),
		binance.Module(),
		riskmanager.Module(),
		executor.Module(),
		monitor.Module(),
		metrics.Module(),
	)
	app.Run()
}

package main

import (
	"context"
	"log"

	"trade_core/internal/modules/api"
	"trade_core/internal/modules/config"
	"trade_core/internal/modules/postgres"
	"trade_core/internal/modules/redisbus"
	"trade_core/pkg/logger"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init("api"); err != nil {
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
		postgres.Module(),
		api.Module(),
	)
	app.Run()
}

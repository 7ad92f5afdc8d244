// @title           User Service API
// @version         1.0
// @description     Accounts, sessions, channel profiles and watch history.
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/tubehub/user-service/internal/app"
	"github.com/tubehub/user-service/internal/pkg/config"
	"github.com/tubehub/user-service/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "user-service"})
		log := logger.Get()
		log.Fatal().Err(err).Msg("load configuration")
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "user-service",
	})
	log := logger.Get()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("service stopped")
		os.Exit(1)
	}
}

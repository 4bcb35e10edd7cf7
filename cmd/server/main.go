package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/shifthunter/backend/internal/app"
	"github.com/shifthunter/backend/internal/automation"
	"github.com/shifthunter/backend/internal/cache"
	"github.com/shifthunter/backend/internal/config"
	"github.com/shifthunter/backend/internal/db"
	"github.com/shifthunter/backend/internal/logger"
	"github.com/shifthunter/backend/internal/server"
	"github.com/shifthunter/backend/internal/service/account"
	"github.com/shifthunter/backend/internal/service/search"
	"github.com/shifthunter/backend/internal/service/settings"
)

func main() {
	// a missing .env is fine, the environment may be set externally
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	searchReg := search.NewRegistrar(appCtx)
	registrars := []server.Registrar{
		account.NewRegistrar(appCtx),
		settings.NewRegistrar(appCtx),
		searchReg,
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// background poller shares the search service with the REST layer
	runner := automation.NewRunner(appCtx, searchReg.Service(), automation.NewStubProvider(log))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

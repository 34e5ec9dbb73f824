package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/signet-auth/signet/internal/api"
	"github.com/signet-auth/signet/internal/core/ports"
	"github.com/signet-auth/signet/internal/core/service"
	"github.com/signet-auth/signet/internal/infrastructure/config"
	"github.com/signet-auth/signet/internal/infrastructure/db/memory"
	"github.com/signet-auth/signet/internal/infrastructure/db/mongo"
	"github.com/signet-auth/signet/internal/infrastructure/db/redis"
	"github.com/signet-auth/signet/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	ctx := context.Background()

	var (
		store ports.CredentialStore
		db    *gomongo.Database
	)
	switch cfg.Store {
	case "memory":
		store = memory.NewIdentityStore()
		log.Warn().Msg("using in-memory credential store, identities will not survive restarts")
	default:
		client, database, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			_ = client.Disconnect(ctx)
		}()

		identityStore := mongo.NewIdentityStore(database)
		if err := identityStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongo index creation failed")
		}
		store = identityStore
		db = database
	}

	var rdb *goredis.Client
	if cfg.Redis.CacheTTL > 0 {
		client, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer func() {
			_ = client.Close()
		}()

		rdb = client
		store = redis.NewIdentityCache(store, client, cfg.Redis.CacheTTL)
	}

	svc := service.NewCredentialService(store, cfg.HMAC.Roles, log)

	if cfg.HMAC.Debug {
		log.Warn().Msg("debug endpoint enabled, do not run this profile in production")
	}

	e := api.NewRouter(api.Options{
		Store:   store,
		Service: svc,
		Mongo:   db,
		Redis:   rdb,
		Debug:   cfg.HMAC.Debug,
		Logger:  log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

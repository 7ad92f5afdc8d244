package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tubehub/user-service/internal/api"
	"github.com/tubehub/user-service/internal/api/handler"
	"github.com/tubehub/user-service/internal/core/ports"
	"github.com/tubehub/user-service/internal/core/service"
	mongodb "github.com/tubehub/user-service/internal/infrastructure/db/mongo"
	redisdb "github.com/tubehub/user-service/internal/infrastructure/db/redis"
	"github.com/tubehub/user-service/internal/infrastructure/queue"
	"github.com/tubehub/user-service/internal/infrastructure/storage"
	"github.com/tubehub/user-service/internal/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// Run wires the service and serves HTTP until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	checks := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}

	var throttle ports.LoginThrottle
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, login throttle disabled")
	} else {
		defer rdb.Close()
		throttle = redisdb.NewLoginThrottle(rdb, cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow)
		checks["redis"] = redisCheck(rdb)
	}

	media, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:        cfg.Media.Bucket,
		Region:        cfg.Media.Region,
		Endpoint:      cfg.Media.Endpoint,
		AccessKey:     cfg.Media.AccessKey,
		SecretKey:     cfg.Media.SecretKey,
		PublicBaseURL: cfg.Media.PublicBaseURL,
	})
	if err != nil {
		return err
	}

	tokens, err := service.NewTokenService(service.TokenOptions{
		AccessSecret:  cfg.Token.AccessSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshSecret: cfg.Token.RefreshSecret,
		RefreshTTL:    cfg.Token.RefreshTTL,
	})
	if err != nil {
		return err
	}

	janitor := queue.NewJanitor(cfg.Media.Workers, media, log.With().Str("component", "janitor").Logger())
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	janitor.Start(janitorCtx)
	defer func() {
		stopJanitor()
		janitor.Wait()
	}()

	e := api.NewRouter(api.Deps{
		Sessions:      service.NewSessionService(users, tokens, media, throttle, log),
		Accounts:      service.NewAccountService(users, media, janitor, log),
		Channels:      service.NewChannelService(mongodb.NewRelationshipRepository(db)),
		Authenticator: service.NewAuthGuard(users, tokens),
		HealthChecks:  checks,
		Log:           log,
		Development:   cfg.IsDevelopment(),
		Production:    cfg.IsProduction(),
		CORSOrigin:    cfg.CORSOrigin,
		AuthRate:      cfg.RateLimit.PerSecond,
		AuthBurst:     cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func redisCheck(rdb *goredis.Client) handler.Check {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}

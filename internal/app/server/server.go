package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultShutdownTime = 5 * time.Second
)

type App struct {
	env         *env.AppConfig
	Logger      *slog.Logger
	Metrics     *metrics.Store
	Services    *Services
	redisClient *redis.Client
	natsClient  *nats.Conn
}

// New builds the application. redisClient and natsClient are nil when the
// corresponding backend is not configured.
func New(config *env.AppConfig, logger *slog.Logger,
	promStore *metrics.Store, services *Services,
	redisClient *redis.Client, natsClient *nats.Conn,
) *App {
	return &App{
		env:         config,
		Logger:      logger,
		Metrics:     promStore,
		Services:    services,
		redisClient: redisClient,
		natsClient:  natsClient,
	}
}

// writeTimeout covers every forwarding attempt plus the longest backoff
// between them.
func writeTimeout(cfg *env.AppConfig) time.Duration {
	attempts := time.Duration(max(cfg.RpcMaxAttempts, 1))

	return cfg.RpcTimeout*attempts + rpc.MaxDelay*(attempts-1) + defaultReadTimeout
}

func (a *App) RunHTTPServer(ctx context.Context, g *errgroup.Group, appPort uint, router http.Handler) {
	// A sign request waits for the wallet daemon to build proofs.
	server := &http.Server{
		Addr:           fmt.Sprintf(`:%d`, appPort),
		Handler:        router,
		ReadTimeout:    defaultReadTimeout,
		WriteTimeout:   writeTimeout(a.env),
		IdleTimeout:    defaultIdleTimeout,
		MaxHeaderBytes: http.DefaultMaxHeaderBytes,
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTime)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})
}

package server

import (
	"context"
	"fmt"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piratenetwork/zsign/internal/http/handlers/health"
	"github.com/piratenetwork/zsign/internal/http/handlers/sign"
	"github.com/piratenetwork/zsign/internal/http/handlers/signed"
	"github.com/piratenetwork/zsign/internal/http/handlers/usage"
)

func (a *App) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/sign", sign.New(a.Logger, a.Services.Signing).Handler)
	r.Get("/signed/{id}", signed.New(a.Logger, a.Services.Store).Handler)
	r.Get("/usage", usage.New(a.Services.Table).Handler)

	a.registerOpsRoutes(r)
}

// RegisterWorkerRoutes exposes only health and metrics for the relay worker.
func (a *App) RegisterWorkerRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)

	a.registerOpsRoutes(r)
}

func (a *App) registerOpsRoutes(r chi.Router) {
	r.Get("/health", health.New(a.healthChecks()).Handler)
	r.Get("/metrics", promhttp.HandlerFor(a.Metrics.Prometheus, promhttp.HandlerOpts{}).ServeHTTP)

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.HandleFunc("/debug/pprof/{action}", pprof.Index)
}

func (a *App) healthChecks() map[string]health.Check {
	checks := make(map[string]health.Check)

	if a.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		}
	}

	if a.natsClient != nil {
		checks["nats"] = func(_ context.Context) error {
			if !a.natsClient.IsConnected() {
				return fmt.Errorf("nats status %s", a.natsClient.Status())
			}
			return nil
		}
	}

	return checks
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/piratenetwork/zsign/internal/app/server"
	"github.com/piratenetwork/zsign/internal/connectors/logger"
	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	nc "github.com/piratenetwork/zsign/internal/connectors/nats"
	rc "github.com/piratenetwork/zsign/internal/connectors/redis"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	cfg, envErr := env.Read("")
	if envErr != nil {
		fmt.Println("Read env error:", envErr.Error())
		return
	}

	log, sentryClient, logErr := logger.New(&cfg.AppConfig)
	if logErr != nil {
		fmt.Println("Logger error:", logErr.Error())
		return
	}
	if sentryClient != nil {
		defer sentryClient.Flush(2 * time.Second)
	}

	var redisClient *redis.Client
	if cfg.AppConfig.RedisAddress != "" {
		client, redisErr := rc.New(&cfg.AppConfig, log)
		if redisErr != nil {
			fmt.Println("Could not connect to redis error:", redisErr.Error())
			return
		}
		defer client.Close()
		redisClient = client
	}

	var (
		natsClient *nats.Conn
		js         jetstream.JetStream
	)
	if cfg.AppConfig.NatsDefaultURL != "" {
		conn, natsErr := nc.New(&cfg.AppConfig, log)
		if natsErr != nil {
			fmt.Println("Could not connect to nats error:", natsErr.Error())
			return
		}
		defer conn.Close()

		jetStream, jetStreamErr := jetstream.New(conn)
		if jetStreamErr != nil {
			fmt.Println("Could not connect to jetStream error:", jetStreamErr.Error())
			return
		}

		if _, streamErr := handoff.EnsureStream(ctx, jetStream, cfg.AppConfig.NatsStreamName); streamErr != nil {
			fmt.Println(streamErr.Error())
			return
		}

		natsClient = conn
		js = jetStream
	}

	log.Info(fmt.Sprintf(`started %s application`, cfg.AppConfig.Name))

	r := chi.NewRouter()
	promRegistry := prometheus.NewRegistry()
	metricsStore := metrics.New(promRegistry, cfg.AppConfig.MetricsPrefix, cfg.AppConfig.Name, cfg.AppConfig.Env)

	services := server.NewServices(&cfg.AppConfig, log, metricsStore, redisClient, js)
	app := server.New(&cfg.AppConfig, log, metricsStore, services, redisClient, natsClient)

	app.Metrics.BuildInfo.Inc()
	app.RegisterRoutes(r)

	app.RunHTTPServer(gCtx, g, cfg.AppConfig.Port, r)

	if err := g.Wait(); err != nil {
		log.Error(err.Error())
	}

	fmt.Println(`Main done`)
}

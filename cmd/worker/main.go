package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/piratenetwork/zsign/internal/app/server"
	"github.com/piratenetwork/zsign/internal/app/worker"
	"github.com/piratenetwork/zsign/internal/connectors/logger"
	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	nc "github.com/piratenetwork/zsign/internal/connectors/nats"
	rc "github.com/piratenetwork/zsign/internal/connectors/redis"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
)

// The relay worker runs on the online side. It mirrors signed payloads
// published by the service into redis, where the online wallet collects them.
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

	redisClient, redisErr := rc.New(&cfg.AppConfig, log)
	if redisErr != nil {
		fmt.Println("Could not connect to redis error:", redisErr.Error())
		return
	}
	defer redisClient.Close()

	natsClient, natsErr := nc.New(&cfg.AppConfig, log)
	if natsErr != nil {
		fmt.Println("Could not connect to nats error:", natsErr.Error())
		return
	}
	defer natsClient.Close()

	js, jetStreamErr := jetstream.New(natsClient)
	if jetStreamErr != nil {
		fmt.Println("Could not connect to jetStream error:", jetStreamErr.Error())
		return
	}

	stream, streamErr := handoff.EnsureStream(ctx, js, cfg.AppConfig.NatsStreamName)
	if streamErr != nil {
		fmt.Println(streamErr.Error())
		return
	}

	log.Info(fmt.Sprintf(`started %s worker`, cfg.AppConfig.Name))

	r := chi.NewRouter()
	promRegistry := prometheus.NewRegistry()
	metricsStore := metrics.New(promRegistry, cfg.AppConfig.MetricsPrefix, cfg.AppConfig.Name, cfg.AppConfig.Env)

	app := server.New(&cfg.AppConfig, log, metricsStore, nil, redisClient, natsClient)

	app.Metrics.BuildInfo.Inc()
	app.RegisterWorkerRoutes(r)

	relay := worker.NewWorker(
		handoff.Subject(cfg.AppConfig.NatsStreamName),
		stream, log, metricsStore,
		worker.WithSink(handoff.NewRedisStore(redisClient, cfg.AppConfig.Name, cfg.AppConfig.HandOffTTL), `SignedRelay`),
	)

	if wrkErr := relay.Run(gCtx, g); wrkErr != nil {
		fmt.Println("Could not start relay worker error:", wrkErr.Error())
		return
	}

	app.RunHTTPServer(gCtx, g, cfg.AppConfig.Port, r)

	if err := g.Wait(); err != nil {
		log.Error(err.Error())
	}

	fmt.Println(`Main done`)
}

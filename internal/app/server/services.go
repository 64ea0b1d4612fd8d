package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
	"github.com/piratenetwork/zsign/internal/pkg/signing"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

type Services struct {
	Table   *rpc.Table
	Store   handoff.Store
	Signing *signing.Usecase
}

// NewServices wires the signing pipeline. Signed payloads are kept in redis
// when a client is given and in process memory otherwise; with a JetStream
// handle they are also published for the relay worker.
func NewServices(cfg *env.AppConfig, log *slog.Logger, metricsStore *metrics.Store,
	redisClient *redis.Client, js jetstream.JetStream,
) *Services {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.RpcTimeout,
	}

	var opts []rpc.RemoteOption
	if cfg.RpcRateLimit > 0 {
		opts = append(opts, rpc.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.RpcRateLimit), 1)))
	}

	remote := rpc.NewRemote(cfg.RpcURL, cfg.RpcUser, cfg.RpcPassword, httpClient, metricsStore, cfg.RpcMaxAttempts, opts...)

	table := rpc.NewTable()
	table.Register(zsign.CommandSignOffline, remote.Forward(zsign.CommandSignOffline))

	var store handoff.Store
	if redisClient != nil {
		store = handoff.NewRedisStore(redisClient, cfg.Name, cfg.HandOffTTL)
	} else {
		store = handoff.NewMemoryStore(cfg.HandOffCacheSize, cfg.HandOffTTL)
	}

	sinks := []handoff.Sink{store}
	if js != nil {
		sinks = append(sinks, handoff.NewJetStreamSink(js, cfg.NatsStreamName))
	}

	return &Services{
		Table:   table,
		Store:   store,
		Signing: signing.New(log, metricsStore, table, zsign.SchemaFor, sinks...),
	}
}

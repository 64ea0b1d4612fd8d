package nats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/piratenetwork/zsign/internal/env"
)

var (
	natsClient        *nats.Conn
	onceDefaultClient sync.Once
)

func New(cfg *env.AppConfig, log *slog.Logger) (*nats.Conn, error) {
	var err error

	onceDefaultClient.Do(func() {
		natsClient, err = nats.Connect(cfg.NatsDefaultURL,
			nats.Name(cfg.Name),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, disconnectErr error) {
				log.Warn("nats: disconnected", slog.Any("error", disconnectErr))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("nats: reconnected", slog.String("url", nc.ConnectedUrl()))
			}),
			nats.ClosedHandler(func(_ *nats.Conn) {
				log.Info("nats: connection closed")
			}))
	})

	return natsClient, err
}

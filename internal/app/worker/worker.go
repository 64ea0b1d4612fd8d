package worker

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
)

var errMissingID = errors.New("signed payload without id")

// message is the part of jetstream.Msg the relay needs.
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

type target struct {
	consumerName string
	sink         handoff.Sink
}

// worker relays signed payloads published by the offline signer to sinks on
// the online side.
type worker struct {
	filterSubject string

	stream  jetstream.Stream
	log     *slog.Logger
	metrics *metrics.Store

	targets []target
}

type WorkerOptions func(worker *worker)

func WithSink(sink handoff.Sink, consumerName string) WorkerOptions {
	return func(w *worker) {
		w.targets = append(w.targets, target{
			consumerName: consumerName,
			sink:         sink,
		})
	}
}

func NewWorker(
	filterSubject string,

	stream jetstream.Stream,
	log *slog.Logger,
	metricsStore *metrics.Store,

	options ...WorkerOptions,
) *worker {
	w := &worker{
		filterSubject: filterSubject,
		stream:        stream,
		log:           log,
		metrics:       metricsStore,
	}

	for _, option := range options {
		option(w)
	}

	return w
}

func (w *worker) Run(ctx context.Context, g *errgroup.Group) error {
	connections := make([]jetstream.ConsumeContext, 0, len(w.targets))
	for _, t := range w.targets {
		con, err := w.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
			Durable:        t.consumerName,
			AckPolicy:      jetstream.AckExplicitPolicy,
			MaxAckPending:  1,
			FilterSubjects: []string{w.filterSubject},
			DeliverPolicy:  jetstream.DeliverNewPolicy,
		})
		if err != nil {
			return err
		}

		sink := t.sink
		conCtx, consumeErr := con.Consume(func(msg jetstream.Msg) {
			w.handle(ctx, sink, msg)
		})
		if consumeErr != nil {
			return consumeErr
		}

		connections = append(connections, conCtx)
	}

	g.Go(func() error {
		<-ctx.Done()
		for _, conCtx := range connections {
			conCtx.Stop()
		}
		return nil
	})

	return nil
}

func (w *worker) handle(ctx context.Context, sink handoff.Sink, msg message) {
	payload, err := handoff.Decode(msg.Data())
	if err == nil && payload.ID == "" {
		err = errMissingID
	}
	if err != nil {
		w.log.Error("Broken signed payload", slog.Any("error", err))
		w.metrics.HandOffs.With(prometheus.Labels{metrics.Target: sink.Name(), metrics.Status: metrics.StatusFail}).Inc()
		w.terminateMessage(msg)
		return
	}

	if err = sink.Deliver(ctx, payload); err != nil {
		w.log.Error("Could not relay signed payload", slog.String("id", payload.ID), slog.String("target", sink.Name()), slog.Any("error", err))
		w.metrics.HandOffs.With(prometheus.Labels{metrics.Target: sink.Name(), metrics.Status: metrics.StatusFail}).Inc()
		w.nackMessage(msg)
		return
	}

	w.metrics.HandOffs.With(prometheus.Labels{metrics.Target: sink.Name(), metrics.Status: metrics.StatusOk}).Inc()
	w.ackMessage(msg)
}

func (w *worker) terminateMessage(msg message) {
	if termErr := msg.Term(); termErr != nil {
		w.log.Error("Could not term msg", slog.Any("error", termErr))
	}
}

func (w *worker) nackMessage(msg message) {
	if nackErr := msg.Nak(); nackErr != nil {
		w.log.Error("Could not nack msg", slog.Any("error", nackErr))
	}
}

func (w *worker) ackMessage(msg message) {
	if ackErr := msg.Ack(); ackErr != nil {
		w.log.Error("Could not ack msg", slog.Any("error", ackErr))
	}
}

package signing

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

// Outcome of a single sign action. Changed is false when the display must
// be left as it is. ID is set once the signed payload was handed off.
type Outcome struct {
	Display zsign.Display
	Changed bool
	Kind    zsign.Kind
	ID      string
}

type Usecase struct {
	log        *slog.Logger
	metrics    *metrics.Store
	dispatcher rpc.Dispatcher
	schemaFor  zsign.SchemaFunc
	sinks      []handoff.Sink
}

func New(log *slog.Logger, metricsStore *metrics.Store, dispatcher rpc.Dispatcher, schemaFor zsign.SchemaFunc, sinks ...handoff.Sink) *Usecase {
	return &Usecase{
		log:        log,
		metrics:    metricsStore,
		dispatcher: dispatcher,
		schemaFor:  schemaFor,
		sinks:      sinks,
	}
}

func (u *Usecase) Sign(ctx context.Context, raw string) Outcome {
	display, err := zsign.ParseAndDispatch(ctx, raw, u.dispatcher, u.schemaFor)
	kind := zsign.KindOf(err)

	u.metrics.SignRequests.With(prometheus.Labels{metrics.Kind: kind.String()}).Inc()

	switch kind {
	case zsign.KindNone, zsign.KindEmptyInput:
	case zsign.KindSchemaMismatch, zsign.KindParameterConversion:
		u.log.Warn("Could not parse command", slog.String("kind", kind.String()), slog.Any("error", err))
	case zsign.KindRemoteError, zsign.KindEmptyResult, zsign.KindUnexpectedResult:
		u.log.Warn("Transaction signing failed", slog.String("kind", kind.String()), slog.Any("error", err))
	default:
		u.log.Error("Transaction signing failed", slog.String("kind", kind.String()), slog.Any("error", err))
	}

	rendered, changed := zsign.Render(display, err)
	outcome := Outcome{
		Display: rendered,
		Changed: changed,
		Kind:    kind,
	}

	if kind == zsign.KindNone {
		outcome.ID = u.handOff(ctx, display.Text)
	}

	return outcome
}

func (u *Usecase) handOff(ctx context.Context, signed string) string {
	if len(u.sinks) == 0 {
		return ""
	}

	payload := handoff.NewSignedPayload(signed)

	delivered := 0
	for _, sink := range u.sinks {
		if err := handoff.Deliver(ctx, payload, sink); err != nil {
			u.log.Error("Could not hand off signed transaction", slog.String("target", sink.Name()), slog.Any("error", err))
			u.metrics.HandOffs.With(prometheus.Labels{metrics.Target: sink.Name(), metrics.Status: metrics.StatusFail}).Inc()
			continue
		}

		delivered++
		u.metrics.HandOffs.With(prometheus.Labels{metrics.Target: sink.Name(), metrics.Status: metrics.StatusOk}).Inc()
	}

	if delivered == 0 {
		return ""
	}

	u.log.Info("Signed transaction handed off", slog.String("id", payload.ID), slog.Int("targets", delivered))

	return payload.ID
}

package signing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

const command = `z_sign_offline arrr 1 "zs1sender" '[{"witnessposition":1}]' '[{"address":"zs1recipient","amount":1.5,"memo":"00"}]' 1 0.0001 2301567 3925833126 "0aabbcc" 1 2301607 2301567109 4 1 123456`

type brokenSink struct{}

func (brokenSink) Deliver(context.Context, *handoff.SignedPayload) error {
	return errors.New("nats: no responders available for request")
}

func (brokenSink) Name() string {
	return "jetstream"
}

func newUsecase(t *testing.T, result any, resultErr error, sinks ...handoff.Sink) (*Usecase, *prometheus.Registry, *bytes.Buffer) {
	t.Helper()

	table := rpc.NewTable()
	table.Register(zsign.CommandSignOffline, func(context.Context, []any) (any, error) {
		return result, resultErr
	})

	registry := prometheus.NewRegistry()
	logs := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(logs, nil))

	return New(log, metrics.New(registry, "zsign_test", "zsign", "test"), table, zsign.SchemaFor, sinks...), registry, logs
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func TestUsecase_Sign(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		result      any
		resultErr   error
		wantKind    zsign.Kind
		wantChanged bool
		wantText    string
		wantLog     string
	}{
		{
			name:        "signed",
			raw:         command,
			result:      []any{"sendrawtransaction 0400008085202f89"},
			wantKind:    zsign.KindNone,
			wantChanged: true,
			wantText:    "sendrawtransaction 0400008085202f89",
		},
		{
			name:        "empty input",
			raw:         " \n ",
			wantKind:    zsign.KindEmptyInput,
			wantChanged: false,
		},
		{
			name:        "help on mismatch",
			raw:         "z_sendmany arrr 1",
			wantKind:    zsign.KindSchemaMismatch,
			wantChanged: true,
			wantText:    zsign.Usage(),
			wantLog:     "Could not parse command",
		},
		{
			name:        "remote error",
			raw:         command,
			resultErr:   &rpc.Error{Code: rpc.CodeMisc, Message: "bad witness"},
			wantKind:    zsign.KindRemoteError,
			wantChanged: true,
			wantText:    "Transaction signing failed: bad witness\n",
			wantLog:     "level=WARN",
		},
		{
			name:        "unknown failure",
			raw:         command,
			resultErr:   errors.New("connection reset by peer"),
			wantKind:    zsign.KindUnknownFailure,
			wantChanged: true,
			wantText:    zsign.MsgUnparseable,
			wantLog:     "level=ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, registry, logs := newUsecase(t, tt.result, tt.resultErr)

			got := u.Sign(context.Background(), tt.raw)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
			if got.Display.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Display.Text, tt.wantText)
			}
			if got.ID != "" {
				t.Errorf("ID = %q without sinks", got.ID)
			}
			if tt.wantLog != "" && !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("log %q missing %q", logs.String(), tt.wantLog)
			}

			if v := counterValue(t, registry, "zsign_test_sign_requests_total", map[string]string{metrics.Kind: tt.wantKind.String()}); v != 1 {
				t.Errorf("sign_requests_total{kind=%s} = %v, want 1", tt.wantKind, v)
			}
		})
	}
}

func TestUsecase_HandOff(t *testing.T) {
	store := handoff.NewMemoryStore(8, time.Minute)
	u, registry, logs := newUsecase(t, []any{"sendrawtransaction 00"}, nil, store, brokenSink{})

	got := u.Sign(context.Background(), command)
	if got.Kind != zsign.KindNone {
		t.Fatalf("Kind = %s, want %s", got.Kind, zsign.KindNone)
	}
	if got.Display.Heading != zsign.HeadingSigned {
		t.Errorf("Heading = %q", got.Display.Heading)
	}
	if got.ID == "" {
		t.Fatalf("ID is empty although the memory store accepted the payload")
	}

	stored, err := store.Get(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Payload != "sendrawtransaction 00" {
		t.Errorf("Payload = %q", stored.Payload)
	}

	if !strings.Contains(logs.String(), "Could not hand off signed transaction") {
		t.Errorf("broken sink was not logged: %s", logs.String())
	}

	ok := counterValue(t, registry, "zsign_test_handoff_total", map[string]string{metrics.Target: store.Name(), metrics.Status: metrics.StatusOk})
	fail := counterValue(t, registry, "zsign_test_handoff_total", map[string]string{metrics.Target: "jetstream", metrics.Status: metrics.StatusFail})
	if ok != 1 || fail != 1 {
		t.Errorf("handoff_total ok = %v, fail = %v, want 1 and 1", ok, fail)
	}
}

func TestUsecase_HandOffAllFailed(t *testing.T) {
	u, _, _ := newUsecase(t, []any{"sendrawtransaction 00"}, nil, brokenSink{})

	got := u.Sign(context.Background(), command)
	if got.Kind != zsign.KindNone || !got.Changed {
		t.Fatalf("Sign() = %+v, want a signed display", got)
	}
	if got.ID != "" {
		t.Errorf("ID = %q, want none when no sink accepted the payload", got.ID)
	}
}

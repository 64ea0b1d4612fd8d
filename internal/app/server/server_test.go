package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/env"
	"github.com/piratenetwork/zsign/internal/http/handlers/sign"
	"github.com/piratenetwork/zsign/internal/pkg/handoff"
	"github.com/piratenetwork/zsign/internal/pkg/rpc"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

const command = `z_sign_offline arrr 1 \"zs1sender\" '[{"witnessposition":1}]' '[{"address":"zs1recipient","amount":1.5,"memo":"00"}]' 1 0.0001 2301567 3925833126 \"0aabbcc\" 1 2301607 2301567109 4 1 123456`

func newTestApp(t *testing.T, daemonBody string) http.Handler {
	t.Helper()

	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != zsign.CommandSignOffline || len(req.Params) != 16 {
			t.Errorf("unexpected daemon request %+v: %v", req, err)
		}
		_, _ = w.Write([]byte(daemonBody))
	}))
	t.Cleanup(daemon.Close)

	cfg := &env.AppConfig{
		Name:             "zsign",
		RpcURL:           daemon.URL,
		RpcTimeout:       5 * time.Second,
		RpcMaxAttempts:   1,
		NatsStreamName:   "ZSIGN",
		HandOffTTL:       time.Minute,
		HandOffCacheSize: 8,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metricsStore := metrics.New(prometheus.NewRegistry(), "zsign_test", cfg.Name, "test")

	app := New(cfg, log, metricsStore, NewServices(cfg, log, metricsStore, nil, nil), nil, nil)

	r := chi.NewRouter()
	app.RegisterRoutes(r)

	return r
}

func TestSignAndCollect(t *testing.T) {
	r := newTestApp(t, `{"result":["sendrawtransaction 0400008085"],"error":null,"id":"1"}`)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign", strings.NewReader(command)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /sign status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sign.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("could not decode sign response: %v", err)
	}
	if resp.Status != "signed" || resp.Heading != zsign.HeadingSigned || resp.Result != "sendrawtransaction 0400008085" || resp.ID == "" {
		t.Fatalf("sign response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signed/"+resp.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /signed status = %d", rec.Code)
	}

	var payload handoff.SignedPayload
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("could not decode signed payload: %v", err)
	}
	if payload.Payload != resp.Result {
		t.Errorf("payload = %q, want %q", payload.Payload, resp.Result)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `zsign_test_sign_requests_total{kind="signed"} 1`) {
		t.Errorf("metrics do not count the signed request:\n%s", rec.Body.String())
	}
}

func TestSign_RemoteError(t *testing.T) {
	r := newTestApp(t, `{"result":null,"error":{"code":-1,"message":"bad witness"},"id":"1"}`)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sign", strings.NewReader(command)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("POST /sign status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp sign.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("could not decode sign response: %v", err)
	}
	if resp.Result != "Transaction signing failed: bad witness\n" || resp.ID != "" {
		t.Errorf("sign response = %+v", resp)
	}
}

func TestOpsRoutes(t *testing.T) {
	r := newTestApp(t, `{}`)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/usage", wantStatus: http.StatusOK, wantBody: "Registered procedures:\n  z_sign_offline\n"},
		{path: "/health", wantStatus: http.StatusOK, wantBody: "{}"},
		{path: "/signed/unknown", wantStatus: http.StatusNotFound, wantBody: handoff.ErrNotFound.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestWriteTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		attempts uint
		want     time.Duration
	}{
		{name: "zero attempts counts as one", timeout: time.Minute, attempts: 0, want: time.Minute + defaultReadTimeout},
		{name: "single attempt", timeout: time.Minute, attempts: 1, want: time.Minute + defaultReadTimeout},
		{name: "retries", timeout: time.Minute, attempts: 3, want: 3*time.Minute + 2*rpc.MaxDelay + defaultReadTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := writeTimeout(&env.AppConfig{RpcTimeout: tt.timeout, RpcMaxAttempts: tt.attempts})
			if got != tt.want {
				t.Errorf("writeTimeout() = %s, want %s", got, tt.want)
			}
		})
	}
}

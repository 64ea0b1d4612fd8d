package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/pkg/rpc/entity"
)

func newMetrics() *metrics.Store {
	return metrics.New(prometheus.NewRegistry(), "zsign_test", "zsign", "test")
}

func daemon(t *testing.T, status int, body string, seen *entity.RpcRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != "rpcuser" || password != "rpcpassword" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("could not decode request: %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRemote_Call(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    any
		wantErr error
	}{
		{
			name:   "signed",
			status: http.StatusOK,
			body:   `{"result":["sendrawtransaction 0400"],"error":null,"id":"1"}`,
			want:   []any{"sendrawtransaction 0400"},
		},
		{
			name:   "null result",
			status: http.StatusOK,
			body:   `{"result":null,"error":null,"id":"1"}`,
			want:   nil,
		},
		{
			name:   "number keeps precision",
			status: http.StatusOK,
			body:   `{"result":2301567109,"error":null,"id":"1"}`,
			want:   json.Number("2301567109"),
		},
		{
			name:    "rpc error",
			status:  http.StatusInternalServerError,
			body:    `{"result":null,"error":{"code":-8,"message":"bad witness"},"id":"1"}`,
			wantErr: &Error{Code: -8, Message: "bad witness"},
		},
		{
			name:    "rpc error without message",
			status:  http.StatusInternalServerError,
			body:    `{"result":null,"error":{"code":-8},"id":"1"}`,
			wantErr: &MalformedError{Raw: json.RawMessage(`{"code":-8}`)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen entity.RpcRequest
			srv := daemon(t, tt.status, tt.body, &seen)
			r := NewRemote(srv.URL, "rpcuser", "rpcpassword", srv.Client(), newMetrics(), 1)

			got, err := r.Call(context.Background(), "z_sign_offline", []any{"arrr", json.Number("1")})
			if tt.wantErr != nil {
				if !reflect.DeepEqual(err, tt.wantErr) {
					t.Errorf("Call() error = %#v, want %#v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Call() = %#v, want %#v", got, tt.want)
			}

			if seen.Method != "z_sign_offline" || seen.JsonRpc != jsonRpcVersion || seen.ID == "" {
				t.Errorf("unexpected request %+v", seen)
			}
			if len(seen.Params) != 2 || seen.Params[0] != "arrr" {
				t.Errorf("unexpected params %#v", seen.Params)
			}
		})
	}
}

func TestRemote_Unauthorized(t *testing.T) {
	srv := daemon(t, http.StatusOK, `{}`, nil)
	r := NewRemote(srv.URL, "rpcuser", "wrong", srv.Client(), newMetrics(), 3)

	_, err := r.Call(context.Background(), "z_sign_offline", nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Call() error = %v, want %v", err, ErrUnauthorized)
	}
}

func TestRemote_RetriesTransportFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			return
		}
		_, _ = w.Write([]byte(`{"result":["sendrawtransaction 00"],"error":null,"id":"1"}`))
	}))
	t.Cleanup(srv.Close)

	r := NewRemote(srv.URL, "", "", srv.Client(), newMetrics(), 3)

	got, err := r.Call(context.Background(), "z_sign_offline", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !reflect.DeepEqual(got, []any{"sendrawtransaction 00"}) {
		t.Errorf("Call() = %#v", got)
	}
	if hits.Load() != 3 {
		t.Errorf("daemon hit %d times, want 3", hits.Load())
	}
}

func TestRemote_DoesNotRetryRpcErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"result":null,"error":{"code":-1,"message":"bad witness"},"id":"1"}`))
	}))
	t.Cleanup(srv.Close)

	r := NewRemote(srv.URL, "", "", srv.Client(), newMetrics(), 5)

	_, err := r.Call(context.Background(), "z_sign_offline", nil)

	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("Call() error = %v, want *Error", err)
	}
	if hits.Load() != 1 {
		t.Errorf("daemon hit %d times, want 1", hits.Load())
	}
}

func TestRemote_Forward(t *testing.T) {
	srv := daemon(t, http.StatusOK, `{"result":["sendrawtransaction ff"],"error":null,"id":"1"}`, nil)
	r := NewRemote(srv.URL, "rpcuser", "rpcpassword", srv.Client(), newMetrics(), 1)

	table := NewTable()
	table.Register("z_sign_offline", r.Forward("z_sign_offline"))

	got, err := table.Execute(context.Background(), "z_sign_offline", []any{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !reflect.DeepEqual(got, []any{"sendrawtransaction ff"}) {
		t.Errorf("Execute() = %#v", got)
	}
}

func TestRemote_RateLimit(t *testing.T) {
	srv := daemon(t, http.StatusOK, `{"result":["sendrawtransaction 00"],"error":null,"id":"1"}`, nil)
	r := NewRemote(srv.URL, "rpcuser", "rpcpassword", srv.Client(), newMetrics(), 1,
		WithRateLimit(rate.NewLimiter(rate.Every(time.Hour), 1)))

	if _, err := r.Call(context.Background(), "z_sign_offline", nil); err != nil {
		t.Fatalf("first Call() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := r.Call(ctx, "z_sign_offline", nil); err == nil {
		t.Errorf("second Call() within the limit window succeeded")
	}
}

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/piratenetwork/zsign/internal/connectors/metrics"
	"github.com/piratenetwork/zsign/internal/pkg/rpc/entity"
)

// Remote calls procedures on a wallet daemon over JSON-RPC.
type Remote struct {
	url         string
	user        string
	password    string
	httpClient  *http.Client
	metrics     *metrics.Store
	maxAttempts uint
	limiter     *rate.Limiter
}

type RemoteOption func(r *Remote)

// WithRateLimit makes every Call wait for limiter before the first attempt.
func WithRateLimit(limiter *rate.Limiter) RemoteOption {
	return func(r *Remote) {
		r.limiter = limiter
	}
}

var ErrUnauthorized = errors.New("wallet daemon rejected credentials")

const RetryDelay = 75 * time.Millisecond
const MaxDelay = 5 * time.Second

const jsonRpcVersion = "1.0"

func NewRemote(url, user, password string, httpClient *http.Client, metricsStore *metrics.Store, maxAttempts uint, opts ...RemoteOption) *Remote {
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	r := &Remote{
		url:         url,
		user:        user,
		password:    password,
		httpClient:  httpClient,
		metrics:     metricsStore,
		maxAttempts: maxAttempts,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Forward returns a table handler that proxies method to the daemon.
func (r *Remote) Forward(method string) Handler {
	return func(ctx context.Context, params []any) (any, error) {
		return r.Call(ctx, method, params)
	}
}

// Call sends one request. Only transport failures are retried; an answer
// carrying an RPC error is returned as is.
func (r *Remote) Call(ctx context.Context, method string, params []any) (any, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.metrics.RpcCalls.With(prometheus.Labels{metrics.Method: method, metrics.Status: metrics.StatusFail}).Inc()
			return nil, fmt.Errorf("rate limited: %w", err)
		}
	}

	result, err := retry.DoWithData(
		func() (any, error) {
			return r.do(ctx, method, params)
		},
		retry.Attempts(r.maxAttempts),
		retry.Delay(RetryDelay),
		retry.MaxDelay(MaxDelay),
		retry.DelayType(retry.CombineDelay(
			retry.BackOffDelay,
			retry.RandomDelay,
		)),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	status := metrics.StatusOk
	if err != nil {
		status = metrics.StatusFail
	}
	r.metrics.RpcCalls.With(prometheus.Labels{metrics.Method: method, metrics.Status: status}).Inc()

	return result, err
}

func isTransient(err error) bool {
	var rpcErr *Error
	var malformed *MalformedError

	switch {
	case errors.As(err, &rpcErr), errors.As(err, &malformed):
		return false
	case errors.Is(err, ErrUnauthorized), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	return true
}

func (r *Remote) do(ctx context.Context, method string, params []any) (any, error) {
	if params == nil {
		params = []any{}
	}

	rpcRequest := entity.RpcRequest{
		JsonRpc: jsonRpcVersion,
		Method:  method,
		Params:  params,
		ID:      uuid.New().String(),
	}

	payload, marshalErr := json.Marshal(rpcRequest)
	if marshalErr != nil {
		return nil, marshalErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.user != "" || r.password != "" {
		req.SetBasicAuth(r.user, r.password)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		resp.Body.Close()
		r.metrics.SummaryHandlers.With(prometheus.Labels{metrics.Channel: method}).Observe(time.Since(start).Seconds())
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var p entity.RpcResponse
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("could not unmarshal response (%s): %w", resp.Status, err)
	}

	if !IsNull(p.Error) {
		return nil, DecodeError(p.Error)
	}

	if IsNull(p.Result) {
		return nil, nil
	}

	return decodeValue(p.Result)
}

func decodeValue(raw json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("could not decode result: %w", err)
	}

	return value, nil
}

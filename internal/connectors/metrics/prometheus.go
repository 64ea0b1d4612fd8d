package metrics

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Store struct {
	Prometheus      *prometheus.Registry
	BuildInfo       prometheus.Counter
	SignRequests    *prometheus.CounterVec
	RpcCalls        *prometheus.CounterVec
	HandOffs        *prometheus.CounterVec
	SummaryHandlers *prometheus.HistogramVec
}

const Status = `status`
const Channel = `channel`
const Kind = `kind`
const Method = `method`
const Target = `target`

const StatusOk = `Ok`
const StatusFail = `Fail`

var Commit string

func New(promRegistry *prometheus.Registry, prefix, appName, env string) *Store {
	factory := promauto.With(promRegistry)

	return &Store{
		Prometheus: promRegistry,
		BuildInfo: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_metric_build_info", prefix),
			Help: "Build information",
			ConstLabels: prometheus.Labels{
				"name":    appName,
				"env":     env,
				"commit":  Commit,
				"version": runtime.Version(),
			},
		}),
		SignRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_sign_requests_total", prefix),
			Help: "The total number of sign attempts by outcome kind",
		}, []string{Kind}),
		RpcCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_rpc_calls_total", prefix),
			Help: "The total number of calls to the wallet daemon",
		}, []string{Method, Status}),
		HandOffs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_handoff_total", prefix),
			Help: "The total number of signed payloads handed off to the online side",
		}, []string{Target, Status}),
		SummaryHandlers: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_request_processing_seconds", prefix),
			Help:    "Time spent processing request to the wallet daemon",
			Buckets: prometheus.DefBuckets,
		}, []string{Channel}),
	}
}

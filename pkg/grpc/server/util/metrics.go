package util

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the RED metrics of the RPC handlers.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	rejectsRL prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "psm_rpc_requests_total",
			Help: "Total number of RPC requests",
		}, []string{"procedure", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "psm_rpc_request_duration_seconds",
			Help:    "RPC request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "psm_rpc_requests_in_flight",
			Help: "Current number of RPC requests being processed",
		}),
		rejectsRL: f.NewCounter(prometheus.CounterOpts{
			Name: "psm_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) rateLimited() {
	if m != nil {
		m.rejectsRL.Inc()
	}
}

// Interceptor records every handled unary call.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}
			start := time.Now()
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			res, err := next(ctx, req)
			procedure := req.Spec().Procedure
			m.requests.WithLabelValues(procedure, codeOf(err)).Inc()
			m.duration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return res, err
		})
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

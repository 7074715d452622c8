package searchads

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "searchads_client"

// metrics holds the optional Prometheus collectors of a Client.
// A nil *metrics records nothing.
type metrics struct {
	requests       *prometheus.CounterVec
	retries        prometheus.Counter
	tokenRefreshes *prometheus.CounterVec
	rateLimitWait  prometheus.Histogram
}

// newMetrics registers the client collectors with reg. Collectors already
// registered by another client on the same registerer are shared.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "API requests sent, by HTTP status code (0 for transport failures).",
		}, []string{"code"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "retries_total",
			Help:      "Request attempts retried after a transport failure.",
		}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refreshes_total",
			Help:      "Access token exchanges, by result.",
		}, []string{"result"}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time requests spent blocked by the client-side rate limiter.",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	if m.tokenRefreshes, err = register(reg, m.tokenRefreshes); err != nil {
		return nil, err
	}
	if m.rateLimitWait, err = register(reg, m.rateLimitWait); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, returning the existing collector when an identical
// one is already registered
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *metrics) request(code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *metrics) retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *metrics) tokenRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

func (m *metrics) waited(d time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitWait.Observe(d.Seconds())
}

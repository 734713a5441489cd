package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bbernstein/busschema/internal/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the proxy metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	Requests        *prometheus.CounterVec   // endpoint, status
	RequestDuration *prometheus.HistogramVec // endpoint
	TokenFetches    *prometheus.CounterVec   // result
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busschema_requests_total",
			Help: "Proxy requests by endpoint and response status.",
		}, []string{"endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "busschema_request_duration_seconds",
			Help:    "Time spent answering a proxy request, including the upstream call.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"endpoint"}),
		TokenFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busschema_token_fetches_total",
			Help: "Client-credentials exchanges by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.Requests, c.RequestDuration, c.TokenFetches)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (c *Collector) observeToken(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.TokenFetches.WithLabelValues(result).Inc()
}

type instrumentedTokens struct {
	next      auth.TokenProvider
	collector *Collector
}

// InstrumentTokens wraps a token provider so every exchange is counted.
func InstrumentTokens(next auth.TokenProvider, c *Collector) auth.TokenProvider {
	if c == nil {
		return next
	}
	return &instrumentedTokens{next: next, collector: c}
}

func (p *instrumentedTokens) FetchToken(ctx context.Context) (string, error) {
	token, err := p.next.FetchToken(ctx)
	p.collector.observeToken(err)
	return token, err
}

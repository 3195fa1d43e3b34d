package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/bumper/pkg/observability"
)

const namespace = "bumper"

// Metrics implements the observability hooks on top of Prometheus
// collectors. Register it with [Metrics.Install] so the checker, the
// registry client and the cache report into it.
type Metrics struct {
	checks         *prometheus.CounterVec
	checksInFlight prometheus.Gauge
	checkDuration  *prometheus.HistogramVec
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	updates        prometheus.Counter

	cacheRequests *prometheus.CounterVec
	cacheBytes    prometheus.Counter

	registryRequests *prometheus.CounterVec
	registryDuration *prometheus.HistogramVec
	registryErrors   *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Section checks by section and outcome",
		}, []string{"section", "outcome"}),

		checksInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_in_flight",
			Help:      "Section checks currently running",
		}),

		checkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time to check one manifest section",
			Buckets:   prometheus.DefBuckets,
		}, []string{"section"}),

		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Latest-version lookups by outcome",
		}, []string{"outcome"}),

		lookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Latest-version lookup duration, cache hits included",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		updates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_updates_total",
			Help:      "Version values rewritten in patched manifests",
		}),

		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Response cache reads by key type and result",
		}, []string{"type", "result"}),

		cacheBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the response cache",
		}),

		registryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Registry HTTP responses by host and status code",
		}, []string{"host", "code"}),

		registryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Registry HTTP round-trip time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),

		registryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_errors_total",
			Help:      "Registry requests that failed before a response",
		}, []string{"host"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code",
		}, []string{"route", "code"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Install registers m as the process-wide fetch, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetFetchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnCheckStart implements observability.FetchHooks.
func (m *Metrics) OnCheckStart(_ context.Context, _ string, _ int) {
	m.checksInFlight.Inc()
}

// OnCheckComplete implements observability.FetchHooks.
func (m *Metrics) OnCheckComplete(_ context.Context, section string, _ int, d time.Duration, err error) {
	m.checksInFlight.Dec()
	m.checks.WithLabelValues(section, outcome(err)).Inc()
	m.checkDuration.WithLabelValues(section).Observe(d.Seconds())
}

// OnLookup implements observability.FetchHooks.
func (m *Metrics) OnLookup(_ context.Context, _ string, d time.Duration, err error) {
	m.lookups.WithLabelValues(outcome(err)).Inc()
	m.lookupDuration.Observe(d.Seconds())
}

// OnApply implements observability.FetchHooks.
func (m *Metrics) OnApply(_ context.Context, updated int, err error) {
	if err == nil {
		m.updates.Add(float64(updated))
	}
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, _ string, size int) {
	m.cacheBytes.Add(float64(size))
}

// OnRequest implements observability.HTTPHooks. Requests are counted when
// their response or error arrives.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.registryRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	m.registryDuration.WithLabelValues(host).Observe(d.Seconds())
}

// OnError implements observability.HTTPHooks.
func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.registryErrors.WithLabelValues(host).Inc()
}

var (
	_ observability.FetchHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)

// Package metrics exposes the service's Prometheus instruments as package
// variables so call sites stay one-liners.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshCycles counts refresh loop cycles by result (ok/error).
	RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flusso_refresh_cycles_total",
		Help: "Refresh cycles run, by result",
	}, []string{"result"})

	// RefreshDuration observes full refresh cycle durations.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flusso_refresh_duration_seconds",
		Help:    "Duration of refresh cycles",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// ChannelsPublished is the size of the current snapshot.
	ChannelsPublished = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flusso_channels_published",
		Help: "Channels in the published snapshot",
	})

	// Exclusions counts channels dropped during compilation, by reason.
	Exclusions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flusso_exclusions_total",
		Help: "Channels excluded during compilation, by reason",
	}, []string{"reason"})

	// SignatureRefreshes counts upstream signature calls by result.
	SignatureRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flusso_signature_refreshes_total",
		Help: "Upstream signature refresh calls, by result",
	}, []string{"result"})

	// Resolves counts stream resolutions by result
	// (resolved/cached/degraded/passthrough).
	Resolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flusso_resolves_total",
		Help: "Stream URL resolutions, by result",
	}, []string{"result"})

	// ResolveDuration observes upstream resolve call durations.
	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flusso_resolve_duration_seconds",
		Help:    "Duration of upstream resolve calls",
		Buckets: prometheus.DefBuckets,
	})

	// CatalogPages counts catalog pages fetched from the upstream.
	CatalogPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flusso_catalog_pages_total",
		Help: "Catalog pages fetched from the upstream",
	})
)

// RecordRefresh records one refresh cycle.
func RecordRefresh(result string, took time.Duration) {
	RefreshCycles.WithLabelValues(result).Inc()
	RefreshDuration.Observe(took.Seconds())
}

// SetChannelsPublished updates the published channel gauge.
func SetChannelsPublished(n int) {
	ChannelsPublished.Set(float64(n))
}

// RecordExclusions adds n exclusions for reason.
func RecordExclusions(reason string, n int) {
	if n > 0 {
		Exclusions.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordSignatureRefresh records one signature refresh attempt.
func RecordSignatureRefresh(result string) {
	SignatureRefreshes.WithLabelValues(result).Inc()
}

// RecordResolve records one resolution outcome. took <= 0 means no
// upstream call was made and only the counter moves.
func RecordResolve(result string, took time.Duration) {
	Resolves.WithLabelValues(result).Inc()
	if took > 0 {
		ResolveDuration.Observe(took.Seconds())
	}
}

// RecordCatalogPage counts one fetched catalog page.
func RecordCatalogPage() {
	CatalogPages.Inc()
}

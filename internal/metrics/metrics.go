package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vankino_source_fetches_total",
			Help: "Total number of venue source fetches",
		},
		[]string{"source", "status"},
	)

	sourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vankino_source_fetch_duration_seconds",
			Help:    "Venue source fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"source"},
	)

	sourceEventsReturned = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vankino_source_events",
			Help: "Events returned by the last fetch of each source",
		},
		[]string{"source"},
	)

	listingCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vankino_listing_cache_total",
			Help: "Listing cache lookups by result",
		},
		[]string{"result"},
	)

	hypeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vankino_hype_operations_total",
			Help: "Hype counter operations by backend",
		},
		[]string{"operation", "backend"},
	)
)

// RecordSourceFetch records one source call within an aggregation round.
func RecordSourceFetch(source string, events int, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	sourceFetchesTotal.WithLabelValues(source, status).Inc()
	sourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	sourceEventsReturned.WithLabelValues(source).Set(float64(events))
}

func RecordCacheHit() {
	listingCacheTotal.WithLabelValues("hit").Inc()
}

func RecordCacheMiss() {
	listingCacheTotal.WithLabelValues("miss").Inc()
}

func RecordHypeOperation(operation, backend string) {
	hypeOperationsTotal.WithLabelValues(operation, backend).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

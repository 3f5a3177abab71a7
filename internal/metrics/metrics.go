// Package metrics provides Prometheus collectors for the news server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "news_server"

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Comment store metrics
	CommentsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "written_total",
			Help:      "Total number of comments persisted",
		},
	)

	CommentWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "write_failures_total",
			Help:      "Total number of failed comment writes by error kind",
		},
		[]string{"kind"},
	)

	CommentsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "removed_total",
			Help:      "Total number of comments removed by cleanup",
		},
	)

	CleanupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "cleanups_total",
			Help:      "Total number of cleanup runs by result",
		},
		[]string{"result"},
	)
)

// ObserveCommentWritten records a successful comment write.
func ObserveCommentWritten() {
	CommentsWritten.Inc()
}

// ObserveWriteFailure records a failed comment write. kind is a short error
// class such as "storage_unavailable" or "write_failed".
func ObserveWriteFailure(kind string) {
	CommentWriteFailures.WithLabelValues(kind).Inc()
}

// ObserveCleanup records a cleanup run and the number of comments it removed.
func ObserveCleanup(removed int, err error) {
	CommentsRemoved.Add(float64(removed))
	if err != nil {
		CleanupsTotal.WithLabelValues("error").Inc()
		return
	}
	CleanupsTotal.WithLabelValues("ok").Inc()
}

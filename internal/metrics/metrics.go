package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications dispatched, by channel and delivery result",
		},
		[]string{"channel", "result"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Duration of a single dispatch including template rendering and provider call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_failures_total",
			Help: "Total number of failed dispatches, by channel and error kind",
		},
		[]string{"channel", "kind"},
	)

	TemplateMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templates_mutations_total",
			Help: "Total number of successful template mutations",
		},
		[]string{"operation"},
	)
)

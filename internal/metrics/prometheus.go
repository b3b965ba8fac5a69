package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkerProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_processed_total",
			Help: "Total number of jobs processed by worker pools",
		},
		[]string{"pool", "outcome"},
	)

	WorkerActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_active_goroutines",
			Help: "Number of active worker goroutines per pool",
		},
		[]string{"pool"},
	)

	WorkerDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_dropped_total",
			Help: "Jobs rejected because the pool queue was full or stopped",
		},
		[]string{"pool"},
	)

	FeedLiveEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_live_events_total",
			Help: "Live message events seen by feeds, by outcome",
		},
		[]string{"workspace", "outcome"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification side effects by profile and outcome",
		},
		[]string{"profile", "outcome"},
	)

	ActiveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Connected dashboard sessions per workspace",
		},
		[]string{"workspace"},
	)

	DeadLetterDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dead_letter_depth",
			Help: "Current RabbitMQ dead-letter queue depth per workspace",
		},
		[]string{"workspace"},
	)
)

var initOnce sync.Once

// Init registers metrics with Prometheus
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(WorkerProcessed)
		prometheus.MustRegister(WorkerActive)
		prometheus.MustRegister(WorkerDropped)
		prometheus.MustRegister(FeedLiveEvents)
		prometheus.MustRegister(Notifications)
		prometheus.MustRegister(ActiveSessions)
		prometheus.MustRegister(DeadLetterDepth)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

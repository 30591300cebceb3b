package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"shiftdesk/pkg/logger"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shiftdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiftdesk_notifications_sent_total",
		Help: "Bot notifications delivered.",
	})

	notificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiftdesk_notifications_failed_total",
		Help: "Bot notifications that failed to deliver.",
	})
)

// NotificationSent records one successful delivery.
func NotificationSent() { notificationsSent.Inc() }

// NotificationFailed records one failed delivery.
func NotificationFailed() { notificationsFailed.Inc() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency and status for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.LogRequest(r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

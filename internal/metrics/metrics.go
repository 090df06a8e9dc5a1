package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamesbakery"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

type SchedulerMetrics struct {
	Transitions   *prometheus.CounterVec
	Failures      prometheus.Counter
	Conflicts     prometheus.Counter
	SweepDuration prometheus.Histogram
}

type OutboxMetrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
}

// Metrics groups every collector the service exports.
type Metrics struct {
	Server    *ServerMetrics
	Scheduler *SchedulerMetrics
	Outbox    *OutboxMetrics
}

// New registers all collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Server: &ServerMetrics{
			Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			}, []string{"handler", "status"}),
			LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_ms",
				Help:      "HTTP request latency in milliseconds.",
				Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			}, []string{"handler"}),
		},
		Scheduler: &SchedulerMetrics{
			Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order_status",
				Name:      "transitions_total",
				Help:      "Orders moved to a terminal state by the scheduler.",
			}, []string{"outcome"}),
			Failures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order_status",
				Name:      "failures_total",
				Help:      "Orders the scheduler failed to evaluate or persist.",
			}),
			Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "order_status",
				Name:      "conflicts_total",
				Help:      "Order updates skipped because the row changed concurrently.",
			}),
			SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "order_status",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of a full order status sweep.",
				Buckets:   prometheus.DefBuckets,
			}),
		},
		Outbox: &OutboxMetrics{
			Published: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "published_total",
				Help:      "Outbox messages delivered to the broker.",
			}),
			Failed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "failed_total",
				Help:      "Outbox delivery attempts that failed.",
			}),
		},
	}

	reg.MustRegister(
		m.Server.Requests,
		m.Server.LatencyMS,
		m.Scheduler.Transitions,
		m.Scheduler.Failures,
		m.Scheduler.Conflicts,
		m.Scheduler.SweepDuration,
		m.Outbox.Published,
		m.Outbox.Failed,
	)

	return m
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern.
func (s *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		handler := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				handler = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		s.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	})
}

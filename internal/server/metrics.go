package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/englevel/internal/cefr"
)

// Metrics holds the API's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	started         prometheus.Counter
	completed       *prometheus.CounterVec
	answers         *prometheus.CounterVec
	rateLimited     prometheus.Counter
	persistFailures prometheus.Counter
}

// NewMetrics registers the collectors on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englevel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "englevel_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"method", "endpoint"},
		),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "englevel_assessments_started_total",
			Help: "Assessments started",
		}),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englevel_assessments_completed_total",
				Help: "Assessments completed, by recommended level",
			},
			[]string{"level"},
		),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "englevel_answers_total",
				Help: "Graded answers, by question level and correctness",
			},
			[]string{"level", "correct"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "englevel_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "englevel_persist_failures_total",
			Help: "Finished attempts that could not be stored",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.started, m.completed, m.answers,
		m.rateLimited, m.persistFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request counts and latencies by route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (m *Metrics) observeAnswer(level cefr.Level, correct bool) {
	m.answers.WithLabelValues(string(level), strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) observeCompleted(level cefr.Level) {
	m.completed.WithLabelValues(string(level)).Inc()
}

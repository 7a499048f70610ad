package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
)

const namespace = "assessment"

// Metrics holds the HTTP and engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SessionsStarted  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	SyncFailures     prometheus.Counter
	TimeWarnings     *prometheus.CounterVec
	ScorePercentage  *prometheus.HistogramVec
}

// New registers every collector on a fresh registry along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Assessment sessions started, by step",
			},
			[]string{"step"},
		),
		SessionsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_finished_total",
				Help:      "Assessment sessions ended, by step and reason",
			},
			[]string{"step", "reason"},
		),
		SyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_sync_failures_total",
			Help:      "Answers or navigation that could not be stored",
		}),
		TimeWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "time_warnings_total",
				Help:      "Sessions entering a warning or critical stage",
			},
			[]string{"stage"},
		),
		ScorePercentage: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score_percentage",
				Help:      "Percentage scored on submitted sessions",
				Buckets:   []float64{25, 50, 75, 100},
			},
			[]string{"step"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.SessionsStarted,
		m.SessionsFinished,
		m.SyncFailures,
		m.TimeWarnings,
		m.ScorePercentage,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TrackLive exports live as the number of sessions with a running timer.
func (m *Metrics) TrackLive(live func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_live",
		Help:      "Sessions with a running timer",
	}, func() float64 { return float64(live()) }))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Notify implements assessment.Notifier.
func (m *Metrics) Notify(_ context.Context, ev assessment.Event) {
	step := strconv.Itoa(int(ev.Step))
	switch ev.Type {
	case assessment.EventSessionStarted:
		m.SessionsStarted.WithLabelValues(step).Inc()
	case assessment.EventSubmitted:
		reason := "manual"
		if ev.Result != nil {
			reason = string(ev.Result.EndReason)
			m.ScorePercentage.WithLabelValues(step).Observe(ev.Result.Percentage)
		}
		m.SessionsFinished.WithLabelValues(step, reason).Inc()
	case assessment.EventAbandoned:
		m.SessionsFinished.WithLabelValues(step, "abandoned").Inc()
	case assessment.EventAnswerSyncFailed:
		m.SyncFailures.Inc()
	case assessment.EventTick:
		if !ev.StageChanged || ev.Snapshot == nil {
			return
		}
		if stage := ev.Snapshot.Timer.Stage(); stage != assessment.StageNormal {
			m.TimeWarnings.WithLabelValues(string(stage)).Inc()
		}
	}
}

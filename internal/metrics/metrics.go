package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sosmed_backend/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sosmed"

// Metrics - собственный реестр приложения (не глобальный DefaultRegisterer),
// поэтому в тестах можно создавать сколько угодно экземпляров.
// Все методы безопасны для nil-получателя.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	usersRegistered prometheus.Counter
	postsCreated    prometheus.Counter
	postsDeleted    prometheus.Counter
	commentsCreated prometheus.Counter
	likesToggled    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Registered users",
		}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_created_total",
			Help:      "Created posts",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_deleted_total",
			Help:      "Deleted posts",
		}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_created_total",
			Help:      "Created comments and replies",
		}),
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likes_toggled_total",
			Help:      "Like toggles by resulting action",
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.usersRegistered,
		m.postsCreated,
		m.postsDeleted,
		m.commentsCreated,
		m.likesToggled,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler - экспозиция для GET /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) UserRegistered() {
	if m != nil {
		m.usersRegistered.Inc()
	}
}

func (m *Metrics) PostCreated() {
	if m != nil {
		m.postsCreated.Inc()
	}
}

func (m *Metrics) PostDeleted() {
	if m != nil {
		m.postsDeleted.Inc()
	}
}

func (m *Metrics) CommentCreated() {
	if m != nil {
		m.commentsCreated.Inc()
	}
}

func (m *Metrics) LikeToggled(liked bool) {
	if m == nil {
		return
	}
	action := "unliked"
	if liked {
		action = "liked"
	}
	m.likesToggled.WithLabelValues(action).Inc()
}

// promLogger реализует promhttp.Logger
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logger.Error("metrics exposition failed", "error", fmt.Sprint(v...))
}

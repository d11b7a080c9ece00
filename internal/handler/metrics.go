package handler

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the ranking service.
var Metrics = struct {
	VotesTotal          *prometheus.CounterVec
	VerificationResults *prometheus.CounterVec
	SessionsMinted      prometheus.Counter
	LinksSubmitted      prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
	RequestsInFlight    prometheus.Gauge
	DBPoolActive        prometheus.GaugeFunc
	DBPoolIdle          prometheus.GaugeFunc
}{}

var metricsOnce sync.Once

// InitMetrics registers all Prometheus metrics. Safe to call more than once;
// only the first call registers.
func InitMetrics(pool *pgxpool.Pool) {
	metricsOnce.Do(func() { initMetrics(pool) })
}

func initMetrics(pool *pgxpool.Pool) {
	Metrics.VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_votes_total",
			Help: "Total applied vote adjustments, by direction and action.",
		},
		[]string{"direction", "action"},
	)

	Metrics.VerificationResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_captcha_verifications_total",
			Help: "CAPTCHA token exchanges, by result (success, failed, unavailable, missing).",
		},
		[]string{"result"},
	)

	Metrics.SessionsMinted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_captcha_sessions_minted_total",
			Help: "Total CAPTCHA sessions issued.",
		},
	)

	Metrics.LinksSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_links_submitted_total",
			Help: "Total links submitted for moderation.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ranking_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ranking_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ranking_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.VotesTotal,
		Metrics.VerificationResults,
		Metrics.SessionsMinted,
		Metrics.LinksSubmitted,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber returns slices backed by the fasthttp buffer, which handlers
		// may reuse; copy before c.Next().
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes link paths to avoid label cardinality explosion.
func sanitizeEndpoint(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/links/")
	if !ok || rest == "" {
		return path
	}
	if _, action, found := strings.Cut(rest, "/"); found {
		return "/api/links/:id/" + action
	}
	return "/api/links/:id"
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

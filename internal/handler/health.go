package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe.
var Version = "dev"

// Dependency is a backend the readiness probe pings. Required dependencies
// make the service unready when down; optional ones only degrade it.
type Dependency struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

type HealthHandler struct {
	deps    []Dependency
	startAt time.Time
}

func NewHealthHandler(deps ...Dependency) *HealthHandler {
	sort.SliceStable(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return &HealthHandler{deps: deps, startAt: time.Now()}
}

// PostgresDependency checks the connection pool.
func PostgresDependency(pool *pgxpool.Pool) Dependency {
	return Dependency{Name: "database", Required: true, Ping: pool.Ping}
}

// RedisDependency checks Redis. A nil client is reported as disabled.
func RedisDependency(rdb *redis.Client, required bool) Dependency {
	d := Dependency{Name: "redis", Required: required}
	if rdb != nil {
		d.Ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return d
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map, len(h.deps))
	overall := "healthy"
	for _, d := range h.deps {
		status, check := checkDependency(ctx, d)
		checks[d.Name] = check
		switch {
		case status == "down" && d.Required:
			overall = "unhealthy"
		case status == "down" && overall == "healthy":
			overall = "degraded"
		}
	}

	code := fiber.StatusOK
	if overall == "unhealthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":         overall,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	})
}

func checkDependency(ctx context.Context, d Dependency) (string, fiber.Map) {
	if d.Ping == nil {
		return "disabled", fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := d.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return "down", fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return "up", fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

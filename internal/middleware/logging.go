package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/pkg/hash"
)

// Logger is the package-level zerolog logger used throughout the application.
var Logger zerolog.Logger

// InitLogger sets up structured JSON logging. Level is parsed from the given
// string (e.g. "debug", "info", "warn", "error"). The zerolog global logger is
// replaced as well so services logging through zerolog/log share the config.
func InitLogger(level, service string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
	log.Logger = Logger
}

// sanitizePath collapses link ids so request logs group by route.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i-1] == "links" && parts[i] != "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON via zerolog, with usage fields for analytics.
// Raw IPs are never logged, only a short hash prefix.
func NewRequestLogger(clientIP ClientIPFunc) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := Logger.Info()
		if status >= 500 {
			evt = Logger.Error()
		} else if status >= 400 {
			evt = Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Str("query", string(c.Request().URI().QueryString())).
			Int("status", status).
			Dur("duration_ms", duration).
			Str("ip_hash", hash.LogPrefix(clientIP(c))).
			Str("country", c.Get("CF-IPCountry")).
			Str("referer", c.Get(fiber.HeaderReferer)).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// NewCORS returns a CORS middleware for the public API.
// corsOrigins is a comma-separated list of allowed origins; "*" allows all
// origins (development default). Credentials (the session cookie) are only
// allowed for an explicit origin list, as browsers reject them with "*".
func NewCORS(corsOrigins string) fiber.Handler {
	origins := []string{"*"}
	credentials := false
	if corsOrigins != "" && corsOrigins != "*" {
		origins = strings.Split(corsOrigins, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
		credentials = true
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: credentials,
		AllowMethods: []string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
		},
		ExposeHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	})
}

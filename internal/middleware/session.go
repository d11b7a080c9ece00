package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/service"
)

// SessionCookie is the cookie carrying the CAPTCHA session id.
const SessionCookie = "captcha_session"

const sessionLocal = "captchaSessionID"

// SessionValidator checks a presented session against the calling client.
type SessionValidator interface {
	Validate(ctx context.Context, id, ip, userAgent string) error
}

// RequireSession rejects the request with 403 unless it carries a live CAPTCHA
// session whose fingerprints match the caller.
func RequireSession(v SessionValidator, clientIP ClientIPFunc) fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Cookies(SessionCookie)
		err := v.Validate(c.Context(), id, clientIP(c), c.Get(fiber.HeaderUserAgent))
		switch {
		case err == nil:
			c.Locals(sessionLocal, id)
			return c.Next()
		case errors.Is(err, service.ErrSessionNotFound):
			return ErrorResponse(c, fiber.StatusForbidden, "SESSION_NOT_FOUND", "A valid CAPTCHA session is required")
		case errors.Is(err, service.ErrSessionExpired):
			return ErrorResponse(c, fiber.StatusForbidden, "SESSION_EXPIRED", "CAPTCHA session expired")
		case errors.Is(err, service.ErrFingerprintMismatch):
			return ErrorResponse(c, fiber.StatusForbidden, "FINGERPRINT_MISMATCH", "CAPTCHA session does not belong to this client")
		default:
			log.Error().Err(err).Msg("session: validation backend error")
			return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate session")
		}
	}
}

// SessionID returns the validated session id stored by RequireSession.
func SessionID(c fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}

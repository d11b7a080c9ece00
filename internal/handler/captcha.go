package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/middleware"
	"github.com/mparaz/cloudflare-ranking/internal/model"
	"github.com/mparaz/cloudflare-ranking/internal/service"
)

type CaptchaHandler struct {
	svc          *service.CaptchaService
	clientIP     middleware.ClientIPFunc
	cookieSecure bool
}

func NewCaptchaHandler(svc *service.CaptchaService, clientIP middleware.ClientIPFunc, cookieSecure bool) *CaptchaHandler {
	return &CaptchaHandler{svc: svc, clientIP: clientIP, cookieSecure: cookieSecure}
}

// Mint handles POST /api/captcha/session
func (h *CaptchaHandler) Mint(c fiber.Ctx) error {
	var req model.MintSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	minted, err := h.svc.Mint(c.Context(), req.Token, h.clientIP(c), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return h.mintError(c, err)
	}
	Metrics.VerificationResults.WithLabelValues("success").Inc()
	Metrics.SessionsMinted.Inc()

	ttl := int(minted.TTL / time.Second)
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    minted.ID,
		Path:     "/",
		MaxAge:   ttl,
		Expires:  minted.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure || c.Secure(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(model.MintSessionResponse{TTL: ttl})
}

func (h *CaptchaHandler) mintError(c fiber.Ctx, err error) error {
	var verr *service.VerificationError
	switch {
	case errors.Is(err, service.ErrMissingToken):
		Metrics.VerificationResults.WithLabelValues("missing").Inc()
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "MISSING_TOKEN", "CAPTCHA token is required")
	case errors.As(err, &verr):
		Metrics.VerificationResults.WithLabelValues("failed").Inc()
		codes := verr.Codes
		if codes == nil {
			codes = []string{}
		}
		return middleware.ErrorResponseWith(c, fiber.StatusForbidden, "VERIFICATION_FAILED",
			"CAPTCHA verification failed", fiber.Map{"providerErrors": codes})
	case errors.Is(err, service.ErrVerificationUnavailable):
		Metrics.VerificationResults.WithLabelValues("unavailable").Inc()
		log.Error().Err(err).Msg("captcha: verification provider unavailable")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "VERIFICATION_UNAVAILABLE",
			"CAPTCHA verification is temporarily unavailable")
	default:
		log.Error().Err(err).Msg("captcha: failed to mint session")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
	}
}

package handler

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/middleware"
	"github.com/mparaz/cloudflare-ranking/internal/model"
	"github.com/mparaz/cloudflare-ranking/internal/service"
)

var linksPage = template.Must(template.New("links").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Links</title>
</head>
<body>
<h1>Links</h1>
<ol>
{{- range .}}
<li><a href="{{.URL}}" rel="nofollow noopener">{{.Title}}</a> <span class="score">{{.Score}}</span>{{if not .IsFresh}} <span class="stale">older than a week</span>{{end}}</li>
{{- else}}
<li>No links yet.</li>
{{- end}}
</ol>
</body>
</html>
`))

type LinkHandler struct {
	svc *service.LinkService
}

func NewLinkHandler(svc *service.LinkService) *LinkHandler {
	return &LinkHandler{svc: svc}
}

// List handles GET /api/links
func (h *LinkHandler) List(c fiber.Ctx) error {
	ranked, err := h.svc.Ranked(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("links: list failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list links")
	}
	return c.JSON(ranked)
}

// ListHTML handles GET /links.html
func (h *LinkHandler) ListHTML(c fiber.Ctx) error {
	ranked, err := h.svc.Ranked(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("links: list failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to list links")
	}

	var buf bytes.Buffer
	if err := linksPage.Execute(&buf, ranked); err != nil {
		log.Error().Err(err).Msg("links: render failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to render links")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// Submit handles POST /api/links
func (h *LinkHandler) Submit(c fiber.Ctx) error {
	var req model.SubmitLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", middleware.ValidationMessage(err))
	}

	id, err := h.svc.Submit(c.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("links: submit failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit link")
	}
	Metrics.LinksSubmitted.Inc()

	return c.Status(fiber.StatusCreated).JSON(model.SubmitLinkResponse{
		ID:      id,
		Status:  model.StatusPending,
		Message: "Link submitted for review",
	})
}

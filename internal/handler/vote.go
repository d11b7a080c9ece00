package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mparaz/cloudflare-ranking/internal/middleware"
	"github.com/mparaz/cloudflare-ranking/internal/model"
	"github.com/mparaz/cloudflare-ranking/internal/repository"
	"github.com/mparaz/cloudflare-ranking/internal/service"
)

type VoteHandler struct {
	svc *service.LinkService
}

func NewVoteHandler(svc *service.LinkService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Vote handles POST /api/links/:id/vote
func (h *VoteHandler) Vote(c fiber.Ctx) error {
	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_DIRECTION", `direction must be "up" or "down"`)
	}
	return h.apply(c, req)
}

// Fixed returns a handler for the legacy single-purpose routes
// (/upvote, /downvote, /unupvote, /undownvote), which take no body.
func (h *VoteHandler) Fixed(direction string, undo bool) fiber.Handler {
	req := model.VoteRequest{Direction: direction, Undo: undo}
	return func(c fiber.Ctx) error {
		return h.apply(c, req)
	}
}

func (h *VoteHandler) apply(c fiber.Ctx, req model.VoteRequest) error {
	id, errMsg := middleware.ParseLinkID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	err := h.svc.Vote(c.Context(), id, req)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrLinkNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Link not found")
	case errors.Is(err, repository.ErrNoOpAdjustment):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NO_OP_ADJUSTMENT", "Counter is already zero")
	default:
		log.Error().Err(err).Int64("link_id", id).Msg("votes: adjust failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record vote")
	}

	action := "vote"
	if req.Undo {
		action = "undo"
	}
	Metrics.VotesTotal.WithLabelValues(req.Direction, action).Inc()
	return c.JSON(model.VoteResponse{Success: true})
}

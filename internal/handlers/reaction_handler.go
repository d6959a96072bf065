package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
)

// ReactionHandler handles HTTP requests related to reactions
type ReactionHandler struct {
	reactionRepository repositories.ReactionRepository
	updateRepository   repositories.UpdateRepository
	groupRepository    repositories.GroupRepository
	analytics          *analytics.Recorder
	logger             *zap.Logger
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(
	reactionRepo repositories.ReactionRepository,
	updateRepo repositories.UpdateRepository,
	groupRepo repositories.GroupRepository,
	recorder *analytics.Recorder,
	logger *zap.Logger,
) *ReactionHandler {
	return &ReactionHandler{
		reactionRepository: reactionRepo,
		updateRepository:   updateRepo,
		groupRepository:    groupRepo,
		analytics:          recorder,
		logger:             logger,
	}
}

// RegisterReactionRoutes registers reaction-related routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.PUT("/updates/:id/reactions/:type", h.AddReaction)
	g.DELETE("/updates/:id/reactions/:type", h.RemoveReaction)
}

// AddReaction adds a reaction type to the caller's reaction document. The
// update's tallies increment in the same transaction; re-adding a held type
// changes nothing.
func (h *ReactionHandler) AddReaction(c echo.Context) error {
	uid := middleware.UserID(c)
	updateID := c.Param("id")
	reactionType := c.Param("type")

	if !models.ValidReactionType(reactionType) {
		return apperrors.BadRequest("Unknown reaction type")
	}

	ctx := c.Request().Context()
	update, err := h.updateRepository.GetByID(ctx, updateID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Update not found")
		}
		return err
	}
	allowed, err := visibleToUser(ctx, h.groupRepository, update, uid)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.Forbidden("You do not have access to this update")
	}

	added, err := h.reactionRepository.AddType(ctx, updateID, uid, reactionType)
	if err != nil {
		return err
	}
	if added {
		h.analytics.Record(uid, models.EventReactionAdded, "update", updateID, map[string]any{
			"type": reactionType,
		})
	}

	reaction, err := h.reactionRepository.Get(ctx, updateID, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reaction)
}

// RemoveReaction removes a reaction type the caller holds. Removing an unheld
// type changes nothing, so the tallies never double-decrement.
func (h *ReactionHandler) RemoveReaction(c echo.Context) error {
	uid := middleware.UserID(c)
	updateID := c.Param("id")
	reactionType := c.Param("type")

	if !models.ValidReactionType(reactionType) {
		return apperrors.BadRequest("Unknown reaction type")
	}

	ctx := c.Request().Context()
	removed, err := h.reactionRepository.RemoveType(ctx, updateID, uid, reactionType)
	if err != nil {
		return err
	}
	if removed {
		h.analytics.Record(uid, models.EventReactionRemoved, "update", updateID, map[string]any{
			"type": reactionType,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/notifications"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	updateRepository  repositories.UpdateRepository
	profileRepository repositories.ProfileRepository
	groupRepository   repositories.GroupRepository
	notifier          notifications.Sender
	analytics         *analytics.Recorder
	logger            *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	updateRepo repositories.UpdateRepository,
	profileRepo repositories.ProfileRepository,
	groupRepo repositories.GroupRepository,
	notifier notifications.Sender,
	recorder *analytics.Recorder,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		updateRepository:  updateRepo,
		profileRepository: profileRepo,
		groupRepository:   groupRepo,
		notifier:          notifier,
		analytics:         recorder,
		logger:            logger,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/updates/:id/comments", h.CreateComment)
	g.GET("/updates/:id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a comment on an update the caller can see. The
// comment insert and the update's comment_count increment commit in the same
// transaction.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	uid := middleware.UserID(c)
	updateID := c.Param("id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
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

	snaps, err := h.profileRepository.GetSnapshots(ctx, []string{uid})
	if err != nil {
		return err
	}

	comment := &models.Comment{
		UpdateID:         updateID,
		UserID:           uid,
		CommenterProfile: snaps[uid],
		Content:          req.Content,
	}
	if err := h.commentRepository.Create(ctx, comment); err != nil {
		return err
	}

	h.notifier.NotifyNewComment(ctx, comment, update)
	h.analytics.Record(uid, models.EventCommentCreated, "comment", comment.ID.Hex(), map[string]any{
		"update_id": updateID,
	})
	return c.JSON(http.StatusCreated, comment)
}

// GetComments retrieves one page of an update's comments, newest first
func (h *CommentHandler) GetComments(c echo.Context) error {
	uid := middleware.UserID(c)
	updateID := c.Param("id")
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

	comments, next, err := h.commentRepository.ListByUpdate(ctx, updateID, c.QueryParam("cursor"), pageLimit(c))
	if err != nil {
		if err == store.ErrBadCursor {
			return apperrors.BadRequest("Invalid pagination cursor")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments, "next_cursor": next})
}

// DeleteComment removes a comment. Allowed for the comment author and for the
// author of the commented update. The delete decrements the update's
// comment_count in the same transaction.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	comment, err := h.commentRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Comment not found")
		}
		return err
	}

	if comment.UserID != uid {
		update, err := h.updateRepository.GetByID(ctx, comment.UpdateID)
		if err != nil && err != repositories.ErrNotFound {
			return err
		}
		if update == nil || update.CreatedBy != uid {
			return apperrors.Forbidden("You are not authorized to delete this comment")
		}
	}

	if err := h.commentRepository.Delete(ctx, comment); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

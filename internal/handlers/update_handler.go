package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/ai"
	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/fanout"
	"github.com/loopline-app/backend/internal/images"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/notifications"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

const defaultPageLimit = 20

// UpdateHandler handles HTTP requests related to updates and the feed
type UpdateHandler struct {
	updateRepository  repositories.UpdateRepository
	feedRepository    repositories.FeedRepository
	profileRepository repositories.ProfileRepository
	groupRepository   repositories.GroupRepository
	fanout            *fanout.Writer
	committer         store.Committer
	generator         ai.Generator
	imageStore        *images.Store
	notifier          notifications.Sender
	analytics         *analytics.Recorder
	logger            *zap.Logger
}

// NewUpdateHandler creates a new UpdateHandler
func NewUpdateHandler(
	updateRepo repositories.UpdateRepository,
	feedRepo repositories.FeedRepository,
	profileRepo repositories.ProfileRepository,
	groupRepo repositories.GroupRepository,
	fanoutWriter *fanout.Writer,
	committer store.Committer,
	generator ai.Generator,
	imageStore *images.Store,
	notifier notifications.Sender,
	recorder *analytics.Recorder,
	logger *zap.Logger,
) *UpdateHandler {
	return &UpdateHandler{
		updateRepository:  updateRepo,
		feedRepository:    feedRepo,
		profileRepository: profileRepo,
		groupRepository:   groupRepo,
		fanout:            fanoutWriter,
		committer:         committer,
		generator:         generator,
		imageStore:        imageStore,
		notifier:          notifier,
		analytics:         recorder,
		logger:            logger,
	}
}

// RegisterUpdateRoutes registers update and feed routes
func (h *UpdateHandler) RegisterUpdateRoutes(g *echo.Group) {
	g.POST("/updates", h.CreateUpdate)
	g.POST("/updates/:id/share", h.ShareUpdate)
	g.GET("/updates", h.GetOwnUpdates)
	g.GET("/updates/:id", h.GetUpdate)
	g.DELETE("/updates/:id", h.DeleteUpdate)
	g.GET("/feed", h.GetFeed)
}

// CreateUpdate creates a new update and fans it out to every recipient's feed
func (h *UpdateHandler) CreateUpdate(c echo.Context) error {
	uid := middleware.UserID(c)

	var req models.CreateUpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	profile, err := h.profileRepository.GetByUserID(ctx, uid)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.Forbidden("Create a profile before posting updates")
		}
		return err
	}

	friendIDs, groupIDs := req.FriendIDs, req.GroupIDs
	if req.AllContacts {
		friendIDs, groupIDs, err = h.fanout.ExpandAllContacts(ctx, uid)
		if err != nil {
			return err
		}
	}

	snapshots, err := h.shareSnapshots(ctx, friendIDs)
	if err != nil {
		return err
	}

	update := &models.Update{
		CreatedBy:          uid,
		Content:            req.Content,
		FriendIDs:          friendIDs,
		GroupIDs:           groupIDs,
		AllContacts:        req.AllContacts,
		CreatorProfile:     profile.Snapshot(),
		SharedWithProfiles: snapshots,
		// The author's own identifier is seeded here; share-target
		// identifiers are added by the fan-out pass.
		VisibleTo: []string{models.FriendVisibility(uid)},
	}
	if err := h.updateRepository.Create(ctx, update); err != nil {
		return err
	}

	if refs := h.imageStore.Promote(ctx, update.ID.Hex(), req.ImageRefs); len(refs) > 0 {
		update.ImageRefs = refs
		if err := h.updateRepository.SetImageRefs(ctx, update.ID.Hex(), refs); err != nil {
			h.logger.Warn("image ref write failed", zap.String("update_id", update.ID.Hex()), zap.Error(err))
		}
	}

	if err := h.fanout.FanOutCreate(ctx, update); err != nil {
		return err
	}

	recipients, _ := h.feedRepository.OwnersForUpdate(ctx, update.ID.Hex())
	h.notifier.NotifyNewUpdate(ctx, update, recipients)
	h.analytics.Record(uid, models.EventUpdateCreated, "update", update.ID.Hex(), map[string]any{
		"recipients": len(recipients),
	})
	go h.classifySentiment(update)

	return c.JSON(http.StatusCreated, update.ForDisplay())
}

// ShareUpdate extends an existing update to additional friends and groups.
// Targets already on the update are filtered out, so re-sharing with an
// overlapping list is a no-op for the overlap.
func (h *UpdateHandler) ShareUpdate(c echo.Context) error {
	uid := middleware.UserID(c)
	updateID := c.Param("id")

	var req models.ShareUpdateRequest
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
	if update.CreatedBy != uid {
		return apperrors.Forbidden("Only the author can share an update")
	}

	friendIDs, groupIDs := req.FriendIDs, req.GroupIDs
	if req.AllContacts {
		friendIDs, groupIDs, err = h.fanout.ExpandAllContacts(ctx, uid)
		if err != nil {
			return err
		}
	}

	newFriendIDs := fanout.NewTargets(friendIDs, update.FriendIDs)
	newGroupIDs := fanout.NewTargets(groupIDs, update.GroupIDs)
	if len(newFriendIDs) == 0 && len(newGroupIDs) == 0 {
		return c.JSON(http.StatusOK, update.ForDisplay())
	}

	snapshots, err := h.shareSnapshots(ctx, newFriendIDs)
	if err != nil {
		return err
	}
	// Fan out before extending the share lists. The feed writes are keyed
	// upserts and safe to re-issue, so a failure here leaves the lists
	// untouched and a retry sees the same new targets.
	if err := h.fanout.FanOutShare(ctx, update, newFriendIDs, newGroupIDs); err != nil {
		return err
	}
	if err := h.updateRepository.AppendShareTargets(ctx, updateID, newFriendIDs, newGroupIDs, snapshots); err != nil {
		return err
	}

	h.analytics.Record(uid, models.EventUpdateShared, "update", updateID, map[string]any{
		"new_friends": len(newFriendIDs),
		"new_groups":  len(newGroupIDs),
	})

	shared, err := h.updateRepository.GetByID(ctx, updateID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shared.ForDisplay())
}

// GetUpdate retrieves a single update the caller is allowed to see
func (h *UpdateHandler) GetUpdate(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	update, err := h.updateRepository.GetByID(ctx, c.Param("id"))
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
	return c.JSON(http.StatusOK, update.ForDisplay())
}

// GetOwnUpdates retrieves one page of the caller's own updates, newest first
func (h *UpdateHandler) GetOwnUpdates(c echo.Context) error {
	uid := middleware.UserID(c)

	updates, next, err := h.updateRepository.ListByCreator(
		c.Request().Context(), uid, c.QueryParam("cursor"), pageLimit(c))
	if err != nil {
		if err == store.ErrBadCursor {
			return apperrors.BadRequest("Invalid pagination cursor")
		}
		return err
	}
	for i := range updates {
		updates[i] = updates[i].ForDisplay()
	}
	return c.JSON(http.StatusOK, echo.Map{"updates": updates, "next_cursor": next})
}

// GetFeed retrieves one page of the caller's feed. The feed index is read
// first and the update bodies re-fetched in bulk, preserving index order.
func (h *UpdateHandler) GetFeed(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	entries, next, err := h.feedRepository.ListByOwner(ctx, uid, c.QueryParam("cursor"), pageLimit(c))
	if err != nil {
		if err == store.ErrBadCursor {
			return apperrors.BadRequest("Invalid pagination cursor")
		}
		return err
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].UpdateID
	}
	updates, err := h.updateRepository.GetManyByIDs(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[string]models.Update, len(updates))
	for _, u := range updates {
		byID[u.ID.Hex()] = u
	}
	ordered := make([]models.Update, 0, len(entries))
	for _, e := range entries {
		if u, ok := byID[e.UpdateID]; ok {
			ordered = append(ordered, u.ForDisplay())
		}
		// entries pointing at a deleted update are silently dropped
	}

	return c.JSON(http.StatusOK, echo.Map{"updates": ordered, "next_cursor": next})
}

// DeleteUpdate removes an update together with its feed entries, comments and
// reactions in one atomic commit
func (h *UpdateHandler) DeleteUpdate(c echo.Context) error {
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
	if update.CreatedBy != uid {
		return apperrors.Forbidden("Only the author can delete an update")
	}

	ops := []store.WriteOp{
		{Collection: store.CollUpdates, Filter: bson.M{"_id": update.ID}, Delete: true},
		{Collection: store.CollFeedEntries, Filter: bson.M{"update_id": updateID}, DeleteMany: true},
		{Collection: store.CollComments, Filter: bson.M{"update_id": updateID}, DeleteMany: true},
		{Collection: store.CollReactions, Filter: bson.M{"update_id": updateID}, DeleteMany: true},
	}
	if err := h.committer.Commit(ctx, ops); err != nil {
		return err
	}

	h.imageStore.Remove(ctx, update.ImageRefs)
	h.logger.Info("deleted update", zap.String("update_id", updateID), zap.String("user_id", uid))
	return c.NoContent(http.StatusNoContent)
}

func (h *UpdateHandler) shareSnapshots(ctx context.Context, friendIDs []string) ([]models.ProfileSnapshot, error) {
	if len(friendIDs) == 0 {
		return nil, nil
	}
	byID, err := h.profileRepository.GetSnapshots(ctx, friendIDs)
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.ProfileSnapshot, 0, len(byID))
	for _, id := range friendIDs {
		if snap, ok := byID[id]; ok {
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

// classifySentiment runs off the request path; a failed classification leaves
// the update without sentiment rather than failing the create.
func (h *UpdateHandler) classifySentiment(update *models.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	sentiment, err := h.generator.ClassifySentiment(ctx, update.Content)
	if err != nil {
		h.logger.Warn("sentiment classification failed",
			zap.String("update_id", update.ID.Hex()), zap.Error(err))
		return
	}
	if err := h.updateRepository.SetSentiment(ctx, update.ID.Hex(), sentiment.Label, sentiment.Score, sentiment.Emoji); err != nil {
		h.logger.Warn("sentiment write failed",
			zap.String("update_id", update.ID.Hex()), zap.Error(err))
	}
}

func pageLimit(c echo.Context) int {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		return defaultPageLimit
	}
	return limit
}

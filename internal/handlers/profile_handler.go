package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/cache"
	"github.com/loopline-app/backend/internal/denorm"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

// ProfileHandler handles HTTP requests related to profiles
type ProfileHandler struct {
	profileRepository  repositories.ProfileRepository
	updateRepository   repositories.UpdateRepository
	groupRepository    repositories.GroupRepository
	commentRepository  repositories.CommentRepository
	reactionRepository repositories.ReactionRepository
	propagator         *denorm.Propagator
	profileCache       *cache.ProfileCache
	committer          store.Committer
	analytics          *analytics.Recorder
	logger             *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(
	profileRepo repositories.ProfileRepository,
	updateRepo repositories.UpdateRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	reactionRepo repositories.ReactionRepository,
	propagator *denorm.Propagator,
	profileCache *cache.ProfileCache,
	committer store.Committer,
	recorder *analytics.Recorder,
	logger *zap.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profileRepository:  profileRepo,
		updateRepository:   updateRepo,
		groupRepository:    groupRepo,
		commentRepository:  commentRepo,
		reactionRepository: reactionRepo,
		propagator:         propagator,
		profileCache:       profileCache,
		committer:          committer,
		analytics:          recorder,
		logger:             logger,
	}
}

// RegisterProfileRoutes registers profile-related routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.POST("/profile", h.CreateProfile)
	g.GET("/profile", h.GetOwnProfile)
	g.GET("/profiles/:id", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteProfile)
}

// CreateProfile creates the caller's profile
func (h *ProfileHandler) CreateProfile(c echo.Context) error {
	uid := middleware.UserID(c)

	var req models.CreateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if existing, err := h.profileRepository.GetByUserID(ctx, uid); err == nil && existing != nil {
		return apperrors.Conflict("Profile already exists")
	} else if err != nil && err != repositories.ErrNotFound {
		return err
	}
	if req.Phone != "" {
		if other, err := h.profileRepository.GetByPhone(ctx, req.Phone); err == nil && other != nil {
			return apperrors.Conflict("Phone number already registered")
		} else if err != nil && err != repositories.ErrNotFound {
			return err
		}
	}

	profile := &models.Profile{
		UserID:   uid,
		Username: req.Username,
		Name:     req.Name,
		Avatar:   req.Avatar,
		Phone:    req.Phone,
		Timezone: req.Timezone,
		Notifications: models.NotificationPrefs{
			NewUpdates: true,
			Comments:   true,
			Reactions:  true,
			Nudges:     true,
		},
	}
	if err := h.profileRepository.Create(ctx, profile); err != nil {
		return err
	}

	h.profileCache.Set(ctx, profile.Snapshot())
	return c.JSON(http.StatusCreated, profile)
}

// GetOwnProfile retrieves the caller's profile
func (h *ProfileHandler) GetOwnProfile(c echo.Context) error {
	uid := middleware.UserID(c)

	profile, err := h.profileRepository.GetByUserID(c.Request().Context(), uid)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Profile not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetProfile retrieves another user's public snapshot, served from the
// read-through cache when warm
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := c.Param("id")
	ctx := c.Request().Context()

	if snap := h.profileCache.Get(ctx, userID); snap != nil {
		return c.JSON(http.StatusOK, snap)
	}

	profile, err := h.profileRepository.GetByUserID(ctx, userID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Profile not found")
		}
		return err
	}

	snap := profile.Snapshot()
	h.profileCache.Set(ctx, snap)
	return c.JSON(http.StatusOK, snap)
}

// UpdateProfile applies a partial profile edit. When a replicated display
// field changes, the corrective propagation rewrites every embedded snapshot
// before the request returns.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	uid := middleware.UserID(c)

	var req models.UpdateProfileRequest
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
			return apperrors.NotFound("Profile not found")
		}
		return err
	}

	if req.Phone != "" && req.Phone != profile.Phone {
		if other, err := h.profileRepository.GetByPhone(ctx, req.Phone); err == nil && other != nil && other.UserID != uid {
			return apperrors.Conflict("Phone number already registered")
		} else if err != nil && err != repositories.ErrNotFound {
			return err
		}
	}

	fields := bson.M{"updated_at": time.Now()}
	displayChanged := false
	if req.Username != "" && req.Username != profile.Username {
		fields["username"] = req.Username
		profile.Username = req.Username
		displayChanged = true
	}
	if req.Name != "" && req.Name != profile.Name {
		fields["name"] = req.Name
		profile.Name = req.Name
		displayChanged = true
	}
	if req.Avatar != "" && req.Avatar != profile.Avatar {
		fields["avatar"] = req.Avatar
		profile.Avatar = req.Avatar
		displayChanged = true
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
		profile.Phone = req.Phone
	}
	if req.Timezone != "" {
		fields["timezone"] = req.Timezone
	}
	if req.Personality != "" {
		fields["personality"] = req.Personality
	}
	if req.NudgeSchedule != "" {
		fields["nudge_schedule"] = req.NudgeSchedule
	}
	if req.Notifications != nil {
		fields["notifications"] = *req.Notifications
	}
	if req.DeviceToken != "" {
		fields["device_token"] = req.DeviceToken
	}

	if err := h.profileRepository.UpdateFields(ctx, uid, fields); err != nil {
		return err
	}

	if displayChanged {
		snap := profile.Snapshot()
		h.profileCache.Invalidate(ctx, uid)
		if err := h.propagator.PropagateProfileChange(ctx, snap); err != nil {
			// Committed chunks stay applied; the remainder converges on
			// the next successful propagation for this user.
			h.logger.Error("snapshot propagation incomplete",
				zap.String("user_id", uid), zap.Error(err))
			return err
		}
		h.profileCache.Set(ctx, snap)
	}

	h.analytics.Record(uid, models.EventProfileUpdated, "profile", uid, map[string]any{
		"display_changed": displayChanged,
	})
	return c.JSON(http.StatusOK, profile)
}

// DeleteProfile removes the caller's profile and every record that references
// it: authored updates and their feed entries, the caller's own feed, both
// friendship shapes, invitations, join requests, comments, reactions,
// summaries and nudges. Group membership is detached per group, and the
// comment and reaction tallies on other authors' updates are walked back.
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	if _, err := h.profileRepository.GetByUserID(ctx, uid); err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Profile not found")
		}
		return err
	}

	authoredIDs, err := h.updateRepository.IDsByCreator(ctx, uid)
	if err != nil {
		return err
	}
	memberships, err := h.groupRepository.ListByMember(ctx, uid)
	if err != nil {
		return err
	}
	comments, err := h.commentRepository.ListByAuthor(ctx, uid)
	if err != nil {
		return err
	}
	reactions, err := h.reactionRepository.ListByUser(ctx, uid)
	if err != nil {
		return err
	}
	authored := make(map[string]bool, len(authoredIDs))
	for _, id := range authoredIDs {
		authored[id] = true
	}

	ops := []store.WriteOp{
		{Collection: store.CollProfiles, Filter: bson.M{"user_id": uid}, Delete: true},
		{Collection: store.CollUpdates, Filter: bson.M{"created_by": uid}, DeleteMany: true},
		{Collection: store.CollFeedEntries, Filter: bson.M{"owner_id": uid}, DeleteMany: true},
		{Collection: store.CollFriendships, Filter: bson.M{"$or": bson.A{bson.M{"sender_id": uid}, bson.M{"receiver_id": uid}}}, DeleteMany: true},
		{Collection: store.CollFriends, Filter: bson.M{"$or": bson.A{bson.M{"owner_id": uid}, bson.M{"friend_id": uid}}}, DeleteMany: true},
		{Collection: store.CollInvitations, Filter: bson.M{"owner_id": uid}, DeleteMany: true},
		{Collection: store.CollJoinRequests, Filter: bson.M{"$or": bson.A{bson.M{"requester_id": uid}, bson.M{"receiver_profile.user_id": uid}}}, DeleteMany: true},
		{Collection: store.CollComments, Filter: bson.M{"user_id": uid}, DeleteMany: true},
		{Collection: store.CollReactions, Filter: bson.M{"user_id": uid}, DeleteMany: true},
		{Collection: store.CollSummaries, Filter: bson.M{"$or": bson.A{bson.M{"creator_id": uid}, bson.M{"target_id": uid}}}, DeleteMany: true},
		{Collection: store.CollNudges, Filter: bson.M{"$or": bson.A{bson.M{"sender_id": uid}, bson.M{"receiver_id": uid}}}, DeleteMany: true},
	}
	if len(authoredIDs) > 0 {
		ops = append(ops, store.WriteOp{
			Collection: store.CollFeedEntries,
			Filter:     bson.M{"update_id": bson.M{"$in": authoredIDs}},
			DeleteMany: true,
		})
	}
	for _, g := range memberships {
		ops = append(ops, store.WriteOp{
			Collection: store.CollGroups,
			Filter:     bson.M{"_id": g.ID},
			Update: bson.M{
				"$pull":  bson.M{"member_ids": uid},
				"$unset": bson.M{"member_profiles." + uid: ""},
			},
		})
	}
	ops = append(ops, counterDecrementOps(comments, reactions, authored)...)

	writer := store.NewBatchWriter(h.committer)
	if err := writer.Add(ctx, ops...); err != nil {
		return err
	}
	if err := writer.Flush(ctx); err != nil {
		return err
	}

	h.profileCache.Invalidate(ctx, uid)
	h.logger.Info("deleted profile",
		zap.String("user_id", uid),
		zap.Int("operations", writer.Committed()))
	return c.NoContent(http.StatusNoContent)
}

// counterDecrementOps plans the $inc operations that walk the deleted
// account's comments and reactions back out of other authors' update tallies.
// Updates authored by the account itself are skipped, those documents are
// removed wholesale in the same commit.
func counterDecrementOps(comments []models.Comment, reactions []models.Reaction, authored map[string]bool) []store.WriteOp {
	inc := make(map[string]bson.M)
	bump := func(updateID, field string, by int) {
		if authored[updateID] {
			return
		}
		doc, ok := inc[updateID]
		if !ok {
			doc = bson.M{}
			inc[updateID] = doc
		}
		if n, ok := doc[field].(int); ok {
			doc[field] = n + by
		} else {
			doc[field] = by
		}
	}

	for _, cm := range comments {
		bump(cm.UpdateID, "comment_count", -1)
	}
	for _, re := range reactions {
		if len(re.Types) == 0 {
			continue
		}
		bump(re.UpdateID, "reaction_count", -len(re.Types))
		for _, t := range re.Types {
			bump(re.UpdateID, "reaction_types."+t, -1)
		}
	}

	ids := make([]string, 0, len(inc))
	for id := range inc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ops := make([]store.WriteOp, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		ops = append(ops, store.WriteOp{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": objID},
			Update:     bson.M{"$inc": inc[id]},
		})
	}
	return ops
}

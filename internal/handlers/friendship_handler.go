package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/ai"
	"github.com/loopline-app/backend/internal/analytics"
	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/notifications"
	"github.com/loopline-app/backend/internal/repositories"
)

// FriendshipHandler handles invitations, join requests, friendships, nudges
// and friend summaries
type FriendshipHandler struct {
	friendshipRepository repositories.FriendshipRepository
	invitationRepository repositories.InvitationRepository
	profileRepository    repositories.ProfileRepository
	feedRepository       repositories.FeedRepository
	summaryRepository    repositories.SummaryRepository
	nudgeRepository      repositories.NudgeRepository
	updateRepository     repositories.UpdateRepository
	generator            ai.Generator
	notifier             notifications.Sender
	analytics            *analytics.Recorder
	logger               *zap.Logger

	maxCombinedFriends int
	invitationTTL      time.Duration
	nudgeCooldown      time.Duration
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(
	friendshipRepo repositories.FriendshipRepository,
	invitationRepo repositories.InvitationRepository,
	profileRepo repositories.ProfileRepository,
	feedRepo repositories.FeedRepository,
	summaryRepo repositories.SummaryRepository,
	nudgeRepo repositories.NudgeRepository,
	updateRepo repositories.UpdateRepository,
	generator ai.Generator,
	notifier notifications.Sender,
	recorder *analytics.Recorder,
	logger *zap.Logger,
	maxCombinedFriends int,
	invitationTTL, nudgeCooldown time.Duration,
) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipRepository: friendshipRepo,
		invitationRepository: invitationRepo,
		profileRepository:    profileRepo,
		feedRepository:       feedRepo,
		summaryRepository:    summaryRepo,
		nudgeRepository:      nudgeRepo,
		updateRepository:     updateRepo,
		generator:            generator,
		notifier:             notifier,
		analytics:            recorder,
		logger:               logger,
		maxCombinedFriends:   maxCombinedFriends,
		invitationTTL:        invitationTTL,
		nudgeCooldown:        nudgeCooldown,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/invitations", h.CreateInvitation)
	g.GET("/invitations", h.GetInvitations)
	g.POST("/invitations/:id/revoke", h.RevokeInvitation)
	g.POST("/invitations/:id/requests", h.CreateJoinRequest)
	g.GET("/join-requests", h.GetJoinRequests)
	g.PUT("/invitations/:id/requests/:rid", h.ResolveJoinRequest)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.RemoveFriend)
	g.POST("/friends/:id/nudge", h.NudgeFriend)
	g.GET("/friends/:id/summary", h.GetFriendSummary)
}

// CreateInvitation creates an outbound invitation. The combined quota of
// accepted friends plus active invitations is checked first, so a full
// account fails fast with no state written.
func (h *FriendshipHandler) CreateInvitation(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	profile, err := h.profileRepository.GetByUserID(ctx, uid)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.Forbidden("Create a profile before inviting friends")
		}
		return err
	}

	reached, err := h.limitReached(ctx, profile)
	if err != nil {
		return err
	}
	if reached {
		return apperrors.BadRequest("Friend limit reached")
	}

	invitation := &models.Invitation{
		OwnerID:      uid,
		OwnerProfile: profile.Snapshot(),
		Status:       models.InvitationActive,
		ExpiresAt:    time.Now().Add(h.invitationTTL),
	}
	if err := h.invitationRepository.Create(ctx, invitation); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invitation)
}

// GetInvitations retrieves the caller's invitations
func (h *FriendshipHandler) GetInvitations(c echo.Context) error {
	uid := middleware.UserID(c)

	invitations, err := h.invitationRepository.ListByOwner(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invitations)
}

// RevokeInvitation revokes an active invitation, freeing its quota slot
func (h *FriendshipHandler) RevokeInvitation(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	invitation, err := h.invitationRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Invitation not found")
		}
		return err
	}
	if invitation.OwnerID != uid {
		return apperrors.Forbidden("Only the owner can revoke an invitation")
	}
	if err := h.invitationRepository.UpdateStatus(ctx, invitation.ID, models.InvitationRevoked); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateJoinRequest files a request against an active invitation
func (h *FriendshipHandler) CreateJoinRequest(c echo.Context) error {
	uid := middleware.UserID(c)
	invitationID := c.Param("id")
	ctx := c.Request().Context()

	invitation, err := h.invitationRepository.GetByID(ctx, invitationID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Invitation not found")
		}
		return err
	}
	if !invitation.Active(time.Now()) {
		return apperrors.BadRequest("Invitation is no longer active")
	}
	if invitation.OwnerID == uid {
		return apperrors.BadRequest("You cannot request to join your own invitation")
	}

	if existing, err := h.friendshipRepository.GetBetween(ctx, uid, invitation.OwnerID); err == nil &&
		existing.Status == models.FriendshipAccepted {
		return apperrors.Conflict("You are already friends")
	} else if err != nil && err != repositories.ErrNotFound {
		return err
	}

	requester, err := h.profileRepository.GetByUserID(ctx, uid)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.Forbidden("Create a profile before joining")
		}
		return err
	}

	request := &models.JoinRequest{
		InvitationID:     invitationID,
		RequesterID:      uid,
		RequesterProfile: requester.Snapshot(),
		ReceiverProfile:  invitation.OwnerProfile,
		Status:           models.JoinRequestPending,
	}
	if err := h.invitationRepository.CreateJoinRequest(ctx, request); err != nil {
		return err
	}

	h.notifier.NotifyInvitation(ctx, invitation, invitation.OwnerID)
	return c.JSON(http.StatusCreated, request)
}

// GetJoinRequests retrieves join requests the caller sent or received,
// selected with the ?direction=sent|received query param
func (h *FriendshipHandler) GetJoinRequests(c echo.Context) error {
	uid := middleware.UserID(c)
	ctx := c.Request().Context()

	var (
		requests []models.JoinRequest
		err      error
	)
	if c.QueryParam("direction") == "sent" {
		requests, err = h.invitationRepository.ListJoinRequestsByRequester(ctx, uid)
	} else {
		requests, err = h.invitationRepository.ListJoinRequestsByReceiver(ctx, uid)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// ResolveJoinRequest accepts or rejects a pending join request. Acceptance
// checks both parties' combined quotas, then writes the canonical friendship
// and both per-side friend rows in one transaction and consumes the
// invitation.
func (h *FriendshipHandler) ResolveJoinRequest(c echo.Context) error {
	uid := middleware.UserID(c)
	invitationID := c.Param("id")
	requestID := c.Param("rid")

	var req models.UpdateJoinRequestStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	invitation, err := h.invitationRepository.GetByID(ctx, invitationID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Invitation not found")
		}
		return err
	}
	if invitation.OwnerID != uid {
		return apperrors.Forbidden("Only the invitation owner can resolve requests")
	}

	request, err := h.invitationRepository.GetJoinRequest(ctx, requestID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Join request not found")
		}
		return err
	}
	if request.InvitationID != invitationID {
		return apperrors.NotFound("Join request not found")
	}
	if request.Status != models.JoinRequestPending {
		return apperrors.Conflict("Join request already resolved")
	}

	if req.Status == models.JoinRequestRejected {
		if err := h.invitationRepository.UpdateJoinRequestStatus(ctx, requestID, models.JoinRequestRejected); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}

	owner, err := h.profileRepository.GetByUserID(ctx, uid)
	if err != nil {
		return err
	}
	requester, err := h.profileRepository.GetByUserID(ctx, request.RequesterID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Requester profile no longer exists")
		}
		return err
	}

	// A second pending request between the same pair can arrive through
	// another invitation; surface it as a conflict instead of letting the
	// insert collide on the deterministic friendship id.
	if existing, err := h.friendshipRepository.GetBetween(ctx, uid, request.RequesterID); err == nil &&
		existing.Status == models.FriendshipAccepted {
		return apperrors.Conflict("You are already friends")
	} else if err != nil && err != repositories.ErrNotFound {
		return err
	}

	for _, p := range []*models.Profile{owner, requester} {
		reached, err := h.limitReached(ctx, p)
		if err != nil {
			return err
		}
		if reached {
			return apperrors.BadRequest("Friend limit reached")
		}
	}

	friendship := &models.Friendship{
		SenderID:        request.RequesterID,
		ReceiverID:      uid,
		SenderProfile:   requester.Snapshot(),
		ReceiverProfile: owner.Snapshot(),
	}
	if err := h.friendshipRepository.CreateAccepted(ctx, friendship); err != nil {
		return err
	}
	if err := h.invitationRepository.UpdateJoinRequestStatus(ctx, requestID, models.JoinRequestAccepted); err != nil {
		h.logger.Warn("join request status write failed", zap.String("request_id", requestID), zap.Error(err))
	}
	if err := h.invitationRepository.UpdateStatus(ctx, invitationID, models.InvitationConsumed); err != nil {
		h.logger.Warn("invitation consume failed", zap.String("invitation_id", invitationID), zap.Error(err))
	}

	// Seed an empty summary in each direction so the narrative endpoint has
	// a record to refresh.
	for _, pair := range [][2]string{{uid, request.RequesterID}, {request.RequesterID, uid}} {
		if err := h.summaryRepository.Upsert(ctx, &models.UserSummary{
			CreatorID: pair[0],
			TargetID:  pair[1],
		}); err != nil {
			h.logger.Warn("summary seed failed",
				zap.String("creator_id", pair[0]), zap.String("target_id", pair[1]), zap.Error(err))
		}
	}

	h.notifier.NotifyFriendAccepted(ctx, uid, request.RequesterID)
	h.analytics.Record(uid, models.EventFriendAccepted, "friendship", friendship.ID, nil)
	return c.JSON(http.StatusOK, friendship)
}

// GetFriends retrieves the caller's friend rows
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	uid := middleware.UserID(c)

	friends, err := h.friendshipRepository.ListFriends(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, friends)
}

// RemoveFriend dissolves a friendship: the canonical record, both friend rows
// and both parties' feed entries from each other are removed, along with the
// pair's summaries
func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	uid := middleware.UserID(c)
	friendID := c.Param("id")
	ctx := c.Request().Context()

	if _, err := h.friendshipRepository.GetBetween(ctx, uid, friendID); err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Friendship not found")
		}
		return err
	}

	if err := h.friendshipRepository.RemovePair(ctx, uid, friendID); err != nil {
		return err
	}
	if err := h.feedRepository.DeleteForPair(ctx, uid, friendID); err != nil {
		h.logger.Warn("pair feed cleanup failed",
			zap.String("user_id", uid), zap.String("friend_id", friendID), zap.Error(err))
	}
	if err := h.summaryRepository.DeletePair(ctx, uid, friendID); err != nil {
		h.logger.Warn("summary cleanup failed",
			zap.String("user_id", uid), zap.String("friend_id", friendID), zap.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// NudgeFriend sends a nudge, rate-limited per directed pair by the cooldown
// window. The last-sent timestamp is upserted, never appended.
func (h *FriendshipHandler) NudgeFriend(c echo.Context) error {
	uid := middleware.UserID(c)
	friendID := c.Param("id")
	ctx := c.Request().Context()

	if err := h.requireFriends(ctx, uid, friendID); err != nil {
		return err
	}

	now := time.Now()
	last, err := h.nudgeRepository.Get(ctx, uid, friendID)
	if err != nil {
		return err
	}
	var lastSent time.Time
	if last != nil {
		lastSent = last.LastSentAt
	}
	if !models.NudgeAllowed(lastSent, now, h.nudgeCooldown) {
		return apperrors.Conflict("Nudge already sent recently")
	}

	if err := h.nudgeRepository.Upsert(ctx, uid, friendID, now); err != nil {
		return err
	}
	h.notifier.NotifyNudge(ctx, uid, friendID)
	h.analytics.Record(uid, models.EventNudgeSent, "nudge", models.NudgeID(uid, friendID), nil)
	return c.NoContent(http.StatusNoContent)
}

// GetFriendSummary returns the caller's narrative about a friend,
// regenerating it when the friend has posted since the last refresh
func (h *FriendshipHandler) GetFriendSummary(c echo.Context) error {
	uid := middleware.UserID(c)
	friendID := c.Param("id")
	ctx := c.Request().Context()

	if err := h.requireFriends(ctx, uid, friendID); err != nil {
		return err
	}

	summary, err := h.summaryRepository.Get(ctx, uid, friendID)
	if err != nil && err != repositories.ErrNotFound {
		return err
	}

	updates, _, err := h.updateRepository.ListByCreator(ctx, friendID, "", defaultPageLimit)
	if err != nil {
		return err
	}
	if summary == nil || len(updates) > summary.UpdateCount {
		refreshed := h.refreshSummary(ctx, uid, friendID, updates)
		if refreshed != nil {
			summary = refreshed
		}
	}
	if summary == nil {
		summary = &models.UserSummary{
			ID:        models.SummaryID(uid, friendID),
			CreatorID: uid,
			TargetID:  friendID,
		}
	}
	return c.JSON(http.StatusOK, summary)
}

// refreshSummary regenerates the narrative. A failed generation keeps the
// previous one.
func (h *FriendshipHandler) refreshSummary(ctx context.Context, uid, friendID string, updates []models.Update) *models.UserSummary {
	snaps, err := h.profileRepository.GetSnapshots(ctx, []string{friendID})
	if err != nil {
		return nil
	}
	narrative, err := h.generator.GenerateSummary(ctx, snaps[friendID], updates)
	if err != nil {
		h.logger.Warn("summary generation failed",
			zap.String("creator_id", uid), zap.String("target_id", friendID), zap.Error(err))
		return nil
	}
	if err := h.summaryRepository.RefreshNarrative(ctx, uid, friendID, narrative, nil); err != nil {
		h.logger.Warn("summary write failed", zap.Error(err))
		return nil
	}
	summary, err := h.summaryRepository.Get(ctx, uid, friendID)
	if err != nil {
		return nil
	}
	return summary
}

func (h *FriendshipHandler) requireFriends(ctx context.Context, uid, friendID string) error {
	friendship, err := h.friendshipRepository.GetBetween(ctx, uid, friendID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.Forbidden("You are not friends with this user")
		}
		return err
	}
	if friendship.Status != models.FriendshipAccepted {
		return apperrors.Forbidden("You are not friends with this user")
	}
	return nil
}

// limitReached applies the combined friends-plus-active-invitations quota
func (h *FriendshipHandler) limitReached(ctx context.Context, profile *models.Profile) (bool, error) {
	accepted, err := h.friendshipRepository.CountAccepted(ctx, profile.UserID)
	if err != nil {
		return false, err
	}
	active, err := h.invitationRepository.CountActiveByOwner(ctx, profile.UserID, time.Now())
	if err != nil {
		return false, err
	}
	return models.CombinedLimitReached(accepted, active, h.maxCombinedFriends, profile.LimitOverride), nil
}

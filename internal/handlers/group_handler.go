package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
)

// GroupHandler handles HTTP requests related to groups
type GroupHandler struct {
	groupRepository   repositories.GroupRepository
	profileRepository repositories.ProfileRepository
	logger            *zap.Logger
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupRepo repositories.GroupRepository, profileRepo repositories.ProfileRepository, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		groupRepository:   groupRepo,
		profileRepository: profileRepo,
		logger:            logger,
	}
}

// RegisterGroupRoutes registers group-related routes
func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups", h.GetGroups)
	g.GET("/groups/:id", h.GetGroup)
	g.POST("/groups/:id/members", h.AddMember)
	g.DELETE("/groups/:id/members/:userId", h.RemoveMember)
}

// CreateGroup creates a group with the caller and any listed users as
// members. Each member's snapshot is embedded keyed by user id.
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	uid := middleware.UserID(c)

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	memberIDs := append([]string{uid}, req.MemberIDs...)
	seen := make(map[string]bool, len(memberIDs))
	deduped := memberIDs[:0]
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}

	snapshots, err := h.profileRepository.GetSnapshots(ctx, deduped)
	if err != nil {
		return err
	}

	group := &models.Group{
		Name:           req.Name,
		Icon:           req.Icon,
		CreatedBy:      uid,
		MemberIDs:      deduped,
		MemberProfiles: snapshots,
	}
	if err := h.groupRepository.Create(ctx, group); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, group)
}

// GetGroups retrieves every group the caller belongs to
func (h *GroupHandler) GetGroups(c echo.Context) error {
	uid := middleware.UserID(c)

	groups, err := h.groupRepository.ListByMember(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

// GetGroup retrieves a group the caller belongs to
func (h *GroupHandler) GetGroup(c echo.Context) error {
	uid := middleware.UserID(c)

	group, err := h.groupRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Group not found")
		}
		return err
	}
	if !group.HasMember(uid) {
		return apperrors.Forbidden("You are not a member of this group")
	}
	return c.JSON(http.StatusOK, group)
}

// AddMember adds a user to a group the caller belongs to
func (h *GroupHandler) AddMember(c echo.Context) error {
	uid := middleware.UserID(c)
	groupID := c.Param("id")

	var req models.AddGroupMemberRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	group, err := h.groupRepository.GetByID(ctx, groupID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Group not found")
		}
		return err
	}
	if !group.HasMember(uid) {
		return apperrors.Forbidden("You are not a member of this group")
	}
	if group.HasMember(req.UserID) {
		return apperrors.Conflict("User is already a member")
	}

	snaps, err := h.profileRepository.GetSnapshots(ctx, []string{req.UserID})
	if err != nil {
		return err
	}
	snap, ok := snaps[req.UserID]
	if !ok {
		return apperrors.NotFound("User profile not found")
	}

	if err := h.groupRepository.AddMember(ctx, groupID, snap); err != nil {
		return err
	}

	added, err := h.groupRepository.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, added)
}

// RemoveMember removes a user from a group. Members can remove themselves;
// the group creator can remove anyone.
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	uid := middleware.UserID(c)
	groupID := c.Param("id")
	targetID := c.Param("userId")

	ctx := c.Request().Context()
	group, err := h.groupRepository.GetByID(ctx, groupID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return apperrors.NotFound("Group not found")
		}
		return err
	}
	if uid != targetID && group.CreatedBy != uid {
		return apperrors.Forbidden("You are not authorized to remove this member")
	}
	if !group.HasMember(targetID) {
		return apperrors.NotFound("User is not a member")
	}

	if err := h.groupRepository.RemoveMember(ctx, groupID, targetID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

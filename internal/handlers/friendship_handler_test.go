package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/apperrors"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/validators"
)

type fakeFriendshipRepository struct {
	between *models.Friendship
	created *models.Friendship
}

func (f *fakeFriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeFriendshipRepository) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	if f.between == nil {
		return nil, repositories.ErrNotFound
	}
	return f.between, nil
}
func (f *fakeFriendshipRepository) CreateAccepted(ctx context.Context, friendship *models.Friendship) error {
	f.created = friendship
	return nil
}
func (f *fakeFriendshipRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}
func (f *fakeFriendshipRepository) CountAccepted(ctx context.Context, userID string) (int, error) {
	return 0, nil
}
func (f *fakeFriendshipRepository) ListBySender(ctx context.Context, userID string) ([]models.Friendship, error) {
	return nil, nil
}
func (f *fakeFriendshipRepository) ListByReceiver(ctx context.Context, userID string) ([]models.Friendship, error) {
	return nil, nil
}
func (f *fakeFriendshipRepository) ListFriends(ctx context.Context, ownerID string) ([]models.Friend, error) {
	return nil, nil
}
func (f *fakeFriendshipRepository) ListFriendIDs(ctx context.Context, ownerID string) ([]string, error) {
	return nil, nil
}
func (f *fakeFriendshipRepository) ListFriendRowsEmbedding(ctx context.Context, userID string) ([]models.Friend, error) {
	return nil, nil
}
func (f *fakeFriendshipRepository) RemovePair(ctx context.Context, userA, userB string) error {
	return nil
}

type fakeInvitationRepository struct {
	invitation *models.Invitation
	request    *models.JoinRequest
}

func (f *fakeInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	return nil
}
func (f *fakeInvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	if f.invitation == nil || f.invitation.ID != id {
		return nil, repositories.ErrNotFound
	}
	return f.invitation, nil
}
func (f *fakeInvitationRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Invitation, error) {
	return nil, nil
}
func (f *fakeInvitationRepository) CountActiveByOwner(ctx context.Context, ownerID string, now time.Time) (int, error) {
	return 0, nil
}
func (f *fakeInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return nil
}
func (f *fakeInvitationRepository) CreateJoinRequest(ctx context.Context, request *models.JoinRequest) error {
	return nil
}
func (f *fakeInvitationRepository) GetJoinRequest(ctx context.Context, id string) (*models.JoinRequest, error) {
	if f.request == nil || f.request.ID != id {
		return nil, repositories.ErrNotFound
	}
	return f.request, nil
}
func (f *fakeInvitationRepository) UpdateJoinRequestStatus(ctx context.Context, id, status string) error {
	if f.request != nil && f.request.ID == id {
		f.request.Status = status
	}
	return nil
}
func (f *fakeInvitationRepository) ListJoinRequestsByRequester(ctx context.Context, requesterID string) ([]models.JoinRequest, error) {
	return nil, nil
}
func (f *fakeInvitationRepository) ListJoinRequestsByReceiver(ctx context.Context, receiverID string) ([]models.JoinRequest, error) {
	return nil, nil
}

type fakeSummaryRepository struct{}

func (f *fakeSummaryRepository) Get(ctx context.Context, creatorID, targetID string) (*models.UserSummary, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeSummaryRepository) Upsert(ctx context.Context, summary *models.UserSummary) error {
	return nil
}
func (f *fakeSummaryRepository) RefreshNarrative(ctx context.Context, creatorID, targetID, narrative string, suggestions []string) error {
	return nil
}
func (f *fakeSummaryRepository) DeletePair(ctx context.Context, userA, userB string) error {
	return nil
}
func (f *fakeSummaryRepository) DeleteByUser(ctx context.Context, userID string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) NotifyNewUpdate(ctx context.Context, update *models.Update, recipientIDs []string) {
}
func (noopNotifier) NotifyNewComment(ctx context.Context, comment *models.Comment, update *models.Update) {
}
func (noopNotifier) NotifyInvitation(ctx context.Context, invitation *models.Invitation, receiverID string) {
}
func (noopNotifier) NotifyFriendAccepted(ctx context.Context, accepterID, senderID string) {}
func (noopNotifier) NotifyNudge(ctx context.Context, fromID, toID string)                  {}

func resolveContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	e.Validator = validators.New()
	req := httptest.NewRequest(http.MethodPut, "/invitations/inv1/requests/jr1",
		strings.NewReader(`{"status":"accepted"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id", "rid")
	c.SetParamValues("inv1", "jr1")
	c.Set(middleware.ContextUserID, "owner")
	return c
}

func resolveHandler(friendships *fakeFriendshipRepository) *FriendshipHandler {
	invitations := &fakeInvitationRepository{
		invitation: &models.Invitation{ID: "inv1", OwnerID: "owner", Status: models.InvitationActive},
		request: &models.JoinRequest{
			ID:           "jr1",
			InvitationID: "inv1",
			RequesterID:  "requester",
			Status:       models.JoinRequestPending,
		},
	}
	return NewFriendshipHandler(friendships, invitations, &fakeProfileRepository{},
		nil, &fakeSummaryRepository{}, nil, nil, nil, noopNotifier{}, nil, zap.NewNop(),
		50, 72*time.Hour, 6*time.Hour)
}

// Accepting a join request from someone who is already a friend must surface
// a conflict instead of colliding on the deterministic friendship id.
func TestResolveJoinRequestAlreadyFriends(t *testing.T) {
	friendships := &fakeFriendshipRepository{between: &models.Friendship{
		ID:     models.FriendshipID("owner", "requester"),
		Status: models.FriendshipAccepted,
	}}
	h := resolveHandler(friendships)

	err := h.ResolveJoinRequest(resolveContext(t))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Nil(t, friendships.created, "no second friendship may be written")
}

func TestResolveJoinRequestAccepts(t *testing.T) {
	friendships := &fakeFriendshipRepository{}
	h := resolveHandler(friendships)

	require.NoError(t, h.ResolveJoinRequest(resolveContext(t)))
	require.NotNil(t, friendships.created)
	assert.Equal(t, "requester", friendships.created.SenderID)
	assert.Equal(t, "owner", friendships.created.ReceiverID)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/fanout"
	"github.com/loopline-app/backend/internal/middleware"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
	"github.com/loopline-app/backend/validators"
)

// callLog records the order of side-effecting calls across fakes
type callLog struct {
	calls []string
}

type fakeUpdateRepository struct {
	log    *callLog
	update *models.Update
}

func (f *fakeUpdateRepository) Create(ctx context.Context, update *models.Update) error { return nil }
func (f *fakeUpdateRepository) GetByID(ctx context.Context, id string) (*models.Update, error) {
	if f.update == nil || f.update.ID.Hex() != id {
		return nil, repositories.ErrNotFound
	}
	u := *f.update
	return &u, nil
}
func (f *fakeUpdateRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Update, error) {
	return nil, nil
}
func (f *fakeUpdateRepository) ListByCreator(ctx context.Context, userID, cursor string, limit int) ([]models.Update, string, error) {
	return nil, "", nil
}
func (f *fakeUpdateRepository) ListAllByCreator(ctx context.Context, userID string) ([]models.Update, error) {
	return nil, nil
}
func (f *fakeUpdateRepository) ListSharedWith(ctx context.Context, userID string) ([]models.Update, error) {
	return nil, nil
}
func (f *fakeUpdateRepository) IDsByCreator(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (f *fakeUpdateRepository) AppendShareTargets(ctx context.Context, id string, friendIDs, groupIDs []string, snapshots []models.ProfileSnapshot) error {
	f.log.calls = append(f.log.calls, "append")
	f.update.FriendIDs = append(f.update.FriendIDs, friendIDs...)
	f.update.GroupIDs = append(f.update.GroupIDs, groupIDs...)
	return nil
}
func (f *fakeUpdateRepository) SetSentiment(ctx context.Context, id, label string, score float64, emoji string) error {
	return nil
}
func (f *fakeUpdateRepository) SetImageRefs(ctx context.Context, id string, refs []string) error {
	return nil
}
func (f *fakeUpdateRepository) Delete(ctx context.Context, id string) error { return nil }

type fakeShareCommitter struct {
	log *callLog
	err error
}

func (f *fakeShareCommitter) Commit(ctx context.Context, ops []store.WriteOp) error {
	if f.err != nil {
		return f.err
	}
	f.log.calls = append(f.log.calls, "commit")
	return nil
}

type fakeProfileRepository struct{}

func (f *fakeProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return nil
}
func (f *fakeProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return &models.Profile{UserID: userID, Name: strings.ToUpper(userID)}, nil
}
func (f *fakeProfileRepository) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	return nil, repositories.ErrNotFound
}
func (f *fakeProfileRepository) GetSnapshots(ctx context.Context, userIDs []string) (map[string]models.ProfileSnapshot, error) {
	out := make(map[string]models.ProfileSnapshot, len(userIDs))
	for _, id := range userIDs {
		out[id] = models.ProfileSnapshot{UserID: id}
	}
	return out, nil
}
func (f *fakeProfileRepository) UpdateFields(ctx context.Context, userID string, fields bson.M) error {
	return nil
}
func (f *fakeProfileRepository) Delete(ctx context.Context, userID string) error { return nil }

func shareContext(t *testing.T, updateID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.New()
	req := httptest.NewRequest(http.MethodPost, "/updates/"+updateID+"/share",
		strings.NewReader(`{"friend_ids":["x","y"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(updateID)
	c.Set(middleware.ContextUserID, "author")
	return c, rec
}

func shareHandler(log *callLog, committer store.Committer) (*UpdateHandler, *fakeUpdateRepository) {
	update := &models.Update{
		ID:        primitive.NewObjectID(),
		CreatedBy: "author",
		FriendIDs: []string{"x"},
		VisibleTo: []string{models.FriendVisibility("author"), models.FriendVisibility("x")},
	}
	updateRepo := &fakeUpdateRepository{log: log, update: update}
	writer := fanout.NewWriter(&fakeGroupRepository{}, nil, committer, zap.NewNop())
	h := NewUpdateHandler(updateRepo, nil, &fakeProfileRepository{}, &fakeGroupRepository{},
		writer, committer, nil, nil, nil, nil, zap.NewNop())
	return h, updateRepo
}

// Feed entries are written before the share lists are extended. A fan-out
// failure must leave the lists untouched so a retry still sees the new
// targets; the feed writes themselves are keyed upserts and safe to re-issue.
func TestShareUpdateFansOutBeforeAppendingTargets(t *testing.T) {
	log := &callLog{}
	h, repo := shareHandler(log, &fakeShareCommitter{log: log})
	c, rec := shareContext(t, repo.update.ID.Hex())

	require.NoError(t, h.ShareUpdate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"commit", "append"}, log.calls)
	assert.Equal(t, []string{"x", "y"}, repo.update.FriendIDs)
}

func TestShareUpdateFanOutFailureLeavesTargetsUnextended(t *testing.T) {
	log := &callLog{}
	h, repo := shareHandler(log, &fakeShareCommitter{log: log, err: errors.New("bulk write failed")})
	c, _ := shareContext(t, repo.update.ID.Hex())

	require.Error(t, h.ShareUpdate(c))
	assert.NotContains(t, log.calls, "append", "share lists must not be extended on a failed fan-out")
	assert.Equal(t, []string{"x"}, repo.update.FriendIDs, "a retry computes the same new targets")
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loopline-app/backend/internal/models"
)

// fakeGroupRepository serves a fixed membership map
type fakeGroupRepository struct {
	groups []models.Group
}

func (f *fakeGroupRepository) Create(ctx context.Context, group *models.Group) error { return nil }
func (f *fakeGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepository) ListByMember(ctx context.Context, userID string) ([]models.Group, error) {
	var out []models.Group
	for _, g := range f.groups {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}
func (f *fakeGroupRepository) AddMember(ctx context.Context, groupID string, snapshot models.ProfileSnapshot) error {
	return nil
}
func (f *fakeGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return nil
}

func TestVisibleToUser(t *testing.T) {
	groupID := primitive.NewObjectID()
	repo := &fakeGroupRepository{groups: []models.Group{{
		ID:        groupID,
		MemberIDs: []string{"y", "z"},
	}}}

	update := &models.Update{
		CreatedBy: "author",
		VisibleTo: []string{
			models.FriendVisibility("author"),
			models.FriendVisibility("x"),
			models.GroupVisibility(groupID.Hex()),
		},
	}

	tests := []struct {
		name string
		uid  string
		want bool
	}{
		{"author sees own update", "author", true},
		{"directly shared friend", "x", true},
		{"group member", "z", true},
		{"stranger", "w", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := visibleToUser(context.Background(), repo, update, tt.uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVisibleToUserIgnoresForeignGroups(t *testing.T) {
	// Membership in a group the update was never shared with grants nothing.
	otherGroup := primitive.NewObjectID()
	repo := &fakeGroupRepository{groups: []models.Group{{
		ID:        otherGroup,
		MemberIDs: []string{"y"},
	}}}
	update := &models.Update{
		CreatedBy: "author",
		VisibleTo: []string{models.FriendVisibility("author")},
	}

	got, err := visibleToUser(context.Background(), repo, update, "y")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPageLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultPageLimit},
		{"limit=0", defaultPageLimit},
		{"limit=-3", defaultPageLimit},
		{"limit=abc", defaultPageLimit},
		{"limit=101", defaultPageLimit},
		{"limit=1", 1},
		{"limit=100", 100},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed?"+tt.query, nil)
			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, pageLimit(c))
		})
	}
}

package fanout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
)

func TestRecipients(t *testing.T) {
	tests := []struct {
		name          string
		includeAuthor bool
		friendIDs     []string
		groupMembers  map[string][]string
		want          []string
	}{
		{
			name:          "author only on initial creation",
			includeAuthor: true,
			want:          []string{"author"},
		},
		{
			name:          "share pass excludes author",
			includeAuthor: false,
			friendIDs:     []string{"x"},
			want:          []string{"x"},
		},
		{
			name:          "friend and group union",
			includeAuthor: true,
			friendIDs:     []string{"x", "y"},
			groupMembers:  map[string][]string{"g1": {"y", "z"}},
			want:          []string{"author", "x", "y", "z"},
		},
		{
			name:          "recipient reachable by multiple paths appears once",
			includeAuthor: true,
			friendIDs:     []string{"x", "x"},
			groupMembers:  map[string][]string{"g1": {"x"}, "g2": {"x"}},
			want:          []string{"author", "x"},
		},
		{
			name:          "empty ids are dropped",
			includeAuthor: false,
			friendIDs:     []string{"", "x"},
			groupMembers:  map[string][]string{"g1": {""}},
			want:          []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recipients("author", tt.includeAuthor, tt.friendIDs, tt.groupMembers)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTargets(t *testing.T) {
	t.Run("already shared ids are filtered", func(t *testing.T) {
		got := NewTargets([]string{"x", "y", "z"}, []string{"y"})
		assert.Equal(t, []string{"x", "z"}, got)
	})

	t.Run("duplicate requests collapse", func(t *testing.T) {
		got := NewTargets([]string{"x", "x"}, nil)
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("fully overlapping share is empty", func(t *testing.T) {
		assert.Empty(t, NewTargets([]string{"x"}, []string{"x"}))
	})
}

// Post created with friends x,y then shared with group g1={y,z} must end up
// in exactly the feeds of author, x, y and z.
func TestShareScenarioFinalRecipientSet(t *testing.T) {
	created := Recipients("author", true, []string{"x", "y"}, nil)
	assert.Equal(t, []string{"author", "x", "y"}, created)

	shared := Recipients("author", false, nil, map[string][]string{"g1": {"y", "z"}})
	assert.Equal(t, []string{"y", "z"}, shared)

	// feed entries are keyed upserts, so the union is the final entry set
	final := map[string]bool{}
	for _, id := range append(created, shared...) {
		final[id] = true
	}
	assert.Len(t, final, 4)
	for _, id := range []string{"author", "x", "y", "z"} {
		assert.True(t, final[id], id)
	}
}

func TestPlanOps(t *testing.T) {
	update := &models.Update{
		ID:        primitive.NewObjectID(),
		CreatedBy: "author",
		CreatedAt: time.Now(),
	}
	friendIDs := []string{"x"}
	groupIDs := []string{"g1"}
	groupMembers := map[string][]string{"g1": {"y"}}
	recipients := Recipients("author", true, friendIDs, groupMembers)

	ops := PlanOps(update, recipients, friendIDs, groupIDs, groupMembers)
	require.Len(t, ops, 4) // 3 feed entries + 1 visible_to addition

	byOwner := map[string]store.WriteOp{}
	for _, op := range ops[:3] {
		assert.Equal(t, store.CollFeedEntries, op.Collection)
		assert.True(t, op.Upsert, "feed entries must be keyed upserts")
		byOwner[op.Filter["owner_id"].(string)] = op
	}

	authorEntry := byOwner["author"].Update["$setOnInsert"].(bson.M)
	assert.Equal(t, true, authorEntry["direct_visible"])

	friendEntry := byOwner["x"].Update["$setOnInsert"].(bson.M)
	assert.Equal(t, true, friendEntry["direct_visible"])
	assert.Equal(t, "x", friendEntry["friend_id"])

	groupEntry := byOwner["y"].Update["$setOnInsert"].(bson.M)
	assert.Equal(t, false, groupEntry["direct_visible"])
	assert.Equal(t, []string{"g1"}, groupEntry["group_ids"])

	vis := ops[3].Update["$addToSet"].(bson.M)["visible_to"].(bson.M)["$each"].([]string)
	assert.ElementsMatch(t, []string{models.FriendVisibility("x"), models.GroupVisibility("g1")}, vis)
}

// Re-planning the same share yields ops that re-apply identical values: the
// upsert filter and $setOnInsert payload make a retry a no-op at the store.
func TestPlanOpsIdempotentShape(t *testing.T) {
	update := &models.Update{ID: primitive.NewObjectID(), CreatedBy: "author", CreatedAt: time.Now()}
	recipients := Recipients("author", true, []string{"x"}, nil)

	first := PlanOps(update, recipients, []string{"x"}, nil, nil)
	second := PlanOps(update, recipients, []string{"x"}, nil, nil)
	assert.Equal(t, first, second)
}

package denorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
)

var snap = models.ProfileSnapshot{
	UserID:   "user-a",
	Username: "newname",
	Name:     "New Name",
	Avatar:   "https://cdn.example.com/a.png",
}

func TestPlanOpsEmptyLocatedPlansNothing(t *testing.T) {
	assert.Empty(t, PlanOps(snap, Located{}))
}

func TestPlanOpsOnePerLocatedRecord(t *testing.T) {
	located := Located{
		Invitations:         []models.Invitation{{ID: "inv-1"}},
		RequesterRequests:   []models.JoinRequest{{ID: "req-1"}, {ID: "req-2"}},
		ReceiverRequests:    []models.JoinRequest{{ID: "req-3"}},
		SenderFriendships:   []models.Friendship{{ID: "a_b"}},
		ReceiverFriendships: []models.Friendship{{ID: "a_c"}},
		FriendRows:          []models.Friend{{ID: primitive.NewObjectID()}},
		Groups:              []models.Group{{ID: primitive.NewObjectID()}},
		AuthoredUpdates:     []models.Update{{ID: primitive.NewObjectID()}},
		SharedUpdates:       []models.Update{{ID: primitive.NewObjectID()}},
		AuthoredComments:    []models.Comment{{ID: primitive.NewObjectID()}},
	}

	ops := PlanOps(snap, located)
	assert.Len(t, ops, 11)

	// every op overwrites exactly the three replicated fields
	for _, op := range ops {
		set := op.Update["$set"].(bson.M)
		require.Len(t, set, 3)
		usernames := 0
		for key, val := range set {
			switch {
			case strings.HasSuffix(key, "username"):
				assert.Equal(t, snap.Username, val)
				usernames++
			case strings.HasSuffix(key, "name"):
				assert.Equal(t, snap.Name, val)
			case strings.HasSuffix(key, "avatar"):
				assert.Equal(t, snap.Avatar, val)
			default:
				t.Fatalf("unexpected replicated field %q", key)
			}
		}
		assert.Equal(t, 1, usernames)
	}
}

func TestPlanOpsGroupPatchIsKeyedBySnapshotUser(t *testing.T) {
	groupID := primitive.NewObjectID()
	ops := PlanOps(snap, Located{Groups: []models.Group{{ID: groupID}}})
	require.Len(t, ops, 1)

	assert.Equal(t, store.CollGroups, ops[0].Collection)
	set := ops[0].Update["$set"].(bson.M)
	assert.Contains(t, set, "member_profiles.user-a.username")
	assert.Contains(t, set, "member_profiles.user-a.name")
	assert.Contains(t, set, "member_profiles.user-a.avatar")
}

func TestPlanOpsSharedUpdateUsesPositionalFilter(t *testing.T) {
	updateID := primitive.NewObjectID()
	ops := PlanOps(snap, Located{SharedUpdates: []models.Update{{ID: updateID}}})
	require.Len(t, ops, 1)

	assert.Equal(t, "user-a", ops[0].Filter["shared_with_profiles.user_id"])
	set := ops[0].Update["$set"].(bson.M)
	assert.Contains(t, set, "shared_with_profiles.$.username")
}

func TestPlanOpsFriendshipSidesTargetDistinctFields(t *testing.T) {
	ops := PlanOps(snap, Located{
		SenderFriendships:   []models.Friendship{{ID: "a_b"}},
		ReceiverFriendships: []models.Friendship{{ID: "a_c"}},
	})
	require.Len(t, ops, 2)

	sender := ops[0].Update["$set"].(bson.M)
	receiver := ops[1].Update["$set"].(bson.M)
	assert.Contains(t, sender, "sender_profile.username")
	assert.Contains(t, receiver, "receiver_profile.username")
}

// Plans are deterministic functions of their input, so replaying a plan after
// a partial commit re-applies identical values.
func TestPlanOpsDeterministic(t *testing.T) {
	located := Located{
		Invitations:     []models.Invitation{{ID: "inv-1"}},
		AuthoredUpdates: []models.Update{{ID: primitive.NewObjectID()}},
	}
	assert.Equal(t, PlanOps(snap, located), PlanOps(snap, located))
}

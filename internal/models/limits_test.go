package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// User with 2 friends and 1 pending invitation sends a 4th invitation against
// a combined limit of 5: allowed. At 2+3 the limit is reached and further
// invitations fail unless the user carries an override.
func TestCombinedLimitScenario(t *testing.T) {
	const limit = 5

	assert.False(t, CombinedLimitReached(2, 1, limit, false), "3 of 5 used, invitation allowed")
	assert.False(t, CombinedLimitReached(2, 2, limit, false), "4 of 5 used, invitation allowed")
	assert.True(t, CombinedLimitReached(2, 3, limit, false), "limit reached")
	assert.True(t, CombinedLimitReached(5, 0, limit, false), "friends alone can exhaust the quota")
	assert.False(t, CombinedLimitReached(2, 3, limit, true), "override flag exempts the user")
	assert.False(t, CombinedLimitReached(9, 9, limit, true))
}

func TestFriendshipIDDeterministic(t *testing.T) {
	assert.Equal(t, "alice_bob", FriendshipID("alice", "bob"))
	assert.Equal(t, "alice_bob", FriendshipID("bob", "alice"))
	assert.Equal(t, FriendshipID("x", "y"), FriendshipID("y", "x"))
}

func TestNudgeAllowed(t *testing.T) {
	now := time.Now()
	cooldown := 6 * time.Hour

	assert.True(t, NudgeAllowed(time.Time{}, now, cooldown), "never nudged before")
	assert.True(t, NudgeAllowed(now.Add(-cooldown), now, cooldown), "cooldown exactly elapsed")
	assert.True(t, NudgeAllowed(now.Add(-7*time.Hour), now, cooldown))
	assert.False(t, NudgeAllowed(now.Add(-time.Minute), now, cooldown), "inside the cooldown window")
}

func TestClampCount(t *testing.T) {
	assert.Equal(t, 0, ClampCount(-3), "undershot counters display as zero")
	assert.Equal(t, 0, ClampCount(0))
	assert.Equal(t, 7, ClampCount(7))
}

func TestDisplayReactionTypesClampsTallies(t *testing.T) {
	u := Update{ReactionTypes: map[string]int{"love": 2, "wow": -1}}
	got := u.DisplayReactionTypes()
	assert.Equal(t, map[string]int{"love": 2, "wow": 0}, got)
}

func TestForDisplayClampsCountersWithoutMutating(t *testing.T) {
	u := Update{
		CommentCount:  -2,
		ReactionCount: 5,
		ReactionTypes: map[string]int{"love": 3, "wow": -1},
	}

	got := u.ForDisplay()
	assert.Equal(t, 0, got.CommentCount)
	assert.Equal(t, 5, got.ReactionCount)
	assert.Equal(t, map[string]int{"love": 3, "wow": 0}, got.ReactionTypes)

	out, err := json.Marshal(got)
	assert.NoError(t, err)
	assert.Contains(t, string(out), `"comment_count":0`)

	assert.Equal(t, -2, u.CommentCount, "stored counters stay as written")
	assert.Equal(t, map[string]int{"love": 3, "wow": -1}, u.ReactionTypes)
}

func TestUpdateVisibleBy(t *testing.T) {
	u := Update{VisibleTo: []string{
		FriendVisibility("author"),
		FriendVisibility("x"),
		GroupVisibility("g1"),
	}}

	assert.True(t, u.VisibleBy(FriendVisibility("x")))
	assert.True(t, u.VisibleBy(FriendVisibility("z"), GroupVisibility("g1")), "any group identifier grants access")
	assert.False(t, u.VisibleBy(FriendVisibility("z")))
	assert.False(t, u.VisibleBy())
}

func TestInvitationActive(t *testing.T) {
	now := time.Now()
	live := Invitation{Status: InvitationActive, ExpiresAt: now.Add(time.Hour)}
	expired := Invitation{Status: InvitationActive, ExpiresAt: now.Add(-time.Hour)}
	revoked := Invitation{Status: InvitationRevoked, ExpiresAt: now.Add(time.Hour)}

	assert.True(t, live.Active(now))
	assert.False(t, expired.Active(now), "past expiry no longer counts against the quota")
	assert.False(t, revoked.Active(now))
}

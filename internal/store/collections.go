package store

// Collection names. Write ops reference collections by name so a single
// batch can span all of them.
const (
	CollProfiles     = "profiles"
	CollUpdates      = "updates"
	CollFeedEntries  = "feed_entries"
	CollFriendships  = "friendships"
	CollFriends      = "friends"
	CollGroups       = "groups"
	CollInvitations  = "invitations"
	CollJoinRequests = "join_requests"
	CollComments     = "comments"
	CollReactions    = "reactions"
	CollSummaries    = "user_summaries"
	CollNudges       = "nudges"
)

package models

// CombinedLimitReached reports whether a user has exhausted the combined
// quota of accepted friendships plus currently active outbound invitations.
// The check runs before any invitation or acceptance write, so a fast fail
// leaves no partial state. Users carrying an override flag are exempt.
func CombinedLimitReached(acceptedFriends, activeInvitations, limit int, override bool) bool {
	if override {
		return false
	}
	return acceptedFriends+activeInvitations >= limit
}

package fanout

import "sort"

// Recipients computes the deduplicated recipient set for an update: the
// author (on initial creation only), every directly-shared friend, and every
// member of every shared group. A user reachable by multiple paths appears
// exactly once. The result is sorted so fan-out writes are deterministic.
func Recipients(authorID string, includeAuthor bool, friendIDs []string, groupMembers map[string][]string) []string {
	seen := make(map[string]bool)
	if includeAuthor {
		seen[authorID] = true
	}
	for _, id := range friendIDs {
		if id != "" {
			seen[id] = true
		}
	}
	for _, members := range groupMembers {
		for _, id := range members {
			if id != "" {
				seen[id] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NewTargets filters requested share targets down to those not already on the
// update's share lists, making repeated share calls safe to retry: a
// recipient who already has a feed entry is simply never re-derived.
func NewTargets(requested, existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}
	var out []string
	for _, id := range requested {
		if id != "" && !have[id] && !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility identifier prefixes. An update's visible_to set holds one
// identifier per friend and per group allowed to see it; access checks
// consult this set only.
const (
	visibilityFriendPrefix = "friend:"
	visibilityGroupPrefix  = "group:"
)

// FriendVisibility returns the visible_to identifier for a friend (or the author)
func FriendVisibility(userID string) string {
	return visibilityFriendPrefix + userID
}

// GroupVisibility returns the visible_to identifier for a group
func GroupVisibility(groupID string) string {
	return visibilityGroupPrefix + groupID
}

// Update represents a post shared with friends and groups, stored in MongoDB
type Update struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CreatedBy string             `json:"created_by" bson:"created_by"` // Firebase UID of the author
	Content   string             `json:"content" bson:"content"`

	Sentiment      string  `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	SentimentScore float64 `json:"sentiment_score,omitempty" bson:"sentiment_score,omitempty"`
	SentimentEmoji string  `json:"sentiment_emoji,omitempty" bson:"sentiment_emoji,omitempty"`

	FriendIDs   []string `json:"friend_ids,omitempty" bson:"friend_ids,omitempty"`
	GroupIDs    []string `json:"group_ids,omitempty" bson:"group_ids,omitempty"`
	AllContacts bool     `json:"all_contacts" bson:"all_contacts"`

	// VisibleTo is the single source of truth for access checks. It always
	// contains an identifier for the author and for every id in the share lists.
	VisibleTo []string `json:"-" bson:"visible_to"`

	ImageRefs []string `json:"image_refs,omitempty" bson:"image_refs,omitempty"`

	CommentCount  int            `json:"comment_count" bson:"comment_count"`
	ReactionCount int            `json:"reaction_count" bson:"reaction_count"`
	ReactionTypes map[string]int `json:"reaction_types,omitempty" bson:"reaction_types,omitempty"`

	// CreatorProfile and SharedWithProfiles are denormalized snapshots kept
	// consistent by profile-change propagation.
	CreatorProfile     ProfileSnapshot   `json:"creator_profile" bson:"creator_profile"`
	SharedWithProfiles []ProfileSnapshot `json:"shared_with_profiles,omitempty" bson:"shared_with_profiles,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// VisibleBy reports whether any of the given visibility identifiers grants
// access to this update
func (u *Update) VisibleBy(identifiers ...string) bool {
	for _, want := range identifiers {
		for _, have := range u.VisibleTo {
			if want == have {
				return true
			}
		}
	}
	return false
}

// ClampCount clamps a denormalized counter at zero for display. Stored values
// may undershoot after a historical partial failure; the stored value itself
// is never rewritten, only the externally observed one.
func ClampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ForDisplay returns a copy of the update with all counters clamped at zero.
// Every response that serializes an update goes through it; the stored
// document is left untouched.
func (u Update) ForDisplay() Update {
	u.CommentCount = ClampCount(u.CommentCount)
	u.ReactionCount = ClampCount(u.ReactionCount)
	u.ReactionTypes = u.DisplayReactionTypes()
	return u
}

// DisplayReactionTypes returns the reaction_types map with every tally clamped at zero
func (u *Update) DisplayReactionTypes() map[string]int {
	if len(u.ReactionTypes) == 0 {
		return nil
	}
	out := make(map[string]int, len(u.ReactionTypes))
	for t, n := range u.ReactionTypes {
		out[t] = ClampCount(n)
	}
	return out
}

// CreateUpdateRequest defines the request body for creating a new update
type CreateUpdateRequest struct {
	Content     string   `json:"content" validate:"required,min=1,max=2000"`
	FriendIDs   []string `json:"friend_ids,omitempty"`
	GroupIDs    []string `json:"group_ids,omitempty"`
	AllContacts bool     `json:"all_contacts,omitempty"`
	ImageRefs   []string `json:"image_refs,omitempty"`
}

// ShareUpdateRequest defines the request body for sharing an existing update
// with additional recipients
type ShareUpdateRequest struct {
	FriendIDs   []string `json:"friend_ids,omitempty"`
	GroupIDs    []string `json:"group_ids,omitempty"`
	AllContacts bool     `json:"all_contacts,omitempty"`
}

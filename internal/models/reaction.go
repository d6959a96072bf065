package models

import "time"

// ReactionTypes accepted by the API
var ReactionTypes = []string{"love", "laugh", "wow", "sad", "hug", "fire"}

// ValidReactionType reports whether t is an accepted reaction type
func ValidReactionType(t string) bool {
	for _, v := range ReactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ReactionID derives the per-user-per-update reaction document id
func ReactionID(updateID, userID string) string {
	return updateID + "_" + userID
}

// Reaction is the per-user-per-update document listing the reaction types the
// user currently holds. A user may hold several types at once; the update's
// reaction_count and reaction_types tallies are incremented in the same
// transaction that mutates this document.
type Reaction struct {
	ID       string   `json:"id" bson:"_id"`
	UpdateID string   `json:"update_id" bson:"update_id"`
	UserID   string   `json:"user_id" bson:"user_id"`
	Types    []string `json:"types" bson:"types"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// HasType reports whether the user currently holds reaction type t
func (r *Reaction) HasType(t string) bool {
	if r == nil {
		return false
	}
	for _, held := range r.Types {
		if held == t {
			return true
		}
	}
	return false
}

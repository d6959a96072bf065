package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Friendship statuses
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipRejected = "rejected"
	FriendshipExpired  = "expired"
)

// FriendshipID derives the deterministic document id for a relationship by
// lexicographically sorting the two participant ids, so either party's lookup
// resolves to the same record without an OR-query across both orderings.
func FriendshipID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// Friendship is the canonical two-party relationship record. It is keyed by
// FriendshipID and embeds both parties' profile snapshots, which are kept
// consistent by profile-change propagation.
type Friendship struct {
	ID         string `json:"id" bson:"_id"`
	SenderID   string `json:"sender_id" bson:"sender_id"`
	ReceiverID string `json:"receiver_id" bson:"receiver_id"`

	SenderProfile   ProfileSnapshot `json:"sender_profile" bson:"sender_profile"`
	ReceiverProfile ProfileSnapshot `json:"receiver_profile" bson:"receiver_profile"`

	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// OtherSide returns the snapshot of the party that is not userID
func (f *Friendship) OtherSide(userID string) ProfileSnapshot {
	if f.SenderID == userID {
		return f.ReceiverProfile
	}
	return f.SenderProfile
}

// Friend is the lightweight per-side friend row used for cheap friend-list
// scans. One exists in each party's list for an accepted friendship, and each
// independently embeds the other party's snapshot, so profile changes must be
// propagated to both this shape and the canonical Friendship record.
type Friend struct {
	ID       primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	OwnerID  string             `json:"owner_id" bson:"owner_id"`
	FriendID string             `json:"friend_id" bson:"friend_id"`
	Profile  ProfileSnapshot    `json:"profile" bson:"profile"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

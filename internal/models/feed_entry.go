package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedEntry is the denormalized feed index row written at fan-out time.
// Exactly one entry exists per (owner, update) pair; a user's feed is read
// from this collection alone, with update bodies re-fetched in bulk by id.
type FeedEntry struct {
	ID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	OwnerID   string             `json:"owner_id" bson:"owner_id"`
	UpdateID  string             `json:"update_id" bson:"update_id"`
	CreatedBy string             `json:"created_by" bson:"created_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`

	// DirectVisible is true when the owner was shared with as a friend
	// rather than only through a group
	DirectVisible bool `json:"direct_visible" bson:"direct_visible"`

	// FriendID and GroupIDs record which share-list entries caused this
	// entry to exist
	FriendID string   `json:"friend_id,omitempty" bson:"friend_id,omitempty"`
	GroupIDs []string `json:"group_ids,omitempty" bson:"group_ids,omitempty"`
}

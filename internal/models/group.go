package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a named set of members updates can be shared with.
// MemberProfiles is keyed by member id so a single member's denormalized
// fields are patched with one keyed $set, never a positional array scan.
type Group struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Icon      string             `json:"icon,omitempty" bson:"icon,omitempty"`
	CreatedBy string             `json:"created_by" bson:"created_by"`

	MemberIDs      []string                   `json:"member_ids" bson:"member_ids"`
	MemberProfiles map[string]ProfileSnapshot `json:"member_profiles" bson:"member_profiles"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// HasMember reports whether userID is a member of the group
func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CreateGroupRequest defines the request body for creating a group
type CreateGroupRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=50"`
	Icon      string   `json:"icon,omitempty"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// AddGroupMemberRequest defines the request body for adding a member to a group
type AddGroupMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

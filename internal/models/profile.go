package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileSnapshot is the denormalized copy of a profile's display fields that
// gets embedded wherever a user is shown without a join: friendships, friend
// rows, group member maps, invitations, join requests, update share lists and
// comments. Username, name and avatar are the only fields ever replicated.
type ProfileSnapshot struct {
	UserID   string `json:"user_id" bson:"user_id"`
	Username string `json:"username" bson:"username"`
	Name     string `json:"name" bson:"name"`
	Avatar   string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// NotificationPrefs holds a user's push notification preferences
type NotificationPrefs struct {
	NewUpdates bool `json:"new_updates" bson:"new_updates"`
	Comments   bool `json:"comments" bson:"comments"`
	Reactions  bool `json:"reactions" bson:"reactions"`
	Nudges     bool `json:"nudges" bson:"nudges"`
}

// Profile represents a user profile stored in MongoDB
type Profile struct {
	ID       primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID   string             `json:"user_id" bson:"user_id"` // Firebase UID
	Username string             `json:"username" bson:"username"`
	Name     string             `json:"name" bson:"name"`
	Avatar   string             `json:"avatar,omitempty" bson:"avatar,omitempty"`

	Phone         string            `json:"phone,omitempty" bson:"phone,omitempty"`
	DeviceToken   string            `json:"-" bson:"device_token,omitempty"`
	Timezone      string            `json:"timezone,omitempty" bson:"timezone,omitempty"`
	Personality   string            `json:"personality,omitempty" bson:"personality,omitempty"`
	NudgeSchedule string            `json:"nudge_schedule,omitempty" bson:"nudge_schedule,omitempty"`
	Notifications NotificationPrefs `json:"notifications" bson:"notifications"`

	// AI-maintained narrative fields, refreshed out of band. Never replicated.
	Summary     string   `json:"summary,omitempty" bson:"summary,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
	Insights    []string `json:"insights,omitempty" bson:"insights,omitempty"`

	// LimitOverride exempts the user from the combined friends+invitations quota
	LimitOverride bool `json:"-" bson:"limit_override,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Snapshot returns the denormalized copy of the profile's display fields
func (p *Profile) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		UserID:   p.UserID,
		Username: p.Username,
		Name:     p.Name,
		Avatar:   p.Avatar,
	}
}

// CreateProfileRequest defines the request body for creating a profile
type CreateProfileRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Avatar   string `json:"avatar,omitempty" validate:"omitempty,url"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Timezone string `json:"timezone,omitempty"`
}

// UpdateProfileRequest defines the request body for updating a profile.
// A change to username, name or avatar triggers denormalization propagation.
type UpdateProfileRequest struct {
	Username      string             `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	Name          string             `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Avatar        string             `json:"avatar,omitempty" validate:"omitempty,url"`
	Phone         string             `json:"phone,omitempty" validate:"omitempty,e164"`
	Timezone      string             `json:"timezone,omitempty"`
	Personality   string             `json:"personality,omitempty"`
	NudgeSchedule string             `json:"nudge_schedule,omitempty"`
	Notifications *NotificationPrefs `json:"notifications,omitempty"`
	DeviceToken   string             `json:"device_token,omitempty"`
}

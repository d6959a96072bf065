package models

import "gorm.io/gorm"

// Analytics event names emitted by the core operations
const (
	EventUpdateCreated   = "update_created"
	EventUpdateShared    = "update_shared"
	EventCommentCreated  = "comment_created"
	EventReactionAdded   = "reaction_added"
	EventReactionRemoved = "reaction_removed"
	EventProfileUpdated  = "profile_updated"
	EventNudgeSent       = "nudge_sent"
	EventFriendAccepted  = "friend_accepted"
)

// AnalyticsEvent is an append-only row in PostgreSQL describing a completed
// core operation. Recording is best-effort and never blocks the caller.
type AnalyticsEvent struct {
	gorm.Model
	UserID   string `json:"user_id" gorm:"index"`
	Event    string `json:"event" gorm:"type:varchar(40);index"`
	Entity   string `json:"entity" gorm:"type:varchar(30)"`
	EntityID string `json:"entity_id"`
	Metadata string `json:"metadata,omitempty"` // free-form JSON payload
}

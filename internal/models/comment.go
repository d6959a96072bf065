package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment on an update. The commenter snapshot is
// denormalized so comment lists never join against profiles.
type Comment struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UpdateID string             `json:"update_id" bson:"update_id"`
	UserID   string             `json:"user_id" bson:"user_id"`

	CommenterProfile ProfileSnapshot `json:"commenter_profile" bson:"commenter_profile"`

	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// CreateCommentRequest defines the request body for creating a comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

package models

import "time"

// Invitation statuses
const (
	InvitationActive   = "active"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
	InvitationConsumed = "consumed"
)

// Join request statuses
const (
	JoinRequestPending  = "pending"
	JoinRequestAccepted = "accepted"
	JoinRequestRejected = "rejected"
)

// Invitation is an outbound friend invitation. Active (non-expired,
// non-terminal) invitations count against the owner's combined quota.
type Invitation struct {
	ID           string          `json:"id" bson:"_id"`
	OwnerID      string          `json:"owner_id" bson:"owner_id"`
	OwnerProfile ProfileSnapshot `json:"owner_profile" bson:"owner_profile"`
	Status       string          `json:"status" bson:"status"`
	ExpiresAt    time.Time       `json:"expires_at" bson:"expires_at"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
}

// Active reports whether the invitation still counts against the quota
func (i *Invitation) Active(now time.Time) bool {
	return i.Status == InvitationActive && now.Before(i.ExpiresAt)
}

// JoinRequest is a request to accept an invitation. It embeds snapshots of
// both the requester and the invitation owner, located by requester id at
// propagation time because requests are nested under invitations.
type JoinRequest struct {
	ID           string `json:"id" bson:"_id"`
	InvitationID string `json:"invitation_id" bson:"invitation_id"`
	RequesterID  string `json:"requester_id" bson:"requester_id"`

	RequesterProfile ProfileSnapshot `json:"requester_profile" bson:"requester_profile"`
	ReceiverProfile  ProfileSnapshot `json:"receiver_profile" bson:"receiver_profile"`

	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// CreateJoinRequestRequest defines the request body for requesting to join an invitation
type CreateJoinRequestRequest struct {
	InvitationID string `json:"invitation_id" validate:"required"`
}

// UpdateJoinRequestStatusRequest defines the request body for accepting or
// rejecting a join request
type UpdateJoinRequestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

package models

import "time"

// NudgeID derives the directed (sender, receiver) nudge document id
func NudgeID(senderID, receiverID string) string {
	return senderID + "_" + receiverID
}

// Nudge records the last time sender nudged receiver. The document is
// upserted, not appended, so only the most recent timestamp is retained.
type Nudge struct {
	ID         string    `json:"id" bson:"_id"`
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	ReceiverID string    `json:"receiver_id" bson:"receiver_id"`
	LastSentAt time.Time `json:"last_sent_at" bson:"last_sent_at"`
}

// NudgeAllowed reports whether a new nudge may be sent given the last-sent
// timestamp and the cooldown window. A zero lastSent always allows.
func NudgeAllowed(lastSent, now time.Time, cooldown time.Duration) bool {
	if lastSent.IsZero() {
		return true
	}
	return now.Sub(lastSent) >= cooldown
}

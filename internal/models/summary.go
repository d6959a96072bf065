package models

import "time"

// SummaryID derives the document id for a directed (creator, target) summary
func SummaryID(creatorID, targetID string) string {
	return creatorID + "_" + targetID
}

// UserSummary holds the AI-maintained narrative one user keeps about a
// friend. One record exists per directed friend pair; update_count tracks how
// many of the target's updates have fed the narrative.
type UserSummary struct {
	ID        string `json:"id" bson:"_id"`
	CreatorID string `json:"creator_id" bson:"creator_id"`
	TargetID  string `json:"target_id" bson:"target_id"`

	Summary     string   `json:"summary" bson:"summary"`
	Suggestions []string `json:"suggestions,omitempty" bson:"suggestions,omitempty"`

	UpdateCount int       `json:"update_count" bson:"update_count"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

package repositories

import (
	"context"
	"time"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NudgeRepository defines the interface for directed nudge rate-limit records
type NudgeRepository interface {
	Get(ctx context.Context, senderID, receiverID string) (*models.Nudge, error)
	Upsert(ctx context.Context, senderID, receiverID string, sentAt time.Time) error
}

// MongoNudgeRepository implements NudgeRepository for MongoDB
type MongoNudgeRepository struct {
	collection *mongo.Collection
}

// NewMongoNudgeRepository creates a new MongoNudgeRepository
func NewMongoNudgeRepository(db *mongo.Database) *MongoNudgeRepository {
	return &MongoNudgeRepository{collection: db.Collection(store.CollNudges)}
}

// Get retrieves the last-sent record for a directed pair, or nil if the
// sender has never nudged the receiver
func (r *MongoNudgeRepository) Get(ctx context.Context, senderID, receiverID string) (*models.Nudge, error) {
	var nudge models.Nudge
	err := r.collection.FindOne(ctx, bson.M{"_id": models.NudgeID(senderID, receiverID)}).Decode(&nudge)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &nudge, nil
}

// Upsert overwrites the directed pair's last-sent timestamp; only the most
// recent timestamp is ever retained
func (r *MongoNudgeRepository) Upsert(ctx context.Context, senderID, receiverID string, sentAt time.Time) error {
	nudge := &models.Nudge{
		ID:         models.NudgeID(senderID, receiverID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		LastSentAt: sentAt,
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": nudge.ID}, nudge, options.Replace().SetUpsert(true))
	return err
}

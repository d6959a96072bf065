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

// SummaryRepository defines the interface for directed user-summary records
type SummaryRepository interface {
	Get(ctx context.Context, creatorID, targetID string) (*models.UserSummary, error)
	Upsert(ctx context.Context, summary *models.UserSummary) error
	RefreshNarrative(ctx context.Context, creatorID, targetID, narrative string, suggestions []string) error
	DeletePair(ctx context.Context, userA, userB string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// MongoSummaryRepository implements SummaryRepository for MongoDB
type MongoSummaryRepository struct {
	collection *mongo.Collection
}

// NewMongoSummaryRepository creates a new MongoSummaryRepository
func NewMongoSummaryRepository(db *mongo.Database) *MongoSummaryRepository {
	return &MongoSummaryRepository{collection: db.Collection(store.CollSummaries)}
}

// Get retrieves the summary one user keeps about another
func (r *MongoSummaryRepository) Get(ctx context.Context, creatorID, targetID string) (*models.UserSummary, error) {
	var summary models.UserSummary
	err := r.collection.FindOne(ctx, bson.M{"_id": models.SummaryID(creatorID, targetID)}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// Upsert writes a summary record keyed by its directed pair
func (r *MongoSummaryRepository) Upsert(ctx context.Context, summary *models.UserSummary) error {
	summary.ID = models.SummaryID(summary.CreatorID, summary.TargetID)
	summary.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": summary.ID}, summary, options.Replace().SetUpsert(true))
	return err
}

// RefreshNarrative stores a regenerated narrative and bumps update_count
// with an atomic increment
func (r *MongoSummaryRepository) RefreshNarrative(ctx context.Context, creatorID, targetID, narrative string, suggestions []string) error {
	set := bson.M{"summary": narrative, "updated_at": time.Now()}
	if suggestions != nil {
		set["suggestions"] = suggestions
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": models.SummaryID(creatorID, targetID)},
		bson.M{
			"$set":         set,
			"$inc":         bson.M{"update_count": 1},
			"$setOnInsert": bson.M{"creator_id": creatorID, "target_id": targetID},
		},
		options.Update().SetUpsert(true))
	return err
}

// DeletePair removes both directed summaries between two users
func (r *MongoSummaryRepository) DeletePair(ctx context.Context, userA, userB string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": bson.A{
		models.SummaryID(userA, userB),
		models.SummaryID(userB, userA),
	}}})
	return err
}

// DeleteByUser removes every summary the user created or is the subject of
func (r *MongoSummaryRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"creator_id": userID},
		bson.M{"target_id": userID},
	}})
	return err
}

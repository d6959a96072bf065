package repositories

import (
	"context"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedRepository defines the interface for feed index operations
type FeedRepository interface {
	ListByOwner(ctx context.Context, ownerID, cursor string, limit int) ([]models.FeedEntry, string, error)
	OwnersForUpdate(ctx context.Context, updateID string) ([]string, error)
	DeleteForPair(ctx context.Context, userA, userB string) error
}

// MongoFeedRepository implements FeedRepository for MongoDB
type MongoFeedRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedRepository creates a new MongoFeedRepository
func NewMongoFeedRepository(db *mongo.Database) *MongoFeedRepository {
	return &MongoFeedRepository{collection: db.Collection(store.CollFeedEntries)}
}

// ListByOwner retrieves one page of a user's feed, newest first
func (r *MongoFeedRepository) ListByOwner(ctx context.Context, ownerID, cursor string, limit int) ([]models.FeedEntry, string, error) {
	filter := bson.M{"owner_id": ownerID}
	resume, err := store.CursorFilter(cursor)
	if err != nil {
		return nil, "", err
	}
	if resume != nil {
		filter = bson.M{"$and": bson.A{filter, resume}}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit) + 1)
	cur, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)

	var entries []models.FeedEntry
	if err = cur.All(ctx, &entries); err != nil {
		return nil, "", err
	}

	page, next := store.TrimPage(entries, limit, func(e models.FeedEntry) string {
		return store.EncodeCursor(e.CreatedAt, e.ID)
	})
	return page, next, nil
}

// OwnersForUpdate retrieves the ids of every user holding a feed entry for an update
func (r *MongoFeedRepository) OwnersForUpdate(ctx context.Context, updateID string) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"update_id": updateID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.FeedEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	owners := make([]string, len(entries))
	for i := range entries {
		owners[i] = entries[i].OwnerID
	}
	return owners, nil
}

// DeleteForPair removes feed entries between two users in both directions,
// used on unfriend and on profile deletion
func (r *MongoFeedRepository) DeleteForPair(ctx context.Context, userA, userB string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"owner_id": userA, "created_by": userB},
		bson.M{"owner_id": userB, "created_by": userA},
	}})
	return err
}

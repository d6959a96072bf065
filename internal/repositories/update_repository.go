package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateRepository defines the interface for update (post) data operations
type UpdateRepository interface {
	Create(ctx context.Context, update *models.Update) error
	GetByID(ctx context.Context, id string) (*models.Update, error)
	GetManyByIDs(ctx context.Context, ids []string) ([]models.Update, error)
	ListByCreator(ctx context.Context, userID, cursor string, limit int) ([]models.Update, string, error)
	ListAllByCreator(ctx context.Context, userID string) ([]models.Update, error)
	ListSharedWith(ctx context.Context, userID string) ([]models.Update, error)
	IDsByCreator(ctx context.Context, userID string) ([]string, error)
	AppendShareTargets(ctx context.Context, id string, friendIDs, groupIDs []string, snapshots []models.ProfileSnapshot) error
	SetSentiment(ctx context.Context, id, label string, score float64, emoji string) error
	SetImageRefs(ctx context.Context, id string, refs []string) error
	Delete(ctx context.Context, id string) error
}

// MongoUpdateRepository implements UpdateRepository for MongoDB
type MongoUpdateRepository struct {
	collection *mongo.Collection
}

// NewMongoUpdateRepository creates a new MongoUpdateRepository
func NewMongoUpdateRepository(db *mongo.Database) *MongoUpdateRepository {
	return &MongoUpdateRepository{collection: db.Collection(store.CollUpdates)}
}

// Create creates a new update
func (r *MongoUpdateRepository) Create(ctx context.Context, update *models.Update) error {
	update.ID = primitive.NewObjectID()
	update.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, update)
	return err
}

// GetByID retrieves an update by ID
func (r *MongoUpdateRepository) GetByID(ctx context.Context, id string) (*models.Update, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid update ID format: %w", err)
	}

	var update models.Update
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&update)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &update, nil
}

// GetManyByIDs bulk-fetches full update bodies for a page of feed entries
func (r *MongoUpdateRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Update, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue // skip stale references rather than failing the page
		}
		objIDs = append(objIDs, objID)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var updates []models.Update
	if err = cursor.All(ctx, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// ListByCreator retrieves one page of a user's own updates, newest first
func (r *MongoUpdateRepository) ListByCreator(ctx context.Context, userID, cursor string, limit int) ([]models.Update, string, error) {
	filter := bson.M{"created_by": userID}
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

	var updates []models.Update
	if err = cur.All(ctx, &updates); err != nil {
		return nil, "", err
	}

	page, next := store.TrimPage(updates, limit, func(u models.Update) string {
		return store.EncodeCursor(u.CreatedAt, u.ID)
	})
	return page, next, nil
}

// ListAllByCreator retrieves every update authored by a user, used when
// propagating a creator-snapshot change
func (r *MongoUpdateRepository) ListAllByCreator(ctx context.Context, userID string) ([]models.Update, error) {
	return r.findAll(ctx, bson.M{"created_by": userID})
}

// ListSharedWith retrieves every update embedding the user in its share-list
// profile snapshots
func (r *MongoUpdateRepository) ListSharedWith(ctx context.Context, userID string) ([]models.Update, error) {
	return r.findAll(ctx, bson.M{"shared_with_profiles.user_id": userID})
}

// IDsByCreator retrieves the ids of every update authored by a user
func (r *MongoUpdateRepository) IDsByCreator(ctx context.Context, userID string) ([]string, error) {
	updates, err := r.findAll(ctx, bson.M{"created_by": userID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(updates))
	for i := range updates {
		ids[i] = updates[i].ID.Hex()
	}
	return ids, nil
}

// AppendShareTargets extends an update's share lists after an additional
// share. The visible_to identifiers are written by the fan-out pass, not here.
func (r *MongoUpdateRepository) AppendShareTargets(ctx context.Context, id string, friendIDs, groupIDs []string, snapshots []models.ProfileSnapshot) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}

	addToSet := bson.M{}
	if len(friendIDs) > 0 {
		addToSet["friend_ids"] = bson.M{"$each": friendIDs}
	}
	if len(groupIDs) > 0 {
		addToSet["group_ids"] = bson.M{"$each": groupIDs}
	}
	if len(snapshots) > 0 {
		addToSet["shared_with_profiles"] = bson.M{"$each": snapshots}
	}
	if len(addToSet) == 0 {
		return nil
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$addToSet": addToSet})
	return err
}

// SetSentiment stores the classified sentiment on an update
func (r *MongoUpdateRepository) SetSentiment(ctx context.Context, id, label string, score float64, emoji string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
		"sentiment":       label,
		"sentiment_score": score,
		"sentiment_emoji": emoji,
	}})
	return err
}

// SetImageRefs stores the final object refs after staged images are promoted
func (r *MongoUpdateRepository) SetImageRefs(ctx context.Context, id string, refs []string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"image_refs": refs}})
	return err
}

// Delete removes an update document. Dependent records (feed entries,
// comments, reactions) are removed by the caller's cascade.
func (r *MongoUpdateRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

func (r *MongoUpdateRepository) findAll(ctx context.Context, filter bson.M) ([]models.Update, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var updates []models.Update
	if err = cursor.All(ctx, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

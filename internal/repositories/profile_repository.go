package repositories

import (
	"context"
	"time"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByPhone(ctx context.Context, phone string) (*models.Profile, error)
	GetSnapshots(ctx context.Context, userIDs []string) (map[string]models.ProfileSnapshot, error)
	UpdateFields(ctx context.Context, userID string, fields bson.M) error
	Delete(ctx context.Context, userID string) error
}

// MongoProfileRepository implements ProfileRepository for MongoDB
type MongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new MongoProfileRepository
func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{collection: db.Collection(store.CollProfiles)}
}

// Create creates a new profile
func (r *MongoProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	_, err := r.collection.InsertOne(ctx, profile)
	return err
}

// GetByUserID retrieves a profile by Firebase UID
func (r *MongoProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetByPhone retrieves a profile by phone number, used to reject duplicate
// phone mappings
func (r *MongoProfileRepository) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"phone": phone}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetSnapshots bulk-fetches the denormalized display fields for a set of users
func (r *MongoProfileRepository) GetSnapshots(ctx context.Context, userIDs []string) (map[string]models.ProfileSnapshot, error) {
	if len(userIDs) == 0 {
		return map[string]models.ProfileSnapshot{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	snapshots := make(map[string]models.ProfileSnapshot, len(profiles))
	for i := range profiles {
		snapshots[profiles[i].UserID] = profiles[i].Snapshot()
	}
	return snapshots, nil
}

// UpdateFields applies a partial field overwrite to a profile
func (r *MongoProfileRepository) UpdateFields(ctx context.Context, userID string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile document. Cascading deletion of the user's
// updates, feed entries and relationship records is driven by the caller.
func (r *MongoProfileRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

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
)

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetManyByIDs(ctx context.Context, ids []string) ([]models.Group, error)
	ListByMember(ctx context.Context, userID string) ([]models.Group, error)
	AddMember(ctx context.Context, groupID string, snapshot models.ProfileSnapshot) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// MongoGroupRepository implements GroupRepository for MongoDB
type MongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository creates a new MongoGroupRepository
func NewMongoGroupRepository(db *mongo.Database) *MongoGroupRepository {
	return &MongoGroupRepository{collection: db.Collection(store.CollGroups)}
}

// Create creates a new group
func (r *MongoGroupRepository) Create(ctx context.Context, group *models.Group) error {
	group.ID = primitive.NewObjectID()
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	_, err := r.collection.InsertOne(ctx, group)
	return err
}

// GetByID retrieves a group by ID
func (r *MongoGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid group ID format: %w", err)
	}

	var group models.Group
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetManyByIDs bulk-fetches groups, used by fan-out to expand member lists
func (r *MongoGroupRepository) GetManyByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid group ID format: %w", err)
		}
		objIDs = append(objIDs, objID)
	}
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
}

// ListByMember retrieves every group the user belongs to
func (r *MongoGroupRepository) ListByMember(ctx context.Context, userID string) ([]models.Group, error) {
	return r.findAll(ctx, bson.M{"member_ids": userID})
}

func (r *MongoGroupRepository) findAll(ctx context.Context, filter bson.M) ([]models.Group, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember adds a user to the group's member list and keyed profile map
func (r *MongoGroupRepository) AddMember(ctx context.Context, groupID string, snapshot models.ProfileSnapshot) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("invalid group ID format: %w", err)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$addToSet": bson.M{"member_ids": snapshot.UserID},
		"$set": bson.M{
			"member_profiles." + snapshot.UserID: snapshot,
			"updated_at":                         time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember removes a user from the member list and the keyed profile map
func (r *MongoGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	objID, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return fmt.Errorf("invalid group ID format: %w", err)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$pull":  bson.M{"member_ids": userID},
		"$unset": bson.M{"member_profiles." + userID: ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

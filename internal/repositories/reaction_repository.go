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

// ReactionRepository defines the interface for reaction data operations.
// A user holds one reaction document per update listing their active types;
// the update's tallies are mutated with atomic increments in the same
// transaction as the reaction document.
type ReactionRepository interface {
	Get(ctx context.Context, updateID, userID string) (*models.Reaction, error)
	ListByUser(ctx context.Context, userID string) ([]models.Reaction, error)
	AddType(ctx context.Context, updateID, userID, reactionType string) (bool, error)
	RemoveType(ctx context.Context, updateID, userID, reactionType string) (bool, error)
}

// MongoReactionRepository implements ReactionRepository for MongoDB
type MongoReactionRepository struct {
	collection *mongo.Collection
	committer  store.Committer
}

// NewMongoReactionRepository creates a new MongoReactionRepository
func NewMongoReactionRepository(db *mongo.Database, committer store.Committer) *MongoReactionRepository {
	return &MongoReactionRepository{collection: db.Collection(store.CollReactions), committer: committer}
}

// Get retrieves a user's reaction document for an update, or nil if the user
// has never reacted to it
func (r *MongoReactionRepository) Get(ctx context.Context, updateID, userID string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.collection.FindOne(ctx, bson.M{"_id": models.ReactionID(updateID, userID)}).Decode(&reaction)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &reaction, nil
}

// ListByUser retrieves every reaction document held by a user, used when the
// account is deleted and the reacted updates' tallies must be walked back
func (r *MongoReactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Reaction, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reactions []models.Reaction
	if err = cursor.All(ctx, &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}

// AddType adds a reaction type for the user and increments the update's
// tallies atomically. Returns false without writing if the user already holds
// the type.
func (r *MongoReactionRepository) AddType(ctx context.Context, updateID, userID, reactionType string) (bool, error) {
	existing, err := r.Get(ctx, updateID, userID)
	if err != nil {
		return false, err
	}

	ops, mutated, err := buildAddTypeOps(existing, updateID, userID, reactionType, time.Now())
	if err != nil {
		return false, err
	}
	if !mutated {
		return false, nil
	}
	return true, r.committer.Commit(ctx, ops)
}

// RemoveType removes a reaction type for the user and decrements the update's
// tallies atomically. Returns false without writing if the user does not hold
// the type.
func (r *MongoReactionRepository) RemoveType(ctx context.Context, updateID, userID, reactionType string) (bool, error) {
	existing, err := r.Get(ctx, updateID, userID)
	if err != nil {
		return false, err
	}

	ops, mutated, err := buildRemoveTypeOps(existing, updateID, reactionType, time.Now())
	if err != nil {
		return false, err
	}
	if !mutated {
		return false, nil
	}
	return true, r.committer.Commit(ctx, ops)
}

// buildAddTypeOps plans the atomic op pair for adding a reaction type: an
// upsert of the per-user reaction document plus $inc of the update's
// reaction_count and the per-type tally. No-op when the type is already held.
func buildAddTypeOps(existing *models.Reaction, updateID, userID, reactionType string, now time.Time) ([]store.WriteOp, bool, error) {
	if existing.HasType(reactionType) {
		return nil, false, nil
	}
	updateObjID, err := primitive.ObjectIDFromHex(updateID)
	if err != nil {
		return nil, false, fmt.Errorf("invalid update ID format: %w", err)
	}

	return []store.WriteOp{
		{
			Collection: store.CollReactions,
			Filter:     bson.M{"_id": models.ReactionID(updateID, userID)},
			Update: bson.M{
				"$addToSet":    bson.M{"types": reactionType},
				"$set":         bson.M{"updated_at": now},
				"$setOnInsert": bson.M{"update_id": updateID, "user_id": userID},
			},
			Upsert: true,
		},
		{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": updateObjID},
			Update: bson.M{"$inc": bson.M{
				"reaction_count":                 1,
				"reaction_types." + reactionType: 1,
			}},
		},
	}, true, nil
}

// buildRemoveTypeOps plans the atomic op pair for removing a reaction type.
// No-op when the type is not held.
func buildRemoveTypeOps(existing *models.Reaction, updateID, reactionType string, now time.Time) ([]store.WriteOp, bool, error) {
	if !existing.HasType(reactionType) {
		return nil, false, nil
	}
	updateObjID, err := primitive.ObjectIDFromHex(updateID)
	if err != nil {
		return nil, false, fmt.Errorf("invalid update ID format: %w", err)
	}

	return []store.WriteOp{
		{
			Collection: store.CollReactions,
			Filter:     bson.M{"_id": existing.ID},
			Update: bson.M{
				"$pull": bson.M{"types": reactionType},
				"$set":  bson.M{"updated_at": now},
			},
		},
		{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": updateObjID},
			Update: bson.M{"$inc": bson.M{
				"reaction_count":                 -1,
				"reaction_types." + reactionType: -1,
			}},
		},
	}, true, nil
}

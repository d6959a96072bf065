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

// CommentRepository defines the interface for comment data operations.
// Create and Delete mutate the parent update's comment_count in the same
// transaction as the child record, so a failure can never produce a comment
// without its count or vice versa.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByUpdate(ctx context.Context, updateID, cursor string, limit int) ([]models.Comment, string, error)
	ListByAuthor(ctx context.Context, userID string) ([]models.Comment, error)
	Delete(ctx context.Context, comment *models.Comment) error
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
	committer  store.Committer
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database, committer store.Committer) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection(store.CollComments), committer: committer}
}

// Create inserts a comment and increments the update's comment_count atomically
func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()

	updateObjID, err := primitive.ObjectIDFromHex(comment.UpdateID)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}

	return r.committer.Commit(ctx, []store.WriteOp{
		{Collection: store.CollComments, Insert: comment},
		{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": updateObjID},
			Update:     bson.M{"$inc": bson.M{"comment_count": 1}},
		},
	})
}

// GetByID retrieves a comment by ID
func (r *MongoCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID format: %w", err)
	}

	var comment models.Comment
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListByUpdate retrieves one page of an update's comments, newest first
func (r *MongoCommentRepository) ListByUpdate(ctx context.Context, updateID, cursor string, limit int) ([]models.Comment, string, error) {
	filter := bson.M{"update_id": updateID}
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

	var comments []models.Comment
	if err = cur.All(ctx, &comments); err != nil {
		return nil, "", err
	}

	page, next := store.TrimPage(comments, limit, func(c models.Comment) string {
		return store.EncodeCursor(c.CreatedAt, c.ID)
	})
	return page, next, nil
}

// ListByAuthor retrieves every comment written by a user, used when
// propagating a commenter-snapshot change
func (r *MongoCommentRepository) ListByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete removes a comment and decrements the update's comment_count atomically
func (r *MongoCommentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	updateObjID, err := primitive.ObjectIDFromHex(comment.UpdateID)
	if err != nil {
		return fmt.Errorf("invalid update ID format: %w", err)
	}

	return r.committer.Commit(ctx, []store.WriteOp{
		{Collection: store.CollComments, Filter: bson.M{"_id": comment.ID}, Delete: true},
		{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": updateObjID},
			Update:     bson.M{"$inc": bson.M{"comment_count": -1}},
		},
	})
}

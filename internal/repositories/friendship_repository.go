package repositories

import (
	"context"
	"time"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FriendshipRepository defines the interface for relationship data
// operations. A friendship is stored twice: once as the canonical sorted-pair
// record and once as a lightweight friend row in each party's list; both are
// written in the same transaction at acceptance time.
type FriendshipRepository interface {
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error)
	CreateAccepted(ctx context.Context, friendship *models.Friendship) error
	UpdateStatus(ctx context.Context, id, status string) error
	CountAccepted(ctx context.Context, userID string) (int, error)
	ListBySender(ctx context.Context, userID string) ([]models.Friendship, error)
	ListByReceiver(ctx context.Context, userID string) ([]models.Friendship, error)
	ListFriends(ctx context.Context, ownerID string) ([]models.Friend, error)
	ListFriendIDs(ctx context.Context, ownerID string) ([]string, error)
	ListFriendRowsEmbedding(ctx context.Context, userID string) ([]models.Friend, error)
	RemovePair(ctx context.Context, userA, userB string) error
}

// MongoFriendshipRepository implements FriendshipRepository for MongoDB
type MongoFriendshipRepository struct {
	friendships *mongo.Collection
	friends     *mongo.Collection
	committer   store.Committer
}

// NewMongoFriendshipRepository creates a new MongoFriendshipRepository
func NewMongoFriendshipRepository(db *mongo.Database, committer store.Committer) *MongoFriendshipRepository {
	return &MongoFriendshipRepository{
		friendships: db.Collection(store.CollFriendships),
		friends:     db.Collection(store.CollFriends),
		committer:   committer,
	}
}

// GetByID retrieves a friendship by its deterministic pair id
func (r *MongoFriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	var friendship models.Friendship
	err := r.friendships.FindOne(ctx, bson.M{"_id": id}).Decode(&friendship)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &friendship, nil
}

// GetBetween retrieves the relationship between two users regardless of who asks
func (r *MongoFriendshipRepository) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	return r.GetByID(ctx, models.FriendshipID(userA, userB))
}

// CreateAccepted writes the canonical friendship record and both per-side
// friend rows in one transaction
func (r *MongoFriendshipRepository) CreateAccepted(ctx context.Context, friendship *models.Friendship) error {
	now := time.Now()
	friendship.ID = models.FriendshipID(friendship.SenderID, friendship.ReceiverID)
	friendship.Status = models.FriendshipAccepted
	friendship.CreatedAt = now
	friendship.UpdatedAt = now

	senderRow := &models.Friend{
		OwnerID:   friendship.SenderID,
		FriendID:  friendship.ReceiverID,
		Profile:   friendship.ReceiverProfile,
		CreatedAt: now,
	}
	receiverRow := &models.Friend{
		OwnerID:   friendship.ReceiverID,
		FriendID:  friendship.SenderID,
		Profile:   friendship.SenderProfile,
		CreatedAt: now,
	}

	return r.committer.Commit(ctx, []store.WriteOp{
		{Collection: store.CollFriendships, Insert: friendship},
		{Collection: store.CollFriends, Insert: senderRow},
		{Collection: store.CollFriends, Insert: receiverRow},
	})
}

// UpdateStatus updates a friendship's status
func (r *MongoFriendshipRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.friendships.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAccepted counts the user's accepted friendships
func (r *MongoFriendshipRepository) CountAccepted(ctx context.Context, userID string) (int, error) {
	n, err := r.friendships.CountDocuments(ctx, bson.M{
		"status": models.FriendshipAccepted,
		"$or":    bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}},
	})
	return int(n), err
}

// ListBySender retrieves friendships where the user is the sender side
func (r *MongoFriendshipRepository) ListBySender(ctx context.Context, userID string) ([]models.Friendship, error) {
	return r.findFriendships(ctx, bson.M{"sender_id": userID})
}

// ListByReceiver retrieves friendships where the user is the receiver side
func (r *MongoFriendshipRepository) ListByReceiver(ctx context.Context, userID string) ([]models.Friendship, error) {
	return r.findFriendships(ctx, bson.M{"receiver_id": userID})
}

func (r *MongoFriendshipRepository) findFriendships(ctx context.Context, filter bson.M) ([]models.Friendship, error) {
	cursor, err := r.friendships.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	if err = cursor.All(ctx, &friendships); err != nil {
		return nil, err
	}
	return friendships, nil
}

// ListFriends retrieves a user's friend rows for cheap friend-list scans
func (r *MongoFriendshipRepository) ListFriends(ctx context.Context, ownerID string) ([]models.Friend, error) {
	return r.findFriends(ctx, bson.M{"owner_id": ownerID})
}

// ListFriendIDs retrieves the ids of a user's friends
func (r *MongoFriendshipRepository) ListFriendIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.ListFriends(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].FriendID
	}
	return ids, nil
}

// ListFriendRowsEmbedding retrieves the friend rows in other users' lists
// that embed this user's snapshot, used at propagation time
func (r *MongoFriendshipRepository) ListFriendRowsEmbedding(ctx context.Context, userID string) ([]models.Friend, error) {
	return r.findFriends(ctx, bson.M{"friend_id": userID})
}

func (r *MongoFriendshipRepository) findFriends(ctx context.Context, filter bson.M) ([]models.Friend, error) {
	cursor, err := r.friends.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.Friend
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RemovePair removes the canonical record and both friend rows in one transaction
func (r *MongoFriendshipRepository) RemovePair(ctx context.Context, userA, userB string) error {
	return r.committer.Commit(ctx, []store.WriteOp{
		{Collection: store.CollFriendships, Filter: bson.M{"_id": models.FriendshipID(userA, userB)}, Delete: true},
		{Collection: store.CollFriends, Filter: bson.M{"owner_id": userA, "friend_id": userB}, Delete: true},
		{Collection: store.CollFriends, Filter: bson.M{"owner_id": userB, "friend_id": userA}, Delete: true},
	})
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// InvitationRepository defines the interface for invitation and join-request
// data operations
type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Invitation, error)
	CountActiveByOwner(ctx context.Context, ownerID string, now time.Time) (int, error)
	UpdateStatus(ctx context.Context, id, status string) error

	CreateJoinRequest(ctx context.Context, request *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*models.JoinRequest, error)
	UpdateJoinRequestStatus(ctx context.Context, id, status string) error
	ListJoinRequestsByRequester(ctx context.Context, requesterID string) ([]models.JoinRequest, error)
	ListJoinRequestsByReceiver(ctx context.Context, receiverID string) ([]models.JoinRequest, error)
}

// MongoInvitationRepository implements InvitationRepository for MongoDB
type MongoInvitationRepository struct {
	invitations  *mongo.Collection
	joinRequests *mongo.Collection
}

// NewMongoInvitationRepository creates a new MongoInvitationRepository
func NewMongoInvitationRepository(db *mongo.Database) *MongoInvitationRepository {
	return &MongoInvitationRepository{
		invitations:  db.Collection(store.CollInvitations),
		joinRequests: db.Collection(store.CollJoinRequests),
	}
}

// Create creates a new invitation
func (r *MongoInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	invitation.CreatedAt = time.Now()
	_, err := r.invitations.InsertOne(ctx, invitation)
	return err
}

// GetByID retrieves an invitation by ID
func (r *MongoInvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.invitations.FindOne(ctx, bson.M{"_id": id}).Decode(&invitation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

// ListByOwner retrieves every invitation owned by a user
func (r *MongoInvitationRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Invitation, error) {
	cursor, err := r.invitations.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var invitations []models.Invitation
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// CountActiveByOwner counts the owner's currently active (non-expired,
// non-terminal) invitations for the combined quota check
func (r *MongoInvitationRepository) CountActiveByOwner(ctx context.Context, ownerID string, now time.Time) (int, error) {
	n, err := r.invitations.CountDocuments(ctx, bson.M{
		"owner_id":   ownerID,
		"status":     models.InvitationActive,
		"expires_at": bson.M{"$gt": now},
	})
	return int(n), err
}

// UpdateStatus updates an invitation's status
func (r *MongoInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.invitations.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateJoinRequest creates a new join request against an invitation
func (r *MongoInvitationRepository) CreateJoinRequest(ctx context.Context, request *models.JoinRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.CreatedAt = time.Now()
	_, err := r.joinRequests.InsertOne(ctx, request)
	return err
}

// GetJoinRequest retrieves a join request by ID
func (r *MongoInvitationRepository) GetJoinRequest(ctx context.Context, id string) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.joinRequests.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// UpdateJoinRequestStatus updates a join request's status
func (r *MongoInvitationRepository) UpdateJoinRequestStatus(ctx context.Context, id, status string) error {
	res, err := r.joinRequests.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJoinRequestsByRequester retrieves join requests sent by a user. Requests
// are nested under invitations, so propagation reaches them through this
// cross-collection query rather than through the owning invitation.
func (r *MongoInvitationRepository) ListJoinRequestsByRequester(ctx context.Context, requesterID string) ([]models.JoinRequest, error) {
	return r.findJoinRequests(ctx, bson.M{"requester_id": requesterID})
}

// ListJoinRequestsByReceiver retrieves join requests against invitations the
// user owns
func (r *MongoInvitationRepository) ListJoinRequestsByReceiver(ctx context.Context, receiverID string) ([]models.JoinRequest, error) {
	return r.findJoinRequests(ctx, bson.M{"receiver_profile.user_id": receiverID})
}

func (r *MongoInvitationRepository) findJoinRequests(ctx context.Context, filter bson.M) ([]models.JoinRequest, error) {
	cursor, err := r.joinRequests.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.JoinRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

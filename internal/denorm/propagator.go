package denorm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

// Propagator locates every embedded copy of a profile's display fields and
// schedules corrective writes through a BatchWriter. A large fan-in user may
// span multiple transactions; a failure partway through leaves some copies
// stale until the next profile change, which is the documented contract for
// best-effort identity caching.
type Propagator struct {
	invitations repositories.InvitationRepository
	friendships repositories.FriendshipRepository
	groups      repositories.GroupRepository
	updates     repositories.UpdateRepository
	comments    repositories.CommentRepository
	committer   store.Committer
	logger      *zap.Logger
}

// NewPropagator creates a Propagator
func NewPropagator(
	invitations repositories.InvitationRepository,
	friendships repositories.FriendshipRepository,
	groups repositories.GroupRepository,
	updates repositories.UpdateRepository,
	comments repositories.CommentRepository,
	committer store.Committer,
	logger *zap.Logger,
) *Propagator {
	return &Propagator{
		invitations: invitations,
		friendships: friendships,
		groups:      groups,
		updates:     updates,
		comments:    comments,
		committer:   committer,
		logger:      logger,
	}
}

// PropagateProfileChange patches every record class embedding the changed
// username/name/avatar and commits the corrective writes in bounded chunks
func (p *Propagator) PropagateProfileChange(ctx context.Context, snap models.ProfileSnapshot) error {
	located, err := p.locate(ctx, snap.UserID)
	if err != nil {
		return err
	}

	ops := PlanOps(snap, located)
	if len(ops) == 0 {
		return nil
	}

	writer := store.NewBatchWriter(p.committer)
	if err := writer.Add(ctx, ops...); err != nil {
		return err
	}
	if err := writer.Flush(ctx); err != nil {
		return err
	}

	p.logger.Info("propagated profile change",
		zap.String("user_id", snap.UserID),
		zap.Int("operations", writer.Committed()))
	return nil
}

func (p *Propagator) locate(ctx context.Context, userID string) (Located, error) {
	var located Located
	var err error

	if located.Invitations, err = p.invitations.ListByOwner(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate invitations: %w", err)
	}
	if located.RequesterRequests, err = p.invitations.ListJoinRequestsByRequester(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate sent join requests: %w", err)
	}
	if located.ReceiverRequests, err = p.invitations.ListJoinRequestsByReceiver(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate received join requests: %w", err)
	}
	// the relationship is symmetric in meaning but not in storage, so the two
	// sides are located with separate queries
	if located.SenderFriendships, err = p.friendships.ListBySender(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate sender-side friendships: %w", err)
	}
	if located.ReceiverFriendships, err = p.friendships.ListByReceiver(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate receiver-side friendships: %w", err)
	}
	if located.FriendRows, err = p.friendships.ListFriendRowsEmbedding(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate friend rows: %w", err)
	}
	if located.Groups, err = p.groups.ListByMember(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate groups: %w", err)
	}
	if located.AuthoredUpdates, err = p.updates.ListAllByCreator(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate authored updates: %w", err)
	}
	if located.SharedUpdates, err = p.updates.ListSharedWith(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate shared updates: %w", err)
	}
	if located.AuthoredComments, err = p.comments.ListByAuthor(ctx, userID); err != nil {
		return located, fmt.Errorf("failed to locate authored comments: %w", err)
	}

	return located, nil
}

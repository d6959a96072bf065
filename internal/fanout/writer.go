package fanout

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
	"github.com/loopline-app/backend/internal/store"
)

// Writer propagates a newly created or newly shared update into every
// recipient's feed index. All writes flow through a BatchWriter, so a fan-out
// larger than one transaction commits in bounded chunks; every emitted op is
// an idempotent upsert or set-addition, safe to re-issue after a partial
// failure.
type Writer struct {
	groups      repositories.GroupRepository
	friendships repositories.FriendshipRepository
	committer   store.Committer
	logger      *zap.Logger
}

// NewWriter creates a fan-out Writer
func NewWriter(groups repositories.GroupRepository, friendships repositories.FriendshipRepository, committer store.Committer, logger *zap.Logger) *Writer {
	return &Writer{
		groups:      groups,
		friendships: friendships,
		committer:   committer,
		logger:      logger,
	}
}

// FanOutCreate writes feed entries for a just-created update. The update must
// already be persisted with its share lists and visible_to resolved; this
// call derives the recipient set and writes one feed entry per recipient.
func (w *Writer) FanOutCreate(ctx context.Context, update *models.Update) error {
	return w.fanOut(ctx, update, update.FriendIDs, update.GroupIDs, true)
}

// FanOutShare extends an existing update to additional recipients. Friend and
// group ids already present on the update have been filtered out by the
// caller; the author never receives a second entry because entry writes are
// keyed upserts on (owner, update).
func (w *Writer) FanOutShare(ctx context.Context, update *models.Update, newFriendIDs, newGroupIDs []string) error {
	return w.fanOut(ctx, update, newFriendIDs, newGroupIDs, false)
}

func (w *Writer) fanOut(ctx context.Context, update *models.Update, friendIDs, groupIDs []string, includeAuthor bool) error {
	groupMembers := make(map[string][]string, len(groupIDs))
	if len(groupIDs) > 0 {
		groups, err := w.groups.GetManyByIDs(ctx, groupIDs)
		if err != nil {
			return fmt.Errorf("failed to expand group members: %w", err)
		}
		for i := range groups {
			groupMembers[groups[i].ID.Hex()] = groups[i].MemberIDs
		}
	}

	recipients := Recipients(update.CreatedBy, includeAuthor, friendIDs, groupMembers)
	ops := PlanOps(update, recipients, friendIDs, groupIDs, groupMembers)

	writer := store.NewBatchWriter(w.committer)
	if err := writer.Add(ctx, ops...); err != nil {
		return err
	}
	if err := writer.Flush(ctx); err != nil {
		return err
	}

	w.logger.Info("fanned out update",
		zap.String("update_id", update.ID.Hex()),
		zap.Int("recipients", len(recipients)),
		zap.Int("operations", writer.Committed()))
	return nil
}

// ExpandAllContacts resolves the share lists for an all-contacts update: every
// current friend plus every group the author belongs to.
func (w *Writer) ExpandAllContacts(ctx context.Context, authorID string) (friendIDs, groupIDs []string, err error) {
	friendIDs, err = w.friendships.ListFriendIDs(ctx, authorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list friends: %w", err)
	}
	groups, err := w.groups.ListByMember(ctx, authorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groupIDs = make([]string, len(groups))
	for i := range groups {
		groupIDs[i] = groups[i].ID.Hex()
	}
	return friendIDs, groupIDs, nil
}

// PlanOps builds the interleaved op sequence for one fan-out pass: a keyed
// feed-entry upsert per recipient plus the visibility identifiers the new
// share targets add to the update itself.
func PlanOps(update *models.Update, recipients, friendIDs, groupIDs []string, groupMembers map[string][]string) []store.WriteOp {
	directFriend := make(map[string]bool, len(friendIDs))
	for _, id := range friendIDs {
		directFriend[id] = true
	}
	// invert the group membership map once so each recipient knows which
	// groups caused its entry
	memberGroups := make(map[string][]string)
	for gid, members := range groupMembers {
		for _, uid := range members {
			memberGroups[uid] = append(memberGroups[uid], gid)
		}
	}

	updateID := update.ID.Hex()
	ops := make([]store.WriteOp, 0, len(recipients)+1)
	for _, uid := range recipients {
		entry := bson.M{
			"owner_id":       uid,
			"update_id":      updateID,
			"created_by":     update.CreatedBy,
			"created_at":     update.CreatedAt,
			"direct_visible": directFriend[uid] || uid == update.CreatedBy,
		}
		if directFriend[uid] {
			entry["friend_id"] = uid
		}
		if gids := memberGroups[uid]; len(gids) > 0 {
			entry["group_ids"] = gids
		}
		ops = append(ops, store.WriteOp{
			Collection: store.CollFeedEntries,
			Filter:     bson.M{"owner_id": uid, "update_id": updateID},
			Update:     bson.M{"$setOnInsert": entry},
			Upsert:     true,
		})
	}

	visibilities := make([]string, 0, len(friendIDs)+len(groupIDs))
	for _, id := range friendIDs {
		visibilities = append(visibilities, models.FriendVisibility(id))
	}
	for _, id := range groupIDs {
		visibilities = append(visibilities, models.GroupVisibility(id))
	}
	if len(visibilities) > 0 {
		ops = append(ops, store.WriteOp{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": update.ID},
			Update: bson.M{"$addToSet": bson.M{
				"visible_to": bson.M{"$each": visibilities},
			}},
		})
	}
	return ops
}

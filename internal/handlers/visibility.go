package handlers

import (
	"context"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
)

// visibleToUser checks an update's visible_to identifiers against the
// caller's friend identifier and every group the caller belongs to
func visibleToUser(ctx context.Context, groups repositories.GroupRepository, update *models.Update, uid string) (bool, error) {
	if update.VisibleBy(models.FriendVisibility(uid)) {
		return true, nil
	}
	memberships, err := groups.ListByMember(ctx, uid)
	if err != nil {
		return false, err
	}
	identifiers := make([]string, len(memberships))
	for i := range memberships {
		identifiers[i] = models.GroupVisibility(memberships[i].ID.Hex())
	}
	return update.VisibleBy(identifiers...), nil
}

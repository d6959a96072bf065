package denorm

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/store"
)

// Located holds every record found to embed a copy of the changed profile's
// display fields, one slice per record class.
type Located struct {
	Invitations         []models.Invitation  // owned invitations
	RequesterRequests   []models.JoinRequest // join requests the user sent
	ReceiverRequests    []models.JoinRequest // join requests against the user's invitations
	SenderFriendships   []models.Friendship  // friendships where the user is the sender side
	ReceiverFriendships []models.Friendship  // friendships where the user is the receiver side
	FriendRows          []models.Friend      // rows in other users' friend lists embedding the user
	Groups              []models.Group       // groups the user belongs to
	AuthoredUpdates     []models.Update      // updates carrying the user's creator snapshot
	SharedUpdates       []models.Update      // updates embedding the user in share-list snapshots
	AuthoredComments    []models.Comment     // comments carrying the user's commenter snapshot
}

// PlanOps builds one corrective $set per located record. Every op is a
// last-write-wins overwrite of the three replicated fields, so replaying a
// partially committed plan only re-applies identical values. No ordering
// between record classes is guaranteed; convergence is eventual.
func PlanOps(snap models.ProfileSnapshot, located Located) []store.WriteOp {
	var ops []store.WriteOp

	set := func(prefix string) bson.M {
		return bson.M{"$set": bson.M{
			prefix + "username": snap.Username,
			prefix + "name":     snap.Name,
			prefix + "avatar":   snap.Avatar,
		}}
	}

	for i := range located.Invitations {
		ops = append(ops, store.WriteOp{
			Collection: store.CollInvitations,
			Filter:     bson.M{"_id": located.Invitations[i].ID},
			Update:     set("owner_profile."),
		})
	}
	for i := range located.RequesterRequests {
		ops = append(ops, store.WriteOp{
			Collection: store.CollJoinRequests,
			Filter:     bson.M{"_id": located.RequesterRequests[i].ID},
			Update:     set("requester_profile."),
		})
	}
	for i := range located.ReceiverRequests {
		ops = append(ops, store.WriteOp{
			Collection: store.CollJoinRequests,
			Filter:     bson.M{"_id": located.ReceiverRequests[i].ID},
			Update:     set("receiver_profile."),
		})
	}
	for i := range located.SenderFriendships {
		ops = append(ops, store.WriteOp{
			Collection: store.CollFriendships,
			Filter:     bson.M{"_id": located.SenderFriendships[i].ID},
			Update:     set("sender_profile."),
		})
	}
	for i := range located.ReceiverFriendships {
		ops = append(ops, store.WriteOp{
			Collection: store.CollFriendships,
			Filter:     bson.M{"_id": located.ReceiverFriendships[i].ID},
			Update:     set("receiver_profile."),
		})
	}
	for i := range located.FriendRows {
		ops = append(ops, store.WriteOp{
			Collection: store.CollFriends,
			Filter:     bson.M{"_id": located.FriendRows[i].ID},
			Update:     set("profile."),
		})
	}
	for i := range located.Groups {
		// keyed patch of one member's snapshot in the group's profile map
		ops = append(ops, store.WriteOp{
			Collection: store.CollGroups,
			Filter:     bson.M{"_id": located.Groups[i].ID},
			Update:     set("member_profiles." + snap.UserID + "."),
		})
	}
	for i := range located.AuthoredUpdates {
		ops = append(ops, store.WriteOp{
			Collection: store.CollUpdates,
			Filter:     bson.M{"_id": located.AuthoredUpdates[i].ID},
			Update:     set("creator_profile."),
		})
	}
	for i := range located.SharedUpdates {
		// positional update of the matching share-list snapshot
		ops = append(ops, store.WriteOp{
			Collection: store.CollUpdates,
			Filter: bson.M{
				"_id":                          located.SharedUpdates[i].ID,
				"shared_with_profiles.user_id": snap.UserID,
			},
			Update: set("shared_with_profiles.$."),
		})
	}
	for i := range located.AuthoredComments {
		ops = append(ops, store.WriteOp{
			Collection: store.CollComments,
			Filter:     bson.M{"_id": located.AuthoredComments[i].ID},
			Update:     set("commenter_profile."),
		})
	}

	return ops
}

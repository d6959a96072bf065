package notifications

import (
	"context"
	"unicode/utf8"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/loopline-app/backend/internal/models"
	"github.com/loopline-app/backend/internal/repositories"
)

// Sender delivers push notifications to users. Delivery is best effort and
// never fails the request that triggered it.
type Sender interface {
	NotifyNewUpdate(ctx context.Context, update *models.Update, recipientIDs []string)
	NotifyNewComment(ctx context.Context, comment *models.Comment, update *models.Update)
	NotifyInvitation(ctx context.Context, invitation *models.Invitation, receiverID string)
	NotifyFriendAccepted(ctx context.Context, accepterID, senderID string)
	NotifyNudge(ctx context.Context, fromID, toID string)
}

// FCMSender sends notifications through Firebase Cloud Messaging using the
// device tokens stored on each profile.
type FCMSender struct {
	client   *messaging.Client
	profiles repositories.ProfileRepository
	logger   *zap.Logger
}

func NewFCMSender(client *messaging.Client, profiles repositories.ProfileRepository, logger *zap.Logger) *FCMSender {
	return &FCMSender{client: client, profiles: profiles, logger: logger}
}

func (s *FCMSender) NotifyNewUpdate(ctx context.Context, update *models.Update, recipientIDs []string) {
	title := update.CreatorProfile.Name + " shared an update"
	for _, uid := range recipientIDs {
		if uid == update.CreatedBy {
			continue
		}
		s.send(ctx, uid, title, truncate(update.Content, 120),
			func(p models.NotificationPrefs) bool { return p.NewUpdates },
			map[string]string{"type": "new_update", "update_id": update.ID.Hex()})
	}
}

func (s *FCMSender) NotifyNewComment(ctx context.Context, comment *models.Comment, update *models.Update) {
	if comment.UserID == update.CreatedBy {
		return
	}
	s.send(ctx, update.CreatedBy,
		comment.CommenterProfile.Name+" commented on your update",
		truncate(comment.Content, 120),
		func(p models.NotificationPrefs) bool { return p.Comments },
		map[string]string{"type": "new_comment", "update_id": update.ID.Hex()})
}

func (s *FCMSender) NotifyInvitation(ctx context.Context, invitation *models.Invitation, receiverID string) {
	s.send(ctx, receiverID,
		invitation.OwnerProfile.Name+" invited you to connect",
		"Open the app to respond",
		func(p models.NotificationPrefs) bool { return true },
		map[string]string{"type": "invitation", "invitation_id": invitation.ID})
}

func (s *FCMSender) NotifyFriendAccepted(ctx context.Context, accepterID, senderID string) {
	s.send(ctx, senderID, s.displayName(ctx, accepterID, "Your invitation")+" accepted your invitation",
		"You are now connected",
		func(p models.NotificationPrefs) bool { return true },
		map[string]string{"type": "friend_accepted", "friend_id": accepterID})
}

func (s *FCMSender) NotifyNudge(ctx context.Context, fromID, toID string) {
	s.send(ctx, toID, s.displayName(ctx, fromID, "A friend")+" is thinking of you",
		"Share an update with your friends",
		func(p models.NotificationPrefs) bool { return p.Nudges },
		map[string]string{"type": "nudge", "from_id": fromID})
}

func (s *FCMSender) displayName(ctx context.Context, userID, fallback string) string {
	snaps, err := s.profiles.GetSnapshots(ctx, []string{userID})
	if err != nil {
		return fallback
	}
	if snap, ok := snaps[userID]; ok && snap.Name != "" {
		return snap.Name
	}
	return fallback
}

func (s *FCMSender) send(ctx context.Context, userID, title, body string, allowed func(models.NotificationPrefs) bool, data map[string]string) {
	if s.client == nil {
		return
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil || profile == nil || profile.DeviceToken == "" {
		return
	}
	if !allowed(profile.Notifications) {
		return
	}

	msg := &messaging.Message{
		Token: profile.DeviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.logger.Warn("push notification failed",
			zap.String("user_id", userID),
			zap.String("type", data["type"]),
			zap.Error(err))
	}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

package social

import (
	"context"
	"log/slog"
	"slices"

	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// SendMessage delivers content from senderID to recipientID. The message
// starts unread and its SentAt never changes.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID int64, content string) (message models.Message, err error) {
	ctx, finish := s.begin(ctx, "send_message")
	defer func() { finish(err) }()

	if senderID == recipientID {
		return models.Message{}, ErrSelfMessage
	}
	if err := validateStruct(messageInput{Content: content}); err != nil {
		return models.Message{}, err
	}

	message = models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		SentAt:      s.clock(),
	}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, senderID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, recipientID); err != nil {
			return err
		}
		return missing(tx.InsertMessage(ctx, &message), entityUser, recipientID)
	})
	if err != nil {
		return models.Message{}, err
	}

	logging.FromContext(ctx).Info("message sent",
		slog.Int64("message_id", message.ID),
		slog.Int64("sender_id", senderID),
		slog.Int64("recipient_id", recipientID),
	)
	return message, nil
}

// MarkRead flags the message as read. Only the recipient may do so, and
// repeating the call succeeds.
func (s *Service) MarkRead(ctx context.Context, messageID, actingUserID int64) (message models.Message, err error) {
	ctx, finish := s.begin(ctx, "mark_read")
	defer func() { finish(err) }()

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		message, err = tx.GetMessage(ctx, messageID)
		if err != nil {
			return missing(err, entityMessage, messageID)
		}
		if message.RecipientID != actingUserID {
			return ErrForbidden
		}
		if message.Read {
			return nil
		}
		if err := tx.MarkMessageRead(ctx, messageID); err != nil {
			return missing(err, entityMessage, messageID)
		}
		message.Read = true
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}

	logging.FromContext(ctx).Info("message read", slog.Int64("message_id", messageID))
	return message, nil
}

// GetMessage returns the message with id.
func (s *Service) GetMessage(ctx context.Context, id int64) (message models.Message, err error) {
	ctx, finish := s.begin(ctx, "get_message")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		message, err = tx.GetMessage(ctx, id)
		return missing(err, entityMessage, id)
	})
	return message, err
}

// ListInbox returns the messages received by recipientID, oldest first.
func (s *Service) ListInbox(ctx context.Context, recipientID int64) (messages []models.Message, err error) {
	ctx, finish := s.begin(ctx, "list_inbox")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, recipientID); err != nil {
			return err
		}
		messages, err = tx.ListMessagesByRecipient(ctx, recipientID)
		return err
	})
	return messages, err
}

// ListConversation returns the messages exchanged between two users in
// either direction, oldest first.
func (s *Service) ListConversation(ctx context.Context, userA, userB int64) (messages []models.Message, err error) {
	ctx, finish := s.begin(ctx, "list_conversation")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userA); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userB); err != nil {
			return err
		}
		messages, err = tx.ListMessagesBetween(ctx, userA, userB)
		return err
	})
	return messages, err
}

// CreateNotification records a notification for userID.
func (s *Service) CreateNotification(ctx context.Context, userID int64, content string) (notification models.Notification, err error) {
	ctx, finish := s.begin(ctx, "create_notification")
	defer func() { finish(err) }()

	if err := validateStruct(notificationInput{Content: content}); err != nil {
		return models.Notification{}, err
	}

	notification = models.Notification{UserID: userID, Content: content, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		return missing(tx.InsertNotification(ctx, &notification), entityUser, userID)
	})
	if err != nil {
		return models.Notification{}, err
	}

	logging.FromContext(ctx).Info("notification created",
		slog.Int64("notification_id", notification.ID),
		slog.Int64("user_id", userID),
	)
	return notification, nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID int64) (notifications []models.Notification, err error) {
	ctx, finish := s.begin(ctx, "list_notifications")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		notifications, err = tx.ListNotificationsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(notifications)
	return notifications, nil
}

package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

func scanMessage(row pgx.Row) (models.Message, error) {
	var message models.Message
	if err := row.Scan(&message.ID, &message.SenderID, &message.RecipientID, &message.Content, &message.SentAt, &message.Read); err != nil {
		return models.Message{}, err
	}
	message.SentAt = message.SentAt.UTC()
	return message, nil
}

// InsertMessage persists a direct message.
func (t *pgTx) InsertMessage(ctx context.Context, message *models.Message) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO messages (sender_id, recipient_id, content, sent_date, read)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, message.SenderID, message.RecipientID, message.Content, message.SentAt, message.Read).Scan(&message.ID)
	if err != nil {
		return writeErr("insert message", err)
	}
	return nil
}

// GetMessage fetches a message by ID.
func (t *pgTx) GetMessage(ctx context.Context, id int64) (models.Message, error) {
	message, err := scanMessage(t.tx.QueryRow(ctx, `
        SELECT id, sender_id, recipient_id, content, sent_date, read
        FROM messages
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Message{}, readErr("select message", err)
	}
	return message, nil
}

// MarkMessageRead sets the read flag. sent_date is never touched.
func (t *pgTx) MarkMessageRead(ctx context.Context, id int64) error {
	n, err := t.exec(ctx, `UPDATE messages SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return writeErr("mark message read", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListMessagesByRecipient returns the messages received by a user.
func (t *pgTx) ListMessagesByRecipient(ctx context.Context, recipientID int64) ([]models.Message, error) {
	return queryAll(ctx, t, "inbox", scanMessage, `
        SELECT id, sender_id, recipient_id, content, sent_date, read
        FROM messages
        WHERE recipient_id = $1
        ORDER BY id
    `, recipientID)
}

// ListMessagesBetween returns the messages exchanged between two users in either direction.
func (t *pgTx) ListMessagesBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	return queryAll(ctx, t, "conversation", scanMessage, `
        SELECT id, sender_id, recipient_id, content, sent_date, read
        FROM messages
        WHERE (sender_id = $1 AND recipient_id = $2)
           OR (sender_id = $2 AND recipient_id = $1)
        ORDER BY id
    `, userA, userB)
}

// DeleteMessagesOf removes every message the user sent or received.
func (t *pgTx) DeleteMessagesOf(ctx context.Context, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete user messages", `
        DELETE FROM messages
        WHERE sender_id = $1 OR recipient_id = $1
    `, userID)
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var notification models.Notification
	if err := row.Scan(&notification.ID, &notification.UserID, &notification.Content, &notification.CreatedAt); err != nil {
		return models.Notification{}, err
	}
	notification.CreatedAt = notification.CreatedAt.UTC()
	return notification, nil
}

// InsertNotification persists a notification for a user.
func (t *pgTx) InsertNotification(ctx context.Context, notification *models.Notification) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO notifications (user_id, content, created_date)
        VALUES ($1, $2, $3)
        RETURNING id
    `, notification.UserID, notification.Content, notification.CreatedAt).Scan(&notification.ID)
	if err != nil {
		return writeErr("insert notification", err)
	}
	return nil
}

// ListNotificationsByUser returns the notifications owned by a user.
func (t *pgTx) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	return queryAll(ctx, t, "notifications", scanNotification, `
        SELECT id, user_id, content, created_date
        FROM notifications
        WHERE user_id = $1
        ORDER BY id
    `, userID)
}

// DeleteNotificationsByUser removes the notifications owned by a user.
func (t *pgTx) DeleteNotificationsByUser(ctx context.Context, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete user notifications", `DELETE FROM notifications WHERE user_id = $1`, userID)
}

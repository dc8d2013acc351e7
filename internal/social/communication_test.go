package social

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

func TestMessageScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "a", "b")
	require.Equal(t, int64(1), users[0].ID)
	require.Equal(t, int64(2), users[1].ID)

	_, err := env.svc.SendMessage(ctx, 1, 1, "hi")
	require.ErrorIs(t, err, ErrSelfMessage)

	msg, err := env.svc.SendMessage(ctx, 1, 2, "hi")
	require.NoError(t, err)
	assert.False(t, msg.Read)
	assert.Equal(t, env.clock.Now(), msg.SentAt)

	_, err = env.svc.MarkRead(ctx, msg.ID, 1)
	require.ErrorIs(t, err, ErrForbidden)

	env.clock.Advance(time.Hour)

	read, err := env.svc.MarkRead(ctx, msg.ID, 2)
	require.NoError(t, err)
	assert.True(t, read.Read)
	assert.Equal(t, msg.SentAt, read.SentAt, "sent date is immutable")

	again, err := env.svc.MarkRead(ctx, msg.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, read, again)

	fetched, err := env.svc.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, read, fetched)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "a", "b")

	// self check runs before any lookup
	_, err := env.svc.SendMessage(ctx, 404, 404, "hi")
	require.ErrorIs(t, err, ErrSelfMessage)

	_, err = env.svc.SendMessage(ctx, users[0].ID, 404, "hi")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.SendMessage(ctx, 404, users[0].ID, "hi")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.SendMessage(ctx, users[0].ID, users[1].ID, strings.Repeat("m", MaxTextLength+1))
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, env.counts(t)[store.TableMessages])
}

func TestMarkReadUnknownMessage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.MarkRead(context.Background(), 404, 1)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "message", notFound.Entity)
}

func TestInboxAndConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "a", "b", "c")
	a, b, c := users[0].ID, users[1].ID, users[2].ID

	first, err := env.svc.SendMessage(ctx, a, b, "one")
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	second, err := env.svc.SendMessage(ctx, b, a, "two")
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	third, err := env.svc.SendMessage(ctx, c, b, "three")
	require.NoError(t, err)

	conversation, err := env.svc.ListConversation(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, []models.Message{first, second}, conversation)

	inbox, err := env.svc.ListInbox(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []models.Message{first, third}, inbox)

	_, err = env.svc.ListConversation(ctx, a, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.users(t, "alice")[0]

	older, err := env.svc.CreateNotification(ctx, alice.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now(), older.CreatedAt)

	env.clock.Advance(time.Minute)
	newer, err := env.svc.CreateNotification(ctx, alice.ID, "second")
	require.NoError(t, err)

	notifications, err := env.svc.ListNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Notification{newer, older}, notifications)

	_, err = env.svc.CreateNotification(ctx, 404, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.CreateNotification(ctx, alice.ID, strings.Repeat("n", MaxTextLength+1))
	require.ErrorIs(t, err, ErrValidation)
}

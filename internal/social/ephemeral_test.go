package social

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

func TestStoryExpiryScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.users(t, "alice")[0]
	t0 := env.clock.Now()

	story, err := env.svc.CreateStory(ctx, alice.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, t0, story.CreatedAt)

	assert.False(t, IsExpired(story, t0))
	assert.False(t, IsExpired(story, t0.Add(30*time.Second)))
	assert.True(t, IsExpired(story, t0.Add(60*time.Second)))
	assert.True(t, IsExpired(story, t0.Add(61*time.Second)))
}

func TestIsExpiredMonotonic(t *testing.T) {
	story := models.Story{DurationSeconds: 45, CreatedAt: time.Unix(1_000, 0).UTC()}
	start := story.CreatedAt.Add(-10 * time.Second)

	expired := false
	for step := range 120 {
		now := start.Add(time.Duration(step) * time.Second)
		got := IsExpired(story, now)
		if expired {
			require.True(t, got, "story became active again at %s", now)
		}
		expired = got
	}
	assert.True(t, expired)
}

func TestCreateStoryValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.users(t, "alice")[0]

	for _, duration := range []int{0, -1, MaxStoryDuration + 1, math.MaxInt} {
		_, err := env.svc.CreateStory(ctx, alice.ID, duration)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "duration %d", duration)
		assert.Equal(t, "duration", verr.Field)
	}
	assert.Equal(t, 0, env.counts(t)[store.TableStories])

	longest, err := env.svc.CreateStory(ctx, alice.ID, MaxStoryDuration)
	require.NoError(t, err)
	assert.True(t, longest.ExpiresAt().After(longest.CreatedAt))
	assert.False(t, IsExpired(longest, env.clock.Now()))
	_, err = env.svc.DeleteStory(ctx, longest.ID)
	require.NoError(t, err)

	_, err = env.svc.CreateStory(ctx, 404, 60)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, env.counts(t)[store.TableStories])
}

func TestActiveStoriesExcludeExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.users(t, "alice")[0]

	short, err := env.svc.CreateStory(ctx, alice.ID, 10)
	require.NoError(t, err)
	long, err := env.svc.CreateStory(ctx, alice.ID, 3600)
	require.NoError(t, err)

	active, err := env.svc.ListActiveStories(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Story{short, long}, active)

	env.clock.Advance(10 * time.Second)

	active, err = env.svc.ListActiveStories(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Story{long}, active)

	// expired stories stay retrievable by ID
	fetched, err := env.svc.GetStory(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, short, fetched)

	_, err = env.svc.ListActiveStories(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestActiveStoryFeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "viewer", "bob", "carol", "stranger")
	viewer, bob, carol, stranger := users[0].ID, users[1].ID, users[2].ID, users[3].ID

	_, err := env.svc.Follow(ctx, viewer, bob)
	require.NoError(t, err)
	_, err = env.svc.Follow(ctx, viewer, carol)
	require.NoError(t, err)

	bobOld, err := env.svc.CreateStory(ctx, bob, 3600)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, err = env.svc.CreateStory(ctx, carol, 30)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	carolNew, err := env.svc.CreateStory(ctx, carol, 3600)
	require.NoError(t, err)
	_, err = env.svc.CreateStory(ctx, stranger, 3600)
	require.NoError(t, err)

	feed, err := env.svc.ActiveStoryFeed(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, []models.Story{carolNew, bobOld}, feed)

	feed, err = env.svc.ActiveStoryFeed(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestStoryMedia(t *testing.T) {
	assets := &recordingAssets{}
	env := newTestEnv(t, WithAssetStorage(assets))
	ctx := context.Background()
	alice := env.users(t, "alice")[0]
	story, err := env.svc.CreateStory(ctx, alice.ID, 60)
	require.NoError(t, err)

	attached, err := env.svc.AttachStoryMedia(ctx, story.ID, models.MediaTypeImage)
	require.NoError(t, err)
	parent, id := attached.Parent()
	assert.Equal(t, models.MediaParentStory, parent)
	assert.Equal(t, story.ID, id)

	uploaded, err := env.svc.UploadStoryMedia(ctx, story.ID, models.MediaTypeVideo, "clip.mp4", strings.NewReader("mp4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploaded.Location, "https://cdn.test/stories/1/"), uploaded.Location)

	_, err = env.svc.AttachStoryMedia(ctx, story.ID, models.MediaType(0))
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.AttachStoryMedia(ctx, 404, models.MediaTypeImage)
	require.ErrorIs(t, err, ErrNotFound)

	media, err := env.svc.ListStoryMedia(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Media{attached, uploaded}, media)
}

func TestRecordView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "alice", "bob")
	story, err := env.svc.CreateStory(ctx, users[0].ID, 60)
	require.NoError(t, err)

	view, err := env.svc.RecordView(ctx, story.ID, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now(), view.ViewedAt)

	_, err = env.svc.RecordView(ctx, story.ID, users[1].ID)
	require.ErrorIs(t, err, ErrDuplicateView)

	_, err = env.svc.RecordView(ctx, 404, users[1].ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.RecordView(ctx, story.ID, 404)
	require.ErrorIs(t, err, ErrNotFound)

	views, err := env.svc.ListStoryViews(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.StoryView{view}, views)
}

func TestRecordViewAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "alice", "bob")
	story, err := env.svc.CreateStory(ctx, users[0].ID, 60)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Minute)
	require.True(t, IsExpired(story, env.clock.Now()))

	_, err = env.svc.RecordView(ctx, story.ID, users[1].ID)
	require.NoError(t, err)
}

func TestDeleteStoryCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.users(t, "alice", "bob", "carol")
	story, err := env.svc.CreateStory(ctx, users[0].ID, 60)
	require.NoError(t, err)
	kept, err := env.svc.CreateStory(ctx, users[0].ID, 60)
	require.NoError(t, err)

	_, err = env.svc.AttachStoryMedia(ctx, story.ID, models.MediaTypeImage)
	require.NoError(t, err)
	_, err = env.svc.AttachStoryMedia(ctx, kept.ID, models.MediaTypeImage)
	require.NoError(t, err)
	for _, viewer := range users[1:] {
		_, err = env.svc.RecordView(ctx, story.ID, viewer.ID)
		require.NoError(t, err)
	}

	report, err := env.svc.DeleteStory(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CascadeReport{Stories: 1, Media: 1, StoryViews: 2}, report)

	_, err = env.svc.GetStory(ctx, story.ID)
	require.ErrorIs(t, err, ErrNotFound)

	counts := env.counts(t)
	assert.Equal(t, 1, counts[store.TableStories])
	assert.Equal(t, 1, counts[store.TableMedia])
	assert.Equal(t, 0, counts[store.TableStoryViews])

	_, err = env.svc.DeleteStory(ctx, story.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

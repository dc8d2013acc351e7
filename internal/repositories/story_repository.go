package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/snapgram/backend/internal/models"
)

func scanStory(row pgx.Row) (models.Story, error) {
	var story models.Story
	if err := row.Scan(&story.ID, &story.UserID, &story.DurationSeconds, &story.CreatedAt); err != nil {
		return models.Story{}, err
	}
	story.CreatedAt = story.CreatedAt.UTC()
	return story, nil
}

// InsertStory persists a new story.
func (t *pgTx) InsertStory(ctx context.Context, story *models.Story) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO stories (user_id, duration, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, story.UserID, story.DurationSeconds, story.CreatedAt).Scan(&story.ID)
	if err != nil {
		return writeErr("insert story", err)
	}
	return nil
}

// GetStory fetches a story by ID regardless of expiry.
func (t *pgTx) GetStory(ctx context.Context, id int64) (models.Story, error) {
	story, err := scanStory(t.tx.QueryRow(ctx, `
        SELECT id, user_id, duration, created_at
        FROM stories
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Story{}, readErr("select story", err)
	}
	return story, nil
}

// ListStoriesByUser returns every story owned by the user, expired or not.
func (t *pgTx) ListStoriesByUser(ctx context.Context, userID int64) ([]models.Story, error) {
	return queryAll(ctx, t, "stories", scanStory, `
        SELECT id, user_id, duration, created_at
        FROM stories
        WHERE user_id = $1
        ORDER BY id
    `, userID)
}

// DeleteStory removes a story row. Dependent rows must already be gone.
func (t *pgTx) DeleteStory(ctx context.Context, id int64) error {
	return t.deleteOne(ctx, "delete story", `DELETE FROM stories WHERE id = $1`, id)
}

func scanStoryView(row pgx.Row) (models.StoryView, error) {
	var view models.StoryView
	if err := row.Scan(&view.ID, &view.UserID, &view.StoryID, &view.ViewedAt); err != nil {
		return models.StoryView{}, err
	}
	view.ViewedAt = view.ViewedAt.UTC()
	return view, nil
}

// InsertStoryView persists a view. The (user_id, story_id) unique index rejects duplicates.
func (t *pgTx) InsertStoryView(ctx context.Context, view *models.StoryView) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO story_views (user_id, story_id, viewed_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, view.UserID, view.StoryID, view.ViewedAt).Scan(&view.ID)
	if err != nil {
		return writeErr("insert story view", err)
	}
	return nil
}

// ListViewsByStory returns the views recorded for a story.
func (t *pgTx) ListViewsByStory(ctx context.Context, storyID int64) ([]models.StoryView, error) {
	return queryAll(ctx, t, "story views", scanStoryView, `
        SELECT id, user_id, story_id, viewed_at
        FROM story_views
        WHERE story_id = $1
        ORDER BY id
    `, storyID)
}

// DeleteViewsByStory removes the views of a story.
func (t *pgTx) DeleteViewsByStory(ctx context.Context, storyID int64) (int, error) {
	return t.deleteMany(ctx, "delete story views", `DELETE FROM story_views WHERE story_id = $1`, storyID)
}

// DeleteViewsByUser removes the views recorded by a user.
func (t *pgTx) DeleteViewsByUser(ctx context.Context, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete user story views", `DELETE FROM story_views WHERE user_id = $1`, userID)
}

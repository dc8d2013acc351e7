package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	if err := row.Scan(&post.ID, &post.UserID, &post.CreatedAt); err != nil {
		return models.Post{}, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	return post, nil
}

// InsertPost persists a new post.
func (t *pgTx) InsertPost(ctx context.Context, post *models.Post) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO posts (user_id, created_at)
        VALUES ($1, $2)
        RETURNING id
    `, post.UserID, post.CreatedAt).Scan(&post.ID)
	if err != nil {
		return writeErr("insert post", err)
	}
	return nil
}

// GetPost fetches a post by ID.
func (t *pgTx) GetPost(ctx context.Context, id int64) (models.Post, error) {
	post, err := scanPost(t.tx.QueryRow(ctx, `
        SELECT id, user_id, created_at
        FROM posts
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Post{}, readErr("select post", err)
	}
	return post, nil
}

// ListPostsByUser returns the posts owned by the user.
func (t *pgTx) ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	return queryAll(ctx, t, "posts", scanPost, `
        SELECT id, user_id, created_at
        FROM posts
        WHERE user_id = $1
        ORDER BY id
    `, userID)
}

// DeletePost removes a post row. Dependent rows must already be gone.
func (t *pgTx) DeletePost(ctx context.Context, id int64) error {
	return t.deleteOne(ctx, "delete post", `DELETE FROM posts WHERE id = $1`, id)
}

func scanMedia(row pgx.Row) (models.Media, error) {
	var (
		media    models.Media
		typeName string
	)
	if err := row.Scan(&media.ID, &typeName, &media.PostID, &media.StoryID, &media.Location); err != nil {
		return models.Media{}, err
	}
	mediaType, err := models.ParseMediaType(typeName)
	if err != nil {
		return models.Media{}, fmt.Errorf("media %d: %w", media.ID, err)
	}
	media.Type = mediaType
	return media, nil
}

// InsertMedia persists a media item attached to a post or a story.
func (t *pgTx) InsertMedia(ctx context.Context, media *models.Media) error {
	typeName, err := media.Type.MarshalText()
	if err != nil {
		return store.ErrConstraint
	}

	err = t.tx.QueryRow(ctx, `
        INSERT INTO media (type, post_id, story_id, location)
        VALUES ($1::media_type_enum, $2, $3, $4)
        RETURNING id
    `, string(typeName), media.PostID, media.StoryID, media.Location).Scan(&media.ID)
	if err != nil {
		return writeErr("insert media", err)
	}
	return nil
}

// ListMediaByPost returns the media attached to a post.
func (t *pgTx) ListMediaByPost(ctx context.Context, postID int64) ([]models.Media, error) {
	return queryAll(ctx, t, "post media", scanMedia, `
        SELECT id, type::text, post_id, story_id, location
        FROM media
        WHERE post_id = $1
        ORDER BY id
    `, postID)
}

// ListMediaByStory returns the media attached to a story.
func (t *pgTx) ListMediaByStory(ctx context.Context, storyID int64) ([]models.Media, error) {
	return queryAll(ctx, t, "story media", scanMedia, `
        SELECT id, type::text, post_id, story_id, location
        FROM media
        WHERE story_id = $1
        ORDER BY id
    `, storyID)
}

// DeleteMediaByPost removes all media attached to a post.
func (t *pgTx) DeleteMediaByPost(ctx context.Context, postID int64) (int, error) {
	return t.deleteMany(ctx, "delete post media", `DELETE FROM media WHERE post_id = $1`, postID)
}

// DeleteMediaByStory removes all media attached to a story.
func (t *pgTx) DeleteMediaByStory(ctx context.Context, storyID int64) (int, error) {
	return t.deleteMany(ctx, "delete story media", `DELETE FROM media WHERE story_id = $1`, storyID)
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.Text, &comment.AuthorID, &comment.PostID, &comment.CreatedAt); err != nil {
		return models.Comment{}, err
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	return comment, nil
}

// InsertComment persists a comment on a post.
func (t *pgTx) InsertComment(ctx context.Context, comment *models.Comment) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO comments (comment_text, author_id, post_id, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, comment.Text, comment.AuthorID, comment.PostID, comment.CreatedAt).Scan(&comment.ID)
	if err != nil {
		return writeErr("insert comment", err)
	}
	return nil
}

// GetComment fetches a comment by ID.
func (t *pgTx) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	comment, err := scanComment(t.tx.QueryRow(ctx, `
        SELECT id, comment_text, author_id, post_id, created_at
        FROM comments
        WHERE id = $1
    `, id))
	if err != nil {
		return models.Comment{}, readErr("select comment", err)
	}
	return comment, nil
}

// ListCommentsByPost returns the comments on a post.
func (t *pgTx) ListCommentsByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	return queryAll(ctx, t, "comments", scanComment, `
        SELECT id, comment_text, author_id, post_id, created_at
        FROM comments
        WHERE post_id = $1
        ORDER BY id
    `, postID)
}

// DeleteComment removes a single comment.
func (t *pgTx) DeleteComment(ctx context.Context, id int64) error {
	return t.deleteOne(ctx, "delete comment", `DELETE FROM comments WHERE id = $1`, id)
}

// DeleteCommentsByPost removes all comments on a post.
func (t *pgTx) DeleteCommentsByPost(ctx context.Context, postID int64) (int, error) {
	return t.deleteMany(ctx, "delete post comments", `DELETE FROM comments WHERE post_id = $1`, postID)
}

// DeleteCommentsByAuthor removes all comments written by a user.
func (t *pgTx) DeleteCommentsByAuthor(ctx context.Context, authorID int64) (int, error) {
	return t.deleteMany(ctx, "delete author comments", `DELETE FROM comments WHERE author_id = $1`, authorID)
}

func scanLike(row pgx.Row) (models.Like, error) {
	var like models.Like
	if err := row.Scan(&like.ID, &like.UserID, &like.PostID, &like.CreatedAt); err != nil {
		return models.Like{}, err
	}
	like.CreatedAt = like.CreatedAt.UTC()
	return like, nil
}

// InsertLike persists a like. The (user_id, post_id) unique index rejects duplicates.
func (t *pgTx) InsertLike(ctx context.Context, like *models.Like) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO likes (user_id, post_id, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, like.UserID, like.PostID, like.CreatedAt).Scan(&like.ID)
	if err != nil {
		return writeErr("insert like", err)
	}
	return nil
}

// DeleteLike removes the like for a (post, user) pair, if present.
func (t *pgTx) DeleteLike(ctx context.Context, postID, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete like", `
        DELETE FROM likes
        WHERE post_id = $1 AND user_id = $2
    `, postID, userID)
}

// ListLikesByPost returns the likes on a post.
func (t *pgTx) ListLikesByPost(ctx context.Context, postID int64) ([]models.Like, error) {
	return queryAll(ctx, t, "likes", scanLike, `
        SELECT id, user_id, post_id, created_at
        FROM likes
        WHERE post_id = $1
        ORDER BY id
    `, postID)
}

// DeleteLikesByPost removes all likes on a post.
func (t *pgTx) DeleteLikesByPost(ctx context.Context, postID int64) (int, error) {
	return t.deleteMany(ctx, "delete post likes", `DELETE FROM likes WHERE post_id = $1`, postID)
}

// DeleteLikesByUser removes all likes made by a user.
func (t *pgTx) DeleteLikesByUser(ctx context.Context, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete user likes", `DELETE FROM likes WHERE user_id = $1`, userID)
}

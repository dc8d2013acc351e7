package social

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// CreatePost creates an empty post owned by userID.
func (s *Service) CreatePost(ctx context.Context, userID int64) (post models.Post, err error) {
	ctx, finish := s.begin(ctx, "create_post")
	defer func() { finish(err) }()

	post = models.Post{UserID: userID, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		return missing(tx.InsertPost(ctx, &post), entityUser, userID)
	})
	if err != nil {
		return models.Post{}, err
	}

	logging.FromContext(ctx).Info("post created", slog.Int64("post_id", post.ID), slog.Int64("user_id", userID))
	return post, nil
}

// GetPost returns the post with id.
func (s *Service) GetPost(ctx context.Context, id int64) (post models.Post, err error) {
	ctx, finish := s.begin(ctx, "get_post")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		post, err = tx.GetPost(ctx, id)
		return missing(err, entityPost, id)
	})
	return post, err
}

// ListPosts returns the posts owned by userID, oldest first.
func (s *Service) ListPosts(ctx context.Context, userID int64) (posts []models.Post, err error) {
	ctx, finish := s.begin(ctx, "list_posts")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		posts, err = tx.ListPostsByUser(ctx, userID)
		return err
	})
	return posts, err
}

// GetPostDetail returns the post together with its media, comments and likes.
func (s *Service) GetPostDetail(ctx context.Context, id int64) (detail models.PostDetail, err error) {
	ctx, finish := s.begin(ctx, "get_post_detail")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		post, err := tx.GetPost(ctx, id)
		if err != nil {
			return missing(err, entityPost, id)
		}
		detail.Post = post
		if detail.Media, err = tx.ListMediaByPost(ctx, id); err != nil {
			return err
		}
		if detail.Comments, err = tx.ListCommentsByPost(ctx, id); err != nil {
			return err
		}
		detail.Likes, err = tx.ListLikesByPost(ctx, id)
		return err
	})
	if err != nil {
		return models.PostDetail{}, err
	}
	return detail, nil
}

// AttachMedia records a media item of the given type on a post.
func (s *Service) AttachMedia(ctx context.Context, postID int64, mediaType models.MediaType) (media models.Media, err error) {
	ctx, finish := s.begin(ctx, "attach_media")
	defer func() { finish(err) }()

	return s.attachPostMedia(ctx, postID, mediaType, "")
}

// UploadPostMedia stores the bytes read from r in asset storage and records
// the resulting location as media on the post.
func (s *Service) UploadPostMedia(ctx context.Context, postID int64, mediaType models.MediaType, filename string, r io.Reader) (media models.Media, err error) {
	ctx, finish := s.begin(ctx, "upload_post_media")
	defer func() { finish(err) }()

	if s.assets == nil {
		return models.Media{}, ErrAssetStorageUnavailable
	}
	if err := validateMediaType(mediaType); err != nil {
		return models.Media{}, err
	}
	if err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return requirePost(ctx, tx, postID)
	}); err != nil {
		return models.Media{}, err
	}

	location, err := s.assets.Save(ctx, assetKey("posts", postID, filename), r)
	if err != nil {
		return models.Media{}, fmt.Errorf("store post media: %w", err)
	}

	return s.attachPostMedia(ctx, postID, mediaType, location)
}

func (s *Service) attachPostMedia(ctx context.Context, postID int64, mediaType models.MediaType, location string) (models.Media, error) {
	if err := validateMediaType(mediaType); err != nil {
		return models.Media{}, err
	}

	media := models.Media{Type: mediaType, PostID: &postID, Location: location}
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		return missing(tx.InsertMedia(ctx, &media), entityPost, postID)
	})
	if err != nil {
		return models.Media{}, err
	}

	logging.FromContext(ctx).Info("media attached", slog.Int64("media_id", media.ID), slog.Int64("post_id", postID))
	return media, nil
}

// ListPostMedia returns the media attached to a post.
func (s *Service) ListPostMedia(ctx context.Context, postID int64) (media []models.Media, err error) {
	ctx, finish := s.begin(ctx, "list_post_media")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		media, err = tx.ListMediaByPost(ctx, postID)
		return err
	})
	return media, err
}

// AddComment records a comment by authorID on postID.
func (s *Service) AddComment(ctx context.Context, postID, authorID int64, text string) (comment models.Comment, err error) {
	ctx, finish := s.begin(ctx, "add_comment")
	defer func() { finish(err) }()

	if err := validateStruct(commentInput{Text: text}); err != nil {
		return models.Comment{}, err
	}

	comment = models.Comment{Text: text, AuthorID: authorID, PostID: postID, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, authorID); err != nil {
			return err
		}
		return missing(tx.InsertComment(ctx, &comment), entityPost, postID)
	})
	if err != nil {
		return models.Comment{}, err
	}

	logging.FromContext(ctx).Info("comment added",
		slog.Int64("comment_id", comment.ID),
		slog.Int64("post_id", postID),
		slog.Int64("author_id", authorID),
	)
	return comment, nil
}

// ListComments returns the comments on a post, oldest first.
func (s *Service) ListComments(ctx context.Context, postID int64) (comments []models.Comment, err error) {
	ctx, finish := s.begin(ctx, "list_comments")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		comments, err = tx.ListCommentsByPost(ctx, postID)
		return err
	})
	return comments, err
}

// DeleteComment removes a single comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) (err error) {
	ctx, finish := s.begin(ctx, "delete_comment")
	defer func() { finish(err) }()

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return missing(tx.DeleteComment(ctx, id), entityComment, id)
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("comment deleted", slog.Int64("comment_id", id))
	return nil
}

// AddLike records that userID likes postID. A second like for the pair fails
// with ErrDuplicateLike.
func (s *Service) AddLike(ctx context.Context, postID, userID int64) (like models.Like, err error) {
	ctx, finish := s.begin(ctx, "add_like")
	defer func() { finish(err) }()

	like = models.Like{UserID: userID, PostID: postID, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		return missing(duplicate(tx.InsertLike(ctx, &like), ErrDuplicateLike), entityPost, postID)
	})
	if err != nil {
		return models.Like{}, err
	}

	logging.FromContext(ctx).Info("post liked", slog.Int64("post_id", postID), slog.Int64("user_id", userID))
	return like, nil
}

// RemoveLike deletes the like for (postID, userID). Removing an absent like succeeds.
func (s *Service) RemoveLike(ctx context.Context, postID, userID int64) (err error) {
	ctx, finish := s.begin(ctx, "remove_like")
	defer func() { finish(err) }()

	return s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.DeleteLike(ctx, postID, userID)
		return err
	})
}

// ListLikes returns the likes on a post.
func (s *Service) ListLikes(ctx context.Context, postID int64) (likes []models.Like, err error) {
	ctx, finish := s.begin(ctx, "list_likes")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requirePost(ctx, tx, postID); err != nil {
			return err
		}
		likes, err = tx.ListLikesByPost(ctx, postID)
		return err
	})
	return likes, err
}

// DeletePost removes the post with its media, comments and likes.
func (s *Service) DeletePost(ctx context.Context, id int64) (report models.CascadeReport, err error) {
	ctx, finish := s.begin(ctx, "delete_post")
	defer func() { finish(err) }()

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		report, err = deletePostTree(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.CascadeReport{}, err
	}

	logging.FromContext(ctx).Info("post deleted", slog.Int64("post_id", id))
	s.cascaded(ctx, report)
	return report, nil
}

// deletePostTree removes a post and its children inside tx.
func deletePostTree(ctx context.Context, tx store.Tx, id int64) (models.CascadeReport, error) {
	var report models.CascadeReport
	if err := requirePost(ctx, tx, id); err != nil {
		return report, err
	}

	var err error
	if report.Media, err = tx.DeleteMediaByPost(ctx, id); err != nil {
		return report, err
	}
	if report.Comments, err = tx.DeleteCommentsByPost(ctx, id); err != nil {
		return report, err
	}
	if report.Likes, err = tx.DeleteLikesByPost(ctx, id); err != nil {
		return report, err
	}
	if err := tx.DeletePost(ctx, id); err != nil {
		return report, missing(err, entityPost, id)
	}
	report.Posts = 1
	return report, nil
}

// assetKey builds a collision-free object key under prefix/parentID.
func assetKey(prefix string, parentID int64, filename string) string {
	name := path.Base(path.Clean("/" + filename))
	if name == "/" || name == "." {
		name = "asset"
	}
	return fmt.Sprintf("%s/%d/%s-%s", prefix, parentID, uuid.NewString(), name)
}

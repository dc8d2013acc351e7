package social

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// IsExpired reports whether story is no longer active at now.
func IsExpired(story models.Story, now time.Time) bool {
	return story.IsExpired(now)
}

// CreateStory creates a story owned by userID that stays active for durationSeconds.
func (s *Service) CreateStory(ctx context.Context, userID int64, durationSeconds int) (story models.Story, err error) {
	ctx, finish := s.begin(ctx, "create_story")
	defer func() { finish(err) }()

	if err := validateDuration(durationSeconds); err != nil {
		return models.Story{}, err
	}

	story = models.Story{UserID: userID, DurationSeconds: durationSeconds, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		return missing(tx.InsertStory(ctx, &story), entityUser, userID)
	})
	if err != nil {
		return models.Story{}, err
	}

	logging.FromContext(ctx).Info("story created",
		slog.Int64("story_id", story.ID),
		slog.Int64("user_id", userID),
		slog.Int("duration_seconds", durationSeconds),
	)
	return story, nil
}

// GetStory returns the story with id whether or not it has expired.
func (s *Service) GetStory(ctx context.Context, id int64) (story models.Story, err error) {
	ctx, finish := s.begin(ctx, "get_story")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		story, err = tx.GetStory(ctx, id)
		return missing(err, entityStory, id)
	})
	return story, err
}

// ListActiveStories returns the user's stories that have not expired, oldest first.
func (s *Service) ListActiveStories(ctx context.Context, userID int64) (stories []models.Story, err error) {
	ctx, finish := s.begin(ctx, "list_active_stories")
	defer func() { finish(err) }()

	now := s.clock()
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		all, err := tx.ListStoriesByUser(ctx, userID)
		if err != nil {
			return err
		}
		stories = activeOnly(all, now)
		return nil
	})
	return stories, err
}

// ActiveStoryFeed returns the active stories of every user viewerID follows,
// newest first.
func (s *Service) ActiveStoryFeed(ctx context.Context, viewerID int64) (feed []models.Story, err error) {
	ctx, finish := s.begin(ctx, "active_story_feed")
	defer func() { finish(err) }()

	now := s.clock()
	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, viewerID); err != nil {
			return err
		}
		following, err := tx.ListFollowing(ctx, viewerID)
		if err != nil {
			return err
		}
		for _, edge := range following {
			stories, err := tx.ListStoriesByUser(ctx, edge.ToUserID)
			if err != nil {
				return err
			}
			feed = append(feed, activeOnly(stories, now)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(feed, func(a, b models.Story) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return feed, nil
}

func activeOnly(stories []models.Story, now time.Time) []models.Story {
	active := make([]models.Story, 0, len(stories))
	for _, story := range stories {
		if !story.IsExpired(now) {
			active = append(active, story)
		}
	}
	return active
}

// AttachStoryMedia records a media item of the given type on a story.
func (s *Service) AttachStoryMedia(ctx context.Context, storyID int64, mediaType models.MediaType) (media models.Media, err error) {
	ctx, finish := s.begin(ctx, "attach_story_media")
	defer func() { finish(err) }()

	return s.attachStoryMedia(ctx, storyID, mediaType, "")
}

// UploadStoryMedia stores the bytes read from r in asset storage and records
// the resulting location as media on the story.
func (s *Service) UploadStoryMedia(ctx context.Context, storyID int64, mediaType models.MediaType, filename string, r io.Reader) (media models.Media, err error) {
	ctx, finish := s.begin(ctx, "upload_story_media")
	defer func() { finish(err) }()

	if s.assets == nil {
		return models.Media{}, ErrAssetStorageUnavailable
	}
	if err := validateMediaType(mediaType); err != nil {
		return models.Media{}, err
	}
	if err := s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return requireStory(ctx, tx, storyID)
	}); err != nil {
		return models.Media{}, err
	}

	location, err := s.assets.Save(ctx, assetKey("stories", storyID, filename), r)
	if err != nil {
		return models.Media{}, fmt.Errorf("store story media: %w", err)
	}

	return s.attachStoryMedia(ctx, storyID, mediaType, location)
}

func (s *Service) attachStoryMedia(ctx context.Context, storyID int64, mediaType models.MediaType, location string) (models.Media, error) {
	if err := validateMediaType(mediaType); err != nil {
		return models.Media{}, err
	}

	media := models.Media{Type: mediaType, StoryID: &storyID, Location: location}
	err := s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireStory(ctx, tx, storyID); err != nil {
			return err
		}
		return missing(tx.InsertMedia(ctx, &media), entityStory, storyID)
	})
	if err != nil {
		return models.Media{}, err
	}

	logging.FromContext(ctx).Info("media attached", slog.Int64("media_id", media.ID), slog.Int64("story_id", storyID))
	return media, nil
}

// ListStoryMedia returns the media attached to a story.
func (s *Service) ListStoryMedia(ctx context.Context, storyID int64) (media []models.Media, err error) {
	ctx, finish := s.begin(ctx, "list_story_media")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireStory(ctx, tx, storyID); err != nil {
			return err
		}
		media, err = tx.ListMediaByStory(ctx, storyID)
		return err
	})
	return media, err
}

// RecordView records that userID viewed storyID. Views of expired stories
// are accepted; a second view of the same story fails with ErrDuplicateView.
func (s *Service) RecordView(ctx context.Context, storyID, userID int64) (view models.StoryView, err error) {
	ctx, finish := s.begin(ctx, "record_view")
	defer func() { finish(err) }()

	view = models.StoryView{UserID: userID, StoryID: storyID, ViewedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireStory(ctx, tx, storyID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		return missing(duplicate(tx.InsertStoryView(ctx, &view), ErrDuplicateView), entityStory, storyID)
	})
	if err != nil {
		return models.StoryView{}, err
	}

	logging.FromContext(ctx).Info("story viewed", slog.Int64("story_id", storyID), slog.Int64("user_id", userID))
	return view, nil
}

// ListStoryViews returns the views recorded for a story.
func (s *Service) ListStoryViews(ctx context.Context, storyID int64) (views []models.StoryView, err error) {
	ctx, finish := s.begin(ctx, "list_story_views")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireStory(ctx, tx, storyID); err != nil {
			return err
		}
		views, err = tx.ListViewsByStory(ctx, storyID)
		return err
	})
	return views, err
}

// DeleteStory removes the story with its media and views.
func (s *Service) DeleteStory(ctx context.Context, id int64) (report models.CascadeReport, err error) {
	ctx, finish := s.begin(ctx, "delete_story")
	defer func() { finish(err) }()

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		report, err = deleteStoryTree(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.CascadeReport{}, err
	}

	logging.FromContext(ctx).Info("story deleted", slog.Int64("story_id", id))
	s.cascaded(ctx, report)
	return report, nil
}

// deleteStoryTree removes a story and its children inside tx.
func deleteStoryTree(ctx context.Context, tx store.Tx, id int64) (models.CascadeReport, error) {
	var report models.CascadeReport
	if err := requireStory(ctx, tx, id); err != nil {
		return report, err
	}

	var err error
	if report.Media, err = tx.DeleteMediaByStory(ctx, id); err != nil {
		return report, err
	}
	if report.StoryViews, err = tx.DeleteViewsByStory(ctx, id); err != nil {
		return report, err
	}
	if err := tx.DeleteStory(ctx, id); err != nil {
		return report, missing(err, entityStory, id)
	}
	report.Stories = 1
	return report, nil
}

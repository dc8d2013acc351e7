package social

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/snapgram/backend/internal/logging"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// CreateUser registers an account. The username is trimmed and must not be empty.
func (s *Service) CreateUser(ctx context.Context, in models.NewUser) (user models.User, err error) {
	ctx, finish := s.begin(ctx, "create_user")
	defer func() { finish(err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return models.User{}, err
	}

	user = models.User{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertUser(ctx, &user)
	})
	if err != nil {
		return models.User{}, err
	}

	logging.FromContext(ctx).Info("user created", slog.Int64("user_id", user.ID))
	return user, nil
}

// GetUser returns the account with id.
func (s *Service) GetUser(ctx context.Context, id int64) (user models.User, err error) {
	ctx, finish := s.begin(ctx, "get_user")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err = tx.GetUser(ctx, id)
		return missing(err, entityUser, id)
	})
	return user, err
}

// UpdateProfile replaces the mutable profile fields. ID and username never change.
func (s *Service) UpdateProfile(ctx context.Context, id int64, profile models.Profile) (user models.User, err error) {
	ctx, finish := s.begin(ctx, "update_profile")
	defer func() { finish(err) }()

	profile.Email = strings.TrimSpace(profile.Email)
	if err := validateStruct(profile); err != nil {
		return models.User{}, err
	}

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := tx.GetUser(ctx, id)
		if err != nil {
			return missing(err, entityUser, id)
		}
		current.FirstName = profile.FirstName
		current.LastName = profile.LastName
		current.Email = profile.Email
		if err := tx.UpdateUser(ctx, current); err != nil {
			return missing(err, entityUser, id)
		}
		user = current
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	logging.FromContext(ctx).Info("profile updated", slog.Int64("user_id", id))
	return user, nil
}

// Follow creates the directed edge fromID -> toID.
func (s *Service) Follow(ctx context.Context, fromID, toID int64) (edge models.Follower, err error) {
	ctx, finish := s.begin(ctx, "follow")
	defer func() { finish(err) }()

	if fromID == toID {
		return models.Follower{}, ErrSelfFollow
	}

	edge = models.Follower{FromUserID: fromID, ToUserID: toID, CreatedAt: s.clock()}
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, fromID); err != nil {
			return err
		}
		if err := requireUser(ctx, tx, toID); err != nil {
			return err
		}

		_, err := tx.GetFollower(ctx, fromID, toID)
		switch {
		case err == nil:
			return ErrDuplicateEdge
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if err := tx.InsertFollower(ctx, &edge); err != nil {
			return missing(duplicate(err, ErrDuplicateEdge), entityUser, toID)
		}
		return nil
	})
	if err != nil {
		return models.Follower{}, err
	}

	logging.FromContext(ctx).Info("user followed",
		slog.Int64("from_user_id", fromID),
		slog.Int64("to_user_id", toID),
	)
	return edge, nil
}

// Unfollow removes the edge fromID -> toID. Removing an absent edge succeeds.
func (s *Service) Unfollow(ctx context.Context, fromID, toID int64) (err error) {
	ctx, finish := s.begin(ctx, "unfollow")
	defer func() { finish(err) }()

	var removed int
	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		removed, err = tx.DeleteFollower(ctx, fromID, toID)
		return err
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		logging.FromContext(ctx).Info("user unfollowed",
			slog.Int64("from_user_id", fromID),
			slog.Int64("to_user_id", toID),
		)
	}
	return nil
}

// ListFollowers returns the edges pointing at userID.
func (s *Service) ListFollowers(ctx context.Context, userID int64) (edges []models.Follower, err error) {
	ctx, finish := s.begin(ctx, "list_followers")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		edges, err = tx.ListFollowers(ctx, userID)
		return err
	})
	return edges, err
}

// ListFollowing returns the edges leaving userID.
func (s *Service) ListFollowing(ctx context.Context, userID int64) (edges []models.Follower, err error) {
	ctx, finish := s.begin(ctx, "list_following")
	defer func() { finish(err) }()

	err = s.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		edges, err = tx.ListFollowing(ctx, userID)
		return err
	})
	return edges, err
}

// DeleteUser removes the account and everything that references it: owned
// posts and stories with their children, follow edges on either side,
// messages sent or received, notifications, and the user's comments, likes
// and story views on other users' content.
func (s *Service) DeleteUser(ctx context.Context, id int64) (report models.CascadeReport, err error) {
	ctx, finish := s.begin(ctx, "delete_user")
	defer func() { finish(err) }()

	err = s.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		report = models.CascadeReport{}
		if err := requireUser(ctx, tx, id); err != nil {
			return err
		}

		posts, err := tx.ListPostsByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, post := range posts {
			removed, err := deletePostTree(ctx, tx, post.ID)
			if err != nil {
				return err
			}
			report.Add(removed)
		}

		stories, err := tx.ListStoriesByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, story := range stories {
			removed, err := deleteStoryTree(ctx, tx, story.ID)
			if err != nil {
				return err
			}
			report.Add(removed)
		}

		steps := []struct {
			count *int
			run   func(context.Context, int64) (int, error)
		}{
			{&report.Comments, tx.DeleteCommentsByAuthor},
			{&report.Likes, tx.DeleteLikesByUser},
			{&report.StoryViews, tx.DeleteViewsByUser},
			{&report.Followers, tx.DeleteFollowersOf},
			{&report.Messages, tx.DeleteMessagesOf},
			{&report.Notifications, tx.DeleteNotificationsByUser},
		}
		for _, step := range steps {
			n, err := step.run(ctx, id)
			if err != nil {
				return err
			}
			*step.count += n
		}

		if err := tx.DeleteUser(ctx, id); err != nil {
			return missing(err, entityUser, id)
		}
		report.Users++
		return nil
	})
	if err != nil {
		return models.CascadeReport{}, err
	}

	logging.FromContext(ctx).Info("user deleted", slog.Int64("user_id", id))
	s.cascaded(ctx, report)
	return report, nil
}

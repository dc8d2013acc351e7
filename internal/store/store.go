package store

import (
	"context"
	"errors"

	"github.com/snapgram/backend/internal/models"
)

var (
	// ErrNotFound indicates the requested row, or a row it references, does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrReferenced indicates a delete was attempted while other rows still reference the row.
	ErrReferenced = errors.New("record still referenced")
	// ErrConstraint indicates the row violates a check constraint.
	ErrConstraint = errors.New("record violates constraint")
	// ErrReadOnly indicates a write was attempted inside a read-only scope.
	ErrReadOnly = errors.New("write in read-only transaction")
)

// TxFunc is executed inside a transactional scope. The Tx must not be
// retained after the function returns.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is a durable keyed storage engine with transactional scopes.
//
// Update applies everything fn wrote atomically when fn returns nil and
// nothing at all otherwise. View runs fn against a consistent read-only scope.
type Store interface {
	View(ctx context.Context, fn TxFunc) error
	Update(ctx context.Context, fn TxFunc) error
}

// Tx groups the row operations available inside a transactional scope.
// Insert methods assign the surrogate ID on the passed record. List methods
// return rows in ascending ID order. Delete-by methods return the number of
// rows removed.
type Tx interface {
	UserRows
	FollowerRows
	PostRows
	MediaRows
	CommentRows
	LikeRows
	StoryRows
	StoryViewRows
	MessageRows
	NotificationRows

	// CountRows returns the number of stored rows per record type.
	CountRows(ctx context.Context) (map[string]int, error)
}

// UserRows stores accounts.
type UserRows interface {
	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// FollowerRows stores directed follow edges.
type FollowerRows interface {
	InsertFollower(ctx context.Context, edge *models.Follower) error
	GetFollower(ctx context.Context, fromID, toID int64) (models.Follower, error)
	DeleteFollower(ctx context.Context, fromID, toID int64) (int, error)
	// ListFollowers returns edges pointing at userID.
	ListFollowers(ctx context.Context, userID int64) ([]models.Follower, error)
	// ListFollowing returns edges leaving userID.
	ListFollowing(ctx context.Context, userID int64) ([]models.Follower, error)
	// DeleteFollowersOf removes every edge where userID is either endpoint.
	DeleteFollowersOf(ctx context.Context, userID int64) (int, error)
}

// PostRows stores posts.
type PostRows interface {
	InsertPost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id int64) (models.Post, error)
	ListPostsByUser(ctx context.Context, userID int64) ([]models.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// MediaRows stores media attached to posts or stories.
type MediaRows interface {
	InsertMedia(ctx context.Context, media *models.Media) error
	ListMediaByPost(ctx context.Context, postID int64) ([]models.Media, error)
	ListMediaByStory(ctx context.Context, storyID int64) ([]models.Media, error)
	DeleteMediaByPost(ctx context.Context, postID int64) (int, error)
	DeleteMediaByStory(ctx context.Context, storyID int64) (int, error)
}

// CommentRows stores comments.
type CommentRows interface {
	InsertComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id int64) (models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	DeleteCommentsByPost(ctx context.Context, postID int64) (int, error)
	DeleteCommentsByAuthor(ctx context.Context, authorID int64) (int, error)
}

// LikeRows stores likes, unique per (user, post).
type LikeRows interface {
	InsertLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID, userID int64) (int, error)
	ListLikesByPost(ctx context.Context, postID int64) ([]models.Like, error)
	DeleteLikesByPost(ctx context.Context, postID int64) (int, error)
	DeleteLikesByUser(ctx context.Context, userID int64) (int, error)
}

// StoryRows stores stories.
type StoryRows interface {
	InsertStory(ctx context.Context, story *models.Story) error
	GetStory(ctx context.Context, id int64) (models.Story, error)
	ListStoriesByUser(ctx context.Context, userID int64) ([]models.Story, error)
	DeleteStory(ctx context.Context, id int64) error
}

// StoryViewRows stores story views, unique per (user, story).
type StoryViewRows interface {
	InsertStoryView(ctx context.Context, view *models.StoryView) error
	ListViewsByStory(ctx context.Context, storyID int64) ([]models.StoryView, error)
	DeleteViewsByStory(ctx context.Context, storyID int64) (int, error)
	DeleteViewsByUser(ctx context.Context, userID int64) (int, error)
}

// MessageRows stores direct messages.
type MessageRows interface {
	InsertMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id int64) (models.Message, error)
	MarkMessageRead(ctx context.Context, id int64) error
	ListMessagesByRecipient(ctx context.Context, recipientID int64) ([]models.Message, error)
	// ListMessagesBetween returns messages exchanged in either direction.
	ListMessagesBetween(ctx context.Context, userA, userB int64) ([]models.Message, error)
	// DeleteMessagesOf removes messages where userID is sender or recipient.
	DeleteMessagesOf(ctx context.Context, userID int64) (int, error)
}

// NotificationRows stores notifications.
type NotificationRows interface {
	InsertNotification(ctx context.Context, notification *models.Notification) error
	ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error)
	DeleteNotificationsByUser(ctx context.Context, userID int64) (int, error)
}

// Table names used for row counts and metrics labels.
const (
	TableUsers         = "users"
	TableFollowers     = "followers"
	TablePosts         = "posts"
	TableMedia         = "media"
	TableComments      = "comments"
	TableLikes         = "likes"
	TableStories       = "stories"
	TableStoryViews    = "story_views"
	TableMessages      = "messages"
	TableNotifications = "notifications"
)

// Tables lists every table in dependency order, leaves last.
var Tables = []string{
	TableUsers,
	TableFollowers,
	TablePosts,
	TableStories,
	TableMessages,
	TableNotifications,
	TableMedia,
	TableComments,
	TableLikes,
	TableStoryViews,
}

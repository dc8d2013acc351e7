package models

import "time"

// User represents an account on the platform.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// NewUser carries the fields accepted when registering an account.
type NewUser struct {
	Username  string `validate:"required,max=250"`
	FirstName string `validate:"max=250"`
	LastName  string `validate:"max=250"`
	Email     string `validate:"omitempty,email,max=250"`
}

// Profile holds the mutable account fields.
type Profile struct {
	FirstName string `validate:"max=250"`
	LastName  string `validate:"max=250"`
	Email     string `validate:"omitempty,email,max=250"`
}

// Follower is a directed edge: FromUserID follows ToUserID.
type Follower struct {
	ID         int64
	FromUserID int64
	ToUserID   int64
	CreatedAt  time.Time
}

// Post is user-authored content that owns media, comments and likes.
type Post struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// PostDetail is a post together with its child records.
type PostDetail struct {
	Post     Post
	Media    []Media
	Comments []Comment
	Likes    []Like
}

// Comment is a short text left by a user on a post.
type Comment struct {
	ID        int64
	Text      string
	AuthorID  int64
	PostID    int64
	CreatedAt time.Time
}

// Like records that a user liked a post. At most one exists per (user, post).
type Like struct {
	ID        int64
	UserID    int64
	PostID    int64
	CreatedAt time.Time
}

// Message is a direct message between two distinct users.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	SentAt      time.Time
	Read        bool
}

// Notification is a system-to-user record.
type Notification struct {
	ID        int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

package models

import "time"

// Story is time-bounded content. Expiry is derived from CreatedAt and
// DurationSeconds; nothing ever rewrites a story into an expired state.
type Story struct {
	ID              int64
	UserID          int64
	DurationSeconds int
	CreatedAt       time.Time
}

// ExpiresAt returns the instant from which the story is no longer active.
func (s Story) ExpiresAt() time.Time {
	return s.CreatedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// IsExpired reports whether now is at or after the story's expiry.
func (s Story) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// StoryView records that a user viewed a story. At most one exists per (user, story).
type StoryView struct {
	ID       int64
	UserID   int64
	StoryID  int64
	ViewedAt time.Time
}

// CascadeReport counts the rows removed by a cascading delete.
type CascadeReport struct {
	Users         int
	Posts         int
	Media         int
	Comments      int
	Likes         int
	Followers     int
	Stories       int
	StoryViews    int
	Messages      int
	Notifications int
}

// Add accumulates other into r.
func (r *CascadeReport) Add(other CascadeReport) {
	r.Users += other.Users
	r.Posts += other.Posts
	r.Media += other.Media
	r.Comments += other.Comments
	r.Likes += other.Likes
	r.Followers += other.Followers
	r.Stories += other.Stories
	r.StoryViews += other.StoryViews
	r.Messages += other.Messages
	r.Notifications += other.Notifications
}

// Total returns the number of rows removed across all record types.
func (r CascadeReport) Total() int {
	return r.Users + r.Posts + r.Media + r.Comments + r.Likes + r.Followers +
		r.Stories + r.StoryViews + r.Messages + r.Notifications
}

// Counts returns the per-entity counts keyed by record type name.
func (r CascadeReport) Counts() map[string]int {
	return map[string]int{
		"user":         r.Users,
		"post":         r.Posts,
		"media":        r.Media,
		"comment":      r.Comments,
		"like":         r.Likes,
		"follower":     r.Followers,
		"story":        r.Stories,
		"story_view":   r.StoryViews,
		"message":      r.Messages,
		"notification": r.Notifications,
	}
}

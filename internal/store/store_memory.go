package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/snapgram/backend/internal/models"
)

// NewMemoryStore returns a Store backed by in-memory tables.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: newMemoryTables()}
}

// MemoryStore implements Store for tests and local development.
//
// Writers are serialised by a single lock and operate on a copy of the
// tables which replaces the live copy only when the callback succeeds.
// Readers hold the shared lock for the whole callback.
type MemoryStore struct {
	mu     sync.RWMutex
	tables *memoryTables
}

// View runs fn against the current tables without allowing writes.
func (s *MemoryStore) View(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &memoryTx{tables: s.tables, readOnly: true})
}

// Update runs fn against a working copy and commits it if fn returns nil.
func (s *MemoryStore) Update(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.tables.clone()
	if err := fn(ctx, &memoryTx{tables: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.tables = working
	return nil
}

type memoryTables struct {
	seq map[string]int64

	users         map[int64]models.User
	followers     map[int64]models.Follower
	posts         map[int64]models.Post
	media         map[int64]models.Media
	comments      map[int64]models.Comment
	likes         map[int64]models.Like
	stories       map[int64]models.Story
	storyViews    map[int64]models.StoryView
	messages      map[int64]models.Message
	notifications map[int64]models.Notification
}

func newMemoryTables() *memoryTables {
	return &memoryTables{
		seq:           make(map[string]int64),
		users:         make(map[int64]models.User),
		followers:     make(map[int64]models.Follower),
		posts:         make(map[int64]models.Post),
		media:         make(map[int64]models.Media),
		comments:      make(map[int64]models.Comment),
		likes:         make(map[int64]models.Like),
		stories:       make(map[int64]models.Story),
		storyViews:    make(map[int64]models.StoryView),
		messages:      make(map[int64]models.Message),
		notifications: make(map[int64]models.Notification),
	}
}

// clone copies every table. Media parent pointers are never mutated in place,
// so sharing them between copies is safe.
func (t *memoryTables) clone() *memoryTables {
	return &memoryTables{
		seq:           maps.Clone(t.seq),
		users:         maps.Clone(t.users),
		followers:     maps.Clone(t.followers),
		posts:         maps.Clone(t.posts),
		media:         maps.Clone(t.media),
		comments:      maps.Clone(t.comments),
		likes:         maps.Clone(t.likes),
		stories:       maps.Clone(t.stories),
		storyViews:    maps.Clone(t.storyViews),
		messages:      maps.Clone(t.messages),
		notifications: maps.Clone(t.notifications),
	}
}

func (t *memoryTables) next(table string) int64 {
	t.seq[table]++
	return t.seq[table]
}

type memoryTx struct {
	tables   *memoryTables
	readOnly bool
}

var _ Store = (*MemoryStore)(nil)
var _ Tx = (*memoryTx)(nil)

func (tx *memoryTx) writable() error {
	if tx.readOnly {
		return ErrReadOnly
	}
	return nil
}

// collect returns the rows matching keep in ascending ID order.
func collect[T any](rows map[int64]T, keep func(T) bool) []T {
	ids := slices.Sorted(maps.Keys(rows))
	var out []T
	for _, id := range ids {
		if row := rows[id]; keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// remove deletes the rows matching drop and reports how many were removed.
func remove[T any](rows map[int64]T, drop func(T) bool) int {
	n := 0
	for id, row := range rows {
		if drop(row) {
			delete(rows, id)
			n++
		}
	}
	return n
}

func exists[T any](rows map[int64]T, match func(T) bool) bool {
	for _, row := range rows {
		if match(row) {
			return true
		}
	}
	return false
}

func copyMedia(m models.Media) models.Media {
	if m.PostID != nil {
		id := *m.PostID
		m.PostID = &id
	}
	if m.StoryID != nil {
		id := *m.StoryID
		m.StoryID = &id
	}
	return m
}

func (tx *memoryTx) CountRows(context.Context) (map[string]int, error) {
	t := tx.tables
	return map[string]int{
		TableUsers:         len(t.users),
		TableFollowers:     len(t.followers),
		TablePosts:         len(t.posts),
		TableMedia:         len(t.media),
		TableComments:      len(t.comments),
		TableLikes:         len(t.likes),
		TableStories:       len(t.stories),
		TableStoryViews:    len(t.storyViews),
		TableMessages:      len(t.messages),
		TableNotifications: len(t.notifications),
	}, nil
}

// Users

func (tx *memoryTx) InsertUser(_ context.Context, user *models.User) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if user.Username == "" {
		return ErrConstraint
	}
	user.ID = tx.tables.next(TableUsers)
	tx.tables.users[user.ID] = *user
	return nil
}

func (tx *memoryTx) GetUser(_ context.Context, id int64) (models.User, error) {
	user, ok := tx.tables.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (tx *memoryTx) UpdateUser(_ context.Context, user models.User) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if _, ok := tx.tables.users[user.ID]; !ok {
		return ErrNotFound
	}
	if user.Username == "" {
		return ErrConstraint
	}
	tx.tables.users[user.ID] = user
	return nil
}

func (tx *memoryTx) DeleteUser(_ context.Context, id int64) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if _, ok := t.users[id]; !ok {
		return ErrNotFound
	}
	referenced := exists(t.followers, func(f models.Follower) bool { return f.FromUserID == id || f.ToUserID == id }) ||
		exists(t.posts, func(p models.Post) bool { return p.UserID == id }) ||
		exists(t.comments, func(c models.Comment) bool { return c.AuthorID == id }) ||
		exists(t.likes, func(l models.Like) bool { return l.UserID == id }) ||
		exists(t.stories, func(s models.Story) bool { return s.UserID == id }) ||
		exists(t.storyViews, func(v models.StoryView) bool { return v.UserID == id }) ||
		exists(t.messages, func(m models.Message) bool { return m.SenderID == id || m.RecipientID == id }) ||
		exists(t.notifications, func(n models.Notification) bool { return n.UserID == id })
	if referenced {
		return ErrReferenced
	}
	delete(t.users, id)
	return nil
}

// Followers

func (tx *memoryTx) InsertFollower(_ context.Context, edge *models.Follower) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if edge.FromUserID == edge.ToUserID {
		return ErrConstraint
	}
	if _, ok := t.users[edge.FromUserID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.users[edge.ToUserID]; !ok {
		return ErrNotFound
	}
	if exists(t.followers, func(f models.Follower) bool { return f.FromUserID == edge.FromUserID && f.ToUserID == edge.ToUserID }) {
		return ErrConflict
	}
	edge.ID = t.next(TableFollowers)
	t.followers[edge.ID] = *edge
	return nil
}

func (tx *memoryTx) GetFollower(_ context.Context, fromID, toID int64) (models.Follower, error) {
	edges := collect(tx.tables.followers, func(f models.Follower) bool { return f.FromUserID == fromID && f.ToUserID == toID })
	if len(edges) == 0 {
		return models.Follower{}, ErrNotFound
	}
	return edges[0], nil
}

func (tx *memoryTx) DeleteFollower(_ context.Context, fromID, toID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.followers, func(f models.Follower) bool { return f.FromUserID == fromID && f.ToUserID == toID }), nil
}

func (tx *memoryTx) ListFollowers(_ context.Context, userID int64) ([]models.Follower, error) {
	return collect(tx.tables.followers, func(f models.Follower) bool { return f.ToUserID == userID }), nil
}

func (tx *memoryTx) ListFollowing(_ context.Context, userID int64) ([]models.Follower, error) {
	return collect(tx.tables.followers, func(f models.Follower) bool { return f.FromUserID == userID }), nil
}

func (tx *memoryTx) DeleteFollowersOf(_ context.Context, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.followers, func(f models.Follower) bool { return f.FromUserID == userID || f.ToUserID == userID }), nil
}

// Posts

func (tx *memoryTx) InsertPost(_ context.Context, post *models.Post) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if _, ok := tx.tables.users[post.UserID]; !ok {
		return ErrNotFound
	}
	post.ID = tx.tables.next(TablePosts)
	tx.tables.posts[post.ID] = *post
	return nil
}

func (tx *memoryTx) GetPost(_ context.Context, id int64) (models.Post, error) {
	post, ok := tx.tables.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	return post, nil
}

func (tx *memoryTx) ListPostsByUser(_ context.Context, userID int64) ([]models.Post, error) {
	return collect(tx.tables.posts, func(p models.Post) bool { return p.UserID == userID }), nil
}

func (tx *memoryTx) DeletePost(_ context.Context, id int64) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if _, ok := t.posts[id]; !ok {
		return ErrNotFound
	}
	referenced := exists(t.media, func(m models.Media) bool { return m.PostID != nil && *m.PostID == id }) ||
		exists(t.comments, func(c models.Comment) bool { return c.PostID == id }) ||
		exists(t.likes, func(l models.Like) bool { return l.PostID == id })
	if referenced {
		return ErrReferenced
	}
	delete(t.posts, id)
	return nil
}

// Media

func (tx *memoryTx) InsertMedia(_ context.Context, media *models.Media) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if !media.Type.Valid() {
		return ErrConstraint
	}
	kind, parentID := media.Parent()
	switch kind {
	case models.MediaParentPost:
		if _, ok := tx.tables.posts[parentID]; !ok {
			return ErrNotFound
		}
	case models.MediaParentStory:
		if _, ok := tx.tables.stories[parentID]; !ok {
			return ErrNotFound
		}
	default:
		return ErrConstraint
	}
	media.ID = tx.tables.next(TableMedia)
	tx.tables.media[media.ID] = copyMedia(*media)
	return nil
}

func (tx *memoryTx) ListMediaByPost(_ context.Context, postID int64) ([]models.Media, error) {
	rows := collect(tx.tables.media, func(m models.Media) bool { return m.PostID != nil && *m.PostID == postID })
	for i := range rows {
		rows[i] = copyMedia(rows[i])
	}
	return rows, nil
}

func (tx *memoryTx) ListMediaByStory(_ context.Context, storyID int64) ([]models.Media, error) {
	rows := collect(tx.tables.media, func(m models.Media) bool { return m.StoryID != nil && *m.StoryID == storyID })
	for i := range rows {
		rows[i] = copyMedia(rows[i])
	}
	return rows, nil
}

func (tx *memoryTx) DeleteMediaByPost(_ context.Context, postID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.media, func(m models.Media) bool { return m.PostID != nil && *m.PostID == postID }), nil
}

func (tx *memoryTx) DeleteMediaByStory(_ context.Context, storyID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.media, func(m models.Media) bool { return m.StoryID != nil && *m.StoryID == storyID }), nil
}

// Comments

func (tx *memoryTx) InsertComment(_ context.Context, comment *models.Comment) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if _, ok := tx.tables.users[comment.AuthorID]; !ok {
		return ErrNotFound
	}
	if _, ok := tx.tables.posts[comment.PostID]; !ok {
		return ErrNotFound
	}
	comment.ID = tx.tables.next(TableComments)
	tx.tables.comments[comment.ID] = *comment
	return nil
}

func (tx *memoryTx) GetComment(_ context.Context, id int64) (models.Comment, error) {
	comment, ok := tx.tables.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (tx *memoryTx) ListCommentsByPost(_ context.Context, postID int64) ([]models.Comment, error) {
	return collect(tx.tables.comments, func(c models.Comment) bool { return c.PostID == postID }), nil
}

func (tx *memoryTx) DeleteComment(_ context.Context, id int64) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if _, ok := tx.tables.comments[id]; !ok {
		return ErrNotFound
	}
	delete(tx.tables.comments, id)
	return nil
}

func (tx *memoryTx) DeleteCommentsByPost(_ context.Context, postID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.comments, func(c models.Comment) bool { return c.PostID == postID }), nil
}

func (tx *memoryTx) DeleteCommentsByAuthor(_ context.Context, authorID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.comments, func(c models.Comment) bool { return c.AuthorID == authorID }), nil
}

// Likes

func (tx *memoryTx) InsertLike(_ context.Context, like *models.Like) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if _, ok := t.users[like.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.posts[like.PostID]; !ok {
		return ErrNotFound
	}
	if exists(t.likes, func(l models.Like) bool { return l.UserID == like.UserID && l.PostID == like.PostID }) {
		return ErrConflict
	}
	like.ID = t.next(TableLikes)
	t.likes[like.ID] = *like
	return nil
}

func (tx *memoryTx) DeleteLike(_ context.Context, postID, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.likes, func(l models.Like) bool { return l.PostID == postID && l.UserID == userID }), nil
}

func (tx *memoryTx) ListLikesByPost(_ context.Context, postID int64) ([]models.Like, error) {
	return collect(tx.tables.likes, func(l models.Like) bool { return l.PostID == postID }), nil
}

func (tx *memoryTx) DeleteLikesByPost(_ context.Context, postID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.likes, func(l models.Like) bool { return l.PostID == postID }), nil
}

func (tx *memoryTx) DeleteLikesByUser(_ context.Context, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.likes, func(l models.Like) bool { return l.UserID == userID }), nil
}

// Stories

func (tx *memoryTx) InsertStory(_ context.Context, story *models.Story) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if story.DurationSeconds <= 0 {
		return ErrConstraint
	}
	if _, ok := tx.tables.users[story.UserID]; !ok {
		return ErrNotFound
	}
	story.ID = tx.tables.next(TableStories)
	tx.tables.stories[story.ID] = *story
	return nil
}

func (tx *memoryTx) GetStory(_ context.Context, id int64) (models.Story, error) {
	story, ok := tx.tables.stories[id]
	if !ok {
		return models.Story{}, ErrNotFound
	}
	return story, nil
}

func (tx *memoryTx) ListStoriesByUser(_ context.Context, userID int64) ([]models.Story, error) {
	return collect(tx.tables.stories, func(s models.Story) bool { return s.UserID == userID }), nil
}

func (tx *memoryTx) DeleteStory(_ context.Context, id int64) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if _, ok := t.stories[id]; !ok {
		return ErrNotFound
	}
	referenced := exists(t.media, func(m models.Media) bool { return m.StoryID != nil && *m.StoryID == id }) ||
		exists(t.storyViews, func(v models.StoryView) bool { return v.StoryID == id })
	if referenced {
		return ErrReferenced
	}
	delete(t.stories, id)
	return nil
}

// Story views

func (tx *memoryTx) InsertStoryView(_ context.Context, view *models.StoryView) error {
	if err := tx.writable(); err != nil {
		return err
	}
	t := tx.tables
	if _, ok := t.users[view.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.stories[view.StoryID]; !ok {
		return ErrNotFound
	}
	if exists(t.storyViews, func(v models.StoryView) bool { return v.UserID == view.UserID && v.StoryID == view.StoryID }) {
		return ErrConflict
	}
	view.ID = t.next(TableStoryViews)
	t.storyViews[view.ID] = *view
	return nil
}

func (tx *memoryTx) ListViewsByStory(_ context.Context, storyID int64) ([]models.StoryView, error) {
	return collect(tx.tables.storyViews, func(v models.StoryView) bool { return v.StoryID == storyID }), nil
}

func (tx *memoryTx) DeleteViewsByStory(_ context.Context, storyID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.storyViews, func(v models.StoryView) bool { return v.StoryID == storyID }), nil
}

func (tx *memoryTx) DeleteViewsByUser(_ context.Context, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.storyViews, func(v models.StoryView) bool { return v.UserID == userID }), nil
}

// Messages

func (tx *memoryTx) InsertMessage(_ context.Context, message *models.Message) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if message.SenderID == message.RecipientID {
		return ErrConstraint
	}
	if _, ok := tx.tables.users[message.SenderID]; !ok {
		return ErrNotFound
	}
	if _, ok := tx.tables.users[message.RecipientID]; !ok {
		return ErrNotFound
	}
	message.ID = tx.tables.next(TableMessages)
	tx.tables.messages[message.ID] = *message
	return nil
}

func (tx *memoryTx) GetMessage(_ context.Context, id int64) (models.Message, error) {
	message, ok := tx.tables.messages[id]
	if !ok {
		return models.Message{}, ErrNotFound
	}
	return message, nil
}

func (tx *memoryTx) MarkMessageRead(_ context.Context, id int64) error {
	if err := tx.writable(); err != nil {
		return err
	}
	message, ok := tx.tables.messages[id]
	if !ok {
		return ErrNotFound
	}
	message.Read = true
	tx.tables.messages[id] = message
	return nil
}

func (tx *memoryTx) ListMessagesByRecipient(_ context.Context, recipientID int64) ([]models.Message, error) {
	return collect(tx.tables.messages, func(m models.Message) bool { return m.RecipientID == recipientID }), nil
}

func (tx *memoryTx) ListMessagesBetween(_ context.Context, userA, userB int64) ([]models.Message, error) {
	return collect(tx.tables.messages, func(m models.Message) bool {
		return (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA)
	}), nil
}

func (tx *memoryTx) DeleteMessagesOf(_ context.Context, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.messages, func(m models.Message) bool { return m.SenderID == userID || m.RecipientID == userID }), nil
}

// Notifications

func (tx *memoryTx) InsertNotification(_ context.Context, notification *models.Notification) error {
	if err := tx.writable(); err != nil {
		return err
	}
	if _, ok := tx.tables.users[notification.UserID]; !ok {
		return ErrNotFound
	}
	notification.ID = tx.tables.next(TableNotifications)
	tx.tables.notifications[notification.ID] = *notification
	return nil
}

func (tx *memoryTx) ListNotificationsByUser(_ context.Context, userID int64) ([]models.Notification, error) {
	return collect(tx.tables.notifications, func(n models.Notification) bool { return n.UserID == userID }), nil
}

func (tx *memoryTx) DeleteNotificationsByUser(_ context.Context, userID int64) (int, error) {
	if err := tx.writable(); err != nil {
		return 0, err
	}
	return remove(tx.tables.notifications, func(n models.Notification) bool { return n.UserID == userID }), nil
}

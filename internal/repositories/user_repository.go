package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/store"
)

// InsertUser persists a new user record and assigns its ID.
func (t *pgTx) InsertUser(ctx context.Context, user *models.User) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO users (username, firstname, lastname, email)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, user.Username, user.FirstName, user.LastName, user.Email).Scan(&user.ID)
	if err != nil {
		return writeErr("insert user", err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (t *pgTx) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := t.tx.QueryRow(ctx, `
        SELECT id, username, firstname, lastname, email
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email); err != nil {
		return models.User{}, readErr("select user", err)
	}
	return user, nil
}

// UpdateUser modifies the profile columns of an existing user.
func (t *pgTx) UpdateUser(ctx context.Context, user models.User) error {
	n, err := t.exec(ctx, `
        UPDATE users
        SET username = $2, firstname = $3, lastname = $4, email = $5
        WHERE id = $1
    `, user.ID, user.Username, user.FirstName, user.LastName, user.Email)
	if err != nil {
		return writeErr("update user", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user row. Dependent rows must already be gone.
func (t *pgTx) DeleteUser(ctx context.Context, id int64) error {
	return t.deleteOne(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func scanFollower(row pgx.Row) (models.Follower, error) {
	var edge models.Follower
	if err := row.Scan(&edge.ID, &edge.FromUserID, &edge.ToUserID, &edge.CreatedAt); err != nil {
		return models.Follower{}, err
	}
	edge.CreatedAt = edge.CreatedAt.UTC()
	return edge, nil
}

// InsertFollower persists a directed follow edge.
func (t *pgTx) InsertFollower(ctx context.Context, edge *models.Follower) error {
	err := t.tx.QueryRow(ctx, `
        INSERT INTO followers (user_from_id, user_to_id, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, edge.FromUserID, edge.ToUserID, edge.CreatedAt).Scan(&edge.ID)
	if err != nil {
		return writeErr("insert follower", err)
	}
	return nil
}

// GetFollower fetches the edge for an ordered pair of users.
func (t *pgTx) GetFollower(ctx context.Context, fromID, toID int64) (models.Follower, error) {
	row := t.tx.QueryRow(ctx, `
        SELECT id, user_from_id, user_to_id, created_at
        FROM followers
        WHERE user_from_id = $1 AND user_to_id = $2
    `, fromID, toID)

	edge, err := scanFollower(row)
	if err != nil {
		return models.Follower{}, readErr("select follower", err)
	}
	return edge, nil
}

// DeleteFollower removes the edge for an ordered pair of users, if present.
func (t *pgTx) DeleteFollower(ctx context.Context, fromID, toID int64) (int, error) {
	return t.deleteMany(ctx, "delete follower", `
        DELETE FROM followers
        WHERE user_from_id = $1 AND user_to_id = $2
    `, fromID, toID)
}

// ListFollowers returns the edges pointing at the user.
func (t *pgTx) ListFollowers(ctx context.Context, userID int64) ([]models.Follower, error) {
	return queryAll(ctx, t, "followers", scanFollower, `
        SELECT id, user_from_id, user_to_id, created_at
        FROM followers
        WHERE user_to_id = $1
        ORDER BY id
    `, userID)
}

// ListFollowing returns the edges leaving the user.
func (t *pgTx) ListFollowing(ctx context.Context, userID int64) ([]models.Follower, error) {
	return queryAll(ctx, t, "following", scanFollower, `
        SELECT id, user_from_id, user_to_id, created_at
        FROM followers
        WHERE user_from_id = $1
        ORDER BY id
    `, userID)
}

// DeleteFollowersOf removes every edge touching the user.
func (t *pgTx) DeleteFollowersOf(ctx context.Context, userID int64) (int, error) {
	return t.deleteMany(ctx, "delete followers of user", `
        DELETE FROM followers
        WHERE user_from_id = $1 OR user_to_id = $1
    `, userID)
}

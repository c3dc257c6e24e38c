package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plumefed/plume/internal/domain"
)

type FollowRepo struct {
	pool *pgxpool.Pool
}

func NewFollowRepo(pool *pgxpool.Pool) *FollowRepo {
	return &FollowRepo{pool: pool}
}

// Create inserts the edge. The (follower_id, following_id) primary key
// makes a repeated Follow idempotent.
func (r *FollowRepo) Create(ctx context.Context, followerID, followingID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID,
	)
	return err
}

// Delete matches the follower by uri so an Undo can be applied without
// a prior actor lookup. Deleting a missing edge affects zero rows.
func (r *FollowRepo) Delete(ctx context.Context, followerURI string, followingID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM follows
		WHERE following_id = $1
		  AND follower_id = (SELECT id FROM actors WHERE uri = $2)`,
		followingID, followerURI,
	)
	return err
}

func (r *FollowRepo) ListFollowers(ctx context.Context, username string) ([]domain.Actor, error) {
	return r.listActors(ctx, `
		SELECT followers.id, followers.user_id, followers.uri, followers.handle, followers.name,
			followers.inbox_url, followers.shared_inbox_url, followers.url, followers.created
		FROM follows
		JOIN actors AS followers ON follows.follower_id = followers.id
		JOIN actors AS following ON follows.following_id = following.id
		JOIN users ON users.id = following.user_id
		WHERE users.username = $1
		ORDER BY follows.created DESC`, username)
}

func (r *FollowRepo) ListFollowing(ctx context.Context, username string) ([]domain.Actor, error) {
	return r.listActors(ctx, `
		SELECT following.id, following.user_id, following.uri, following.handle, following.name,
			following.inbox_url, following.shared_inbox_url, following.url, following.created
		FROM follows
		JOIN actors AS followers ON follows.follower_id = followers.id
		JOIN actors AS following ON follows.following_id = following.id
		JOIN users ON users.id = followers.user_id
		WHERE users.username = $1
		ORDER BY follows.created DESC`, username)
}

func (r *FollowRepo) CountFollowers(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM follows
		JOIN actors ON actors.id = follows.following_id
		WHERE actors.user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *FollowRepo) CountFollowing(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM follows
		JOIN actors ON actors.id = follows.follower_id
		WHERE actors.user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *FollowRepo) listActors(ctx context.Context, query string, args ...any) ([]domain.Actor, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.URI, &a.Handle, &a.Name,
			&a.InboxURL, &a.SharedInboxURL, &a.URL, &a.Created,
		); err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

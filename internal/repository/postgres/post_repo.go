package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plumefed/plume/internal/domain"
)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// placeholderURI is overwritten before the insert transaction commits;
// the canonical uri embeds the assigned id and cannot be known earlier.
const placeholderURI = "https://localhost/"

func (r *PostRepo) Create(ctx context.Context, actorID int64, content string, uriFor func(id int64) string) (*domain.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var post domain.Post
	if err := tx.QueryRow(ctx, `
		INSERT INTO posts (uri, actor_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, actor_id, content, created`,
		placeholderURI, actorID, content,
	).Scan(&post.ID, &post.ActorID, &post.Content, &post.Created); err != nil {
		return nil, err
	}

	uri := uriFor(post.ID)
	if _, err := tx.Exec(ctx,
		`UPDATE posts SET uri = $1, url = $2 WHERE id = $3`,
		uri, uri, post.ID,
	); err != nil {
		return nil, err
	}
	post.URI = uri
	post.URL = &uri

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) GetByUsernameAndID(ctx context.Context, username string, id int64) (*domain.Post, error) {
	var p domain.Post
	err := r.pool.QueryRow(ctx, `
		SELECT posts.id, posts.uri, posts.actor_id, posts.content, posts.url, posts.created,
			actors.handle, actors.name, actors.url
		FROM posts
		JOIN actors ON actors.id = posts.actor_id
		JOIN users ON users.id = actors.user_id
		WHERE users.username = $1 AND posts.id = $2`,
		username, id,
	).Scan(
		&p.ID, &p.URI, &p.ActorID, &p.Content, &p.URL, &p.Created,
		&p.ActorHandle, &p.ActorName, &p.ActorURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *PostRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	return r.listPosts(ctx, `
		SELECT posts.id, posts.uri, posts.actor_id, posts.content, posts.url, posts.created,
			actors.handle, actors.name, actors.url
		FROM posts
		JOIN actors ON actors.id = posts.actor_id
		WHERE actors.user_id = $1
		ORDER BY posts.created DESC`, userID)
}

func (r *PostRepo) ListTimeline(ctx context.Context, actorID int64) ([]domain.Post, error) {
	return r.listPosts(ctx, `
		SELECT posts.id, posts.uri, posts.actor_id, posts.content, posts.url, posts.created,
			actors.handle, actors.name, actors.url
		FROM posts
		JOIN actors ON actors.id = posts.actor_id
		WHERE posts.actor_id = $1 OR posts.actor_id IN (
			SELECT following_id FROM follows WHERE follower_id = $1
		)
		ORDER BY posts.created DESC`, actorID)
}

func (r *PostRepo) listPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID, &p.URI, &p.ActorID, &p.Content, &p.URL, &p.Created,
			&p.ActorHandle, &p.ActorName, &p.ActorURL,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plumefed/plume/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) CreateWithActor(ctx context.Context, user *domain.User, actor *domain.Actor) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES (1, $1, $2) RETURNING id`,
		user.Username, user.PasswordHash,
	).Scan(&user.ID); err != nil {
		return err
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO actors (user_id, uri, handle, name, inbox_url, shared_inbox_url, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created`,
		user.ID, actor.URI, actor.Handle, actor.Name,
		actor.InboxURL, actor.SharedInboxURL, actor.URL,
	).Scan(&actor.ID, &actor.Created); err != nil {
		return err
	}
	actor.UserID = &user.ID

	return tx.Commit(ctx)
}

func (r *UserRepo) Get(ctx context.Context) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT id, username, password_hash FROM users LIMIT 1`)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT id, username, password_hash FROM users WHERE username = $1`, username)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &u, err
}

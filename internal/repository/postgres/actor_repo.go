package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plumefed/plume/internal/domain"
)

type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

const actorColumns = `id, user_id, uri, handle, name, inbox_url, shared_inbox_url, url, created`

func (r *ActorRepo) GetByID(ctx context.Context, id int64) (*domain.Actor, error) {
	return r.scanActor(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
}

func (r *ActorRepo) GetByURI(ctx context.Context, uri string) (*domain.Actor, error) {
	return r.scanActor(ctx, `SELECT `+actorColumns+` FROM actors WHERE uri = $1`, uri)
}

func (r *ActorRepo) GetLocalByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.scanActor(ctx, `
		SELECT a.id, a.user_id, a.uri, a.handle, a.name, a.inbox_url, a.shared_inbox_url, a.url, a.created
		FROM actors a
		JOIN users u ON u.id = a.user_id
		WHERE u.username = $1`, username)
}

// UpsertRemote is a single atomic insert-or-update keyed on uri, so two
// concurrent follows from the same remote actor cannot create duplicate
// rows.
func (r *ActorRepo) UpsertRemote(ctx context.Context, actor *domain.Actor) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO actors (uri, handle, name, inbox_url, shared_inbox_url, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uri) DO UPDATE SET
			handle = excluded.handle,
			name = excluded.name,
			inbox_url = excluded.inbox_url,
			shared_inbox_url = excluded.shared_inbox_url,
			url = excluded.url
		RETURNING id`,
		actor.URI, actor.Handle, actor.Name,
		actor.InboxURL, actor.SharedInboxURL, actor.URL,
	).Scan(&id)
	return id, err
}

func (r *ActorRepo) scanActor(ctx context.Context, query string, args ...any) (*domain.Actor, error) {
	var a domain.Actor
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.UserID, &a.URI, &a.Handle, &a.Name,
		&a.InboxURL, &a.SharedInboxURL, &a.URL, &a.Created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &a, err
}

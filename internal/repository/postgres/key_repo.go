package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plumefed/plume/internal/domain"
)

type KeyRepo struct {
	pool *pgxpool.Pool
}

func NewKeyRepo(pool *pgxpool.Pool) *KeyRepo {
	return &KeyRepo{pool: pool}
}

func (r *KeyRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Key, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, type, private_key, public_key, created FROM keys WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.Key
	for rows.Next() {
		var k domain.Key
		if err := rows.Scan(&k.UserID, &k.Type, &k.PrivateKey, &k.PublicKey, &k.Created); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *KeyRepo) Get(ctx context.Context, userID int64, keyType domain.KeyType) (*domain.Key, error) {
	var k domain.Key
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, type, private_key, public_key, created FROM keys WHERE user_id = $1 AND type = $2`,
		userID, keyType,
	).Scan(&k.UserID, &k.Type, &k.PrivateKey, &k.PublicKey, &k.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &k, err
}

// CreateIfAbsent relies on the (user_id, type) primary key: the loser
// of a concurrent first-time provisioning inserts nothing and must use
// the stored pair instead of its freshly generated one.
func (r *KeyRepo) CreateIfAbsent(ctx context.Context, key *domain.Key) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO keys (user_id, type, private_key, public_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, type) DO NOTHING`,
		key.UserID, key.Type, key.PrivateKey, key.PublicKey,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

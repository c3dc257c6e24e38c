package repository

import (
	"context"

	"github.com/plumefed/plume/internal/domain"
)

type UserRepository interface {
	// CreateWithActor inserts the single local user together with its
	// actor row in one transaction.
	CreateWithActor(ctx context.Context, user *domain.User, actor *domain.Actor) error
	Get(ctx context.Context) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ActorRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
	GetByURI(ctx context.Context, uri string) (*domain.Actor, error)
	GetLocalByUsername(ctx context.Context, username string) (*domain.Actor, error)
	// UpsertRemote inserts a remote actor or updates the descriptive
	// fields of the row with the same uri, atomically, and returns the
	// row id either way.
	UpsertRemote(ctx context.Context, actor *domain.Actor) (int64, error)
}

type KeyRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Key, error)
	Get(ctx context.Context, userID int64, keyType domain.KeyType) (*domain.Key, error)
	// CreateIfAbsent inserts the key unless a row with the same
	// (user_id, type) already exists. Reports whether the insert won;
	// on a lost race the caller re-reads the stored row.
	CreateIfAbsent(ctx context.Context, key *domain.Key) (bool, error)
}

type FollowRepository interface {
	// Create inserts the edge; inserting an existing edge is a no-op.
	Create(ctx context.Context, followerID, followingID int64) error
	// Delete removes the edge whose follower is the actor with the
	// given uri. A missing edge is a no-op.
	Delete(ctx context.Context, followerURI string, followingID int64) error
	ListFollowers(ctx context.Context, username string) ([]domain.Actor, error)
	ListFollowing(ctx context.Context, username string) ([]domain.Actor, error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
}

type PostRepository interface {
	// Create inserts the post and finalizes its canonical uri from the
	// assigned id within the same transaction. uriFor computes the
	// canonical uri for a given post id.
	Create(ctx context.Context, actorID int64, content string, uriFor func(id int64) string) (*domain.Post, error)
	GetByUsernameAndID(ctx context.Context, username string, id int64) (*domain.Post, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Post, error)
	// ListTimeline returns the actor's own posts and those of the
	// actors it follows, newest first.
	ListTimeline(ctx context.Context, actorID int64) ([]domain.Post, error)
}

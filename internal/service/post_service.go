package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrContentRequired = errors.New("content is required")
	ErrUserNotFound    = errors.New("user not found")
)

// PostService creates local posts and maps stored posts to their
// federated object form.
type PostService struct {
	postRepo  repository.PostRepository
	actorRepo repository.ActorRepository
	followers *FollowerService
	outbox    *OutboxService
	uris      *federation.URIs
	notifier  Notifier
	logger    *zap.Logger
}

func NewPostService(postRepo repository.PostRepository, actorRepo repository.ActorRepository, followers *FollowerService, outbox *OutboxService, uris *federation.URIs, notifier Notifier, logger *zap.Logger) *PostService {
	return &PostService{
		postRepo:  postRepo,
		actorRepo: actorRepo,
		followers: followers,
		outbox:    outbox,
		uris:      uris,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create stores a post and federates it. The insert and the canonical
// URI finalization commit together before any delivery starts; a
// delivery failure is returned to the caller but the stored post is
// never rolled back.
func (s *PostService) Create(ctx context.Context, username, content string) (*domain.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	actor, err := s.actorRepo.GetLocalByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up local actor: %w", err)
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}

	post, err := s.postRepo.Create(ctx, actor.ID, html.EscapeString(content), func(id int64) string {
		return s.uris.Post(username, id)
	})
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewPost(post)
	}

	note, err := s.GetObject(ctx, username, post.ID)
	if err != nil {
		return post, err
	}
	if note == nil {
		// The committed row should always be readable; skip the Create
		// but keep the post.
		s.logger.Warn("post vanished between insert and object build",
			zap.Int64("post_id", post.ID))
		return post, nil
	}

	recipients, err := s.followers.ListFollowers(ctx, username)
	if err != nil {
		return post, err
	}
	if err := s.outbox.SendCreate(ctx, username, note, recipients); err != nil {
		return post, fmt.Errorf("delivering create: %w", err)
	}
	return post, nil
}

// GetObject maps a stored post to its federated object. Returns nil for
// an unknown username or post id.
func (s *PostService) GetObject(ctx context.Context, username string, id int64) (*federation.Note, error) {
	post, err := s.postRepo.GetByUsernameAndID(ctx, username, id)
	if err != nil {
		return nil, fmt.Errorf("looking up post: %w", err)
	}
	if post == nil {
		return nil, nil
	}

	uri := s.uris.Post(username, post.ID)
	return &federation.Note{
		Context:      federation.ActivityContext,
		ID:           uri,
		Type:         federation.TypeNote,
		AttributedTo: s.uris.Actor(username),
		To:           []string{federation.PublicCollection},
		CC:           []string{s.uris.Followers(username)},
		Content:      post.Content,
		MediaType:    "text/html",
		// The stored timestamp has no zone designator and is by
		// definition UTC.
		Published: post.Created.UTC().Format(time.RFC3339),
		URL:       uri,
	}, nil
}

// GetPost returns the stored post row for page views.
func (s *PostService) GetPost(ctx context.Context, username string, id int64) (*domain.Post, error) {
	return s.postRepo.GetByUsernameAndID(ctx, username, id)
}

// ListByUser returns a user's own posts, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// Timeline returns the home timeline of the local actor: own posts plus
// posts of followed actors, newest first.
func (s *PostService) Timeline(ctx context.Context, actorID int64) ([]domain.Post, error) {
	posts, err := s.postRepo.ListTimeline(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

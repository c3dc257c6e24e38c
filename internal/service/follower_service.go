package service

import (
	"context"
	"fmt"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/repository"
)

// FollowerService exposes follower lists as delivery recipients and
// relationship counts. Counts are computed from edges at call time;
// nothing is cached.
type FollowerService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowerService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowerService {
	return &FollowerService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// ListFollowers returns the followers of a local user as delivery
// recipients, newest follow first. The set is fully materialized.
func (s *FollowerService) ListFollowers(ctx context.Context, username string) ([]federation.Recipient, error) {
	actors, err := s.followRepo.ListFollowers(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("listing followers: %w", err)
	}
	recipients := make([]federation.Recipient, 0, len(actors))
	for _, a := range actors {
		recipients = append(recipients, federation.Recipient{
			ID:             a.URI,
			InboxURL:       a.InboxURL,
			SharedInboxURL: a.SharedInboxURL,
		})
	}
	return recipients, nil
}

// ListFollowerActors returns the follower actor rows for profile views.
func (s *FollowerService) ListFollowerActors(ctx context.Context, username string) ([]domain.Actor, error) {
	actors, err := s.followRepo.ListFollowers(ctx, username)
	if err != nil {
		return nil, err
	}
	if actors == nil {
		actors = []domain.Actor{}
	}
	return actors, nil
}

// ListFollowing returns the actors a local user follows, newest first.
func (s *FollowerService) ListFollowing(ctx context.Context, username string) ([]domain.Actor, error) {
	actors, err := s.followRepo.ListFollowing(ctx, username)
	if err != nil {
		return nil, err
	}
	if actors == nil {
		actors = []domain.Actor{}
	}
	return actors, nil
}

func (s *FollowerService) CountFollowers(ctx context.Context, username string) (int, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return 0, err
	}
	return s.followRepo.CountFollowers(ctx, user.ID)
}

func (s *FollowerService) CountFollowing(ctx context.Context, username string) (int, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return 0, err
	}
	return s.followRepo.CountFollowing(ctx, user.ID)
}

// Counts returns both relationship counts in one call so profile views
// do not run the joins twice.
func (s *FollowerService) Counts(ctx context.Context, username string) (followers, following int, err error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return 0, 0, err
	}
	followers, err = s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return 0, 0, err
	}
	following, err = s.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

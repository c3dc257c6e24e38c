package service

import (
	"context"
	"fmt"

	"github.com/plumefed/plume/internal/federation"
	"go.uber.org/zap"
)

// InboxService is the state machine over inbound activity kinds.
// Unmodeled kinds are logged and ignored; malformed or unresolvable
// Follow/Undo activities are dropped silently. The sender never sees an
// error, and handlers are idempotent so redelivery is safe.
type InboxService struct {
	actors   *ActorService
	follows  followStore
	outbox   *OutboxService
	resolver federation.Resolver
	uris     *federation.URIs
	notifier Notifier
	logger   *zap.Logger

	handlers map[string]func(ctx context.Context, activity *federation.Activity) error
}

// followStore is the slice of FollowRepository the inbox mutates.
type followStore interface {
	Create(ctx context.Context, followerID, followingID int64) error
	Delete(ctx context.Context, followerURI string, followingID int64) error
}

func NewInboxService(actors *ActorService, follows followStore, outbox *OutboxService, resolver federation.Resolver, uris *federation.URIs, notifier Notifier, logger *zap.Logger) *InboxService {
	s := &InboxService{
		actors:   actors,
		follows:  follows,
		outbox:   outbox,
		resolver: resolver,
		uris:     uris,
		notifier: notifier,
		logger:   logger,
	}
	s.handlers = map[string]func(ctx context.Context, activity *federation.Activity) error{
		federation.TypeFollow: s.handleFollow,
		federation.TypeUndo:   s.handleUndo,
	}
	return s
}

// HandleActivity dispatches one inbound activity. Activities are
// processed one at a time per request; there is no cross-activity
// ordering guarantee.
func (s *InboxService) HandleActivity(ctx context.Context, activity *federation.Activity) error {
	handler, ok := s.handlers[activity.Type]
	if !ok {
		s.logger.Debug("ignoring unhandled activity kind",
			zap.String("type", activity.Type),
			zap.String("actor", activity.Actor))
		return nil
	}
	return handler(ctx, activity)
}

func (s *InboxService) handleFollow(ctx context.Context, follow *federation.Activity) error {
	objectID := follow.ObjectID()
	if objectID == "" {
		s.logger.Debug("follow has no object", zap.String("id", follow.ID))
		return nil
	}
	username, ok := s.uris.ParseActor(objectID)
	if !ok {
		s.logger.Debug("follow object is not a local actor", zap.String("object", objectID))
		return nil
	}
	local, err := s.actors.ResolveLocalActor(ctx, username)
	if err != nil {
		return err
	}
	if local == nil {
		s.logger.Debug("follow names an unknown local user", zap.String("username", username))
		return nil
	}

	if follow.Actor == "" {
		s.logger.Debug("follow has no actor", zap.String("id", follow.ID))
		return nil
	}
	follower, err := s.resolver.LookupActor(ctx, follow.Actor)
	if err != nil {
		s.logger.Debug("follow actor did not dereference",
			zap.String("actor", follow.Actor),
			zap.Error(err))
		return nil
	}

	followerID, err := s.actors.UpsertRemoteActor(ctx, follower)
	if err != nil {
		return err
	}
	if err := s.follows.Create(ctx, followerID, local.ID); err != nil {
		return fmt.Errorf("creating follow edge: %w", err)
	}

	// The accept is unconditional once the edge exists; this node has
	// no manual-approval state.
	if err := s.outbox.SendAccept(ctx, username, follower.Recipient(), follow); err != nil {
		return fmt.Errorf("sending accept: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewFollower(follower.Handle)
	}

	s.logger.Info("accepted follow",
		zap.String("follower", follower.URI),
		zap.String("username", username))
	return nil
}

func (s *InboxService) handleUndo(ctx context.Context, undo *federation.Activity) error {
	inner := undo.ObjectActivity()
	if inner == nil || inner.Type != federation.TypeFollow {
		s.logger.Debug("undo object is not a follow", zap.String("id", undo.ID))
		return nil
	}
	if undo.Actor == "" || inner.ObjectID() == "" {
		return nil
	}
	username, ok := s.uris.ParseActor(inner.ObjectID())
	if !ok {
		return nil
	}
	local, err := s.actors.ResolveLocalActor(ctx, username)
	if err != nil {
		return err
	}
	if local == nil {
		return nil
	}

	// A missing edge (undo arriving before or without its follow) is a
	// no-op, not an error.
	if err := s.follows.Delete(ctx, undo.Actor, local.ID); err != nil {
		return fmt.Errorf("deleting follow edge: %w", err)
	}

	s.logger.Info("processed unfollow",
		zap.String("follower", undo.Actor),
		zap.String("username", username))
	return nil
}

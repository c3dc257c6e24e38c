package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/plumefed/plume/internal/federation"
	"go.uber.org/zap"
)

var (
	ErrInvalidActorRef = errors.New("invalid actor handle or URL")
)

// OutboxService composes outbound activities and hands them to the
// delivery collaborator for signing and transport.
type OutboxService struct {
	deliverer federation.Deliverer
	resolver  federation.Resolver
	keys      *KeyService
	uris      *federation.URIs
	logger    *zap.Logger
}

func NewOutboxService(deliverer federation.Deliverer, resolver federation.Resolver, keys *KeyService, uris *federation.URIs, logger *zap.Logger) *OutboxService {
	return &OutboxService{
		deliverer: deliverer,
		resolver:  resolver,
		keys:      keys,
		uris:      uris,
		logger:    logger,
	}
}

// SendAccept confirms a processed Follow back to the follower. The
// original follow activity travels embedded as the accept's object.
func (s *OutboxService) SendAccept(ctx context.Context, username string, to federation.Recipient, follow *federation.Activity) error {
	object, err := federation.EmbedObject(follow)
	if err != nil {
		return err
	}
	accept := &federation.Activity{
		Context: federation.ActivityContext,
		ID:      s.uris.Actor(username) + "#accepts/" + uuid.NewString(),
		Type:    federation.TypeAccept,
		Actor:   s.uris.Actor(username),
		To:      []string{follow.Actor},
		Object:  object,
	}
	return s.send(ctx, username, []federation.Recipient{to}, accept)
}

// SendFollow resolves the target reference and sends it a Follow
// activity. No local edge is created here; the edge appears only when
// the remote side's Accept is processed, which this node does not yet
// handle.
func (s *OutboxService) SendFollow(ctx context.Context, username, targetRef string) error {
	target, err := s.resolver.LookupActor(ctx, targetRef)
	if err != nil {
		s.logger.Debug("follow target did not resolve to an actor",
			zap.String("ref", targetRef),
			zap.Error(err))
		return ErrInvalidActorRef
	}

	follow := &federation.Activity{
		Context: federation.ActivityContext,
		ID:      s.uris.Actor(username) + "#follows/" + uuid.NewString(),
		Type:    federation.TypeFollow,
		Actor:   s.uris.Actor(username),
		Object:  federation.ObjectURI(target.URI),
		To:      []string{target.URI},
	}
	return s.send(ctx, username, []federation.Recipient{target.Recipient()}, follow)
}

// SendCreate fans a Create activity for a freshly published note out to
// the followers collection.
func (s *OutboxService) SendCreate(ctx context.Context, username string, note *federation.Note, recipients []federation.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}
	object, err := federation.EmbedObject(note)
	if err != nil {
		return err
	}
	create := &federation.Activity{
		Context: federation.ActivityContext,
		ID:      note.ID + "#activity",
		Type:    federation.TypeCreate,
		Actor:   note.AttributedTo,
		To:      note.To,
		CC:      note.CC,
		Object:  object,
	}
	return s.send(ctx, username, recipients, create)
}

func (s *OutboxService) send(ctx context.Context, username string, recipients []federation.Recipient, activity *federation.Activity) error {
	signer, err := s.signer(ctx, username)
	if err != nil {
		return err
	}
	return s.deliverer.SendActivity(ctx, signer, recipients, activity)
}

// signer loads the RSA pair; deliveries are signed with the primary key
// advertised as #main-key in the actor document.
func (s *OutboxService) signer(ctx context.Context, username string) (*federation.Signer, error) {
	pairs, err := s.keys.GetOrCreateKeyPairs(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no signing keys for user %q", username)
	}
	priv, ok := pairs[0].PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("primary key of user %q is not an RSA key", username)
	}
	return &federation.Signer{
		KeyID:      s.uris.Actor(username) + "#main-key",
		PrivateKey: priv,
	}, nil
}

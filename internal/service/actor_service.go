package service

import (
	"context"
	"fmt"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/repository"
	"go.uber.org/zap"
)

// ActorService resolves local and remote actor identity and builds the
// protocol-facing actor document.
type ActorService struct {
	actorRepo repository.ActorRepository
	keys      *KeyService
	uris      *federation.URIs
	logger    *zap.Logger
}

func NewActorService(actorRepo repository.ActorRepository, keys *KeyService, uris *federation.URIs, logger *zap.Logger) *ActorService {
	return &ActorService{
		actorRepo: actorRepo,
		keys:      keys,
		uris:      uris,
		logger:    logger,
	}
}

// GetActorDocument builds the actor document for a local user, lazily
// provisioning both key pairs on first request. Returns nil for an
// unknown username.
func (s *ActorService) GetActorDocument(ctx context.Context, username string) (*federation.Person, error) {
	actor, err := s.actorRepo.GetLocalByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up local actor: %w", err)
	}
	if actor == nil {
		return nil, nil
	}

	pairs, err := s.keys.GetOrCreateKeyPairs(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	actorURI := s.uris.Actor(username)

	primaryPEM, err := federation.MarshalPublicKey(pairs[0].PublicKey)
	if err != nil {
		return nil, err
	}

	methods := make([]federation.VerificationMethod, 0, len(pairs))
	for i, pair := range pairs {
		multibase, err := federation.MultibaseKey(pair.PublicKey)
		if err != nil {
			return nil, err
		}
		methods = append(methods, federation.VerificationMethod{
			ID:                 fmt.Sprintf("%s#key-%d", actorURI, i),
			Type:               "Multikey",
			Controller:         actorURI,
			PublicKeyMultibase: multibase,
		})
	}

	person := &federation.Person{
		Context:           federation.ActivityContext,
		ID:                actorURI,
		Type:              "Person",
		PreferredUsername: username,
		Inbox:             s.uris.Inbox(username),
		Endpoints:         &federation.Endpoints{SharedInbox: s.uris.SharedInbox()},
		URL:               actorURI,
		PublicKey: &federation.PublicKey{
			ID:           actorURI + "#main-key",
			Owner:        actorURI,
			PublicKeyPem: primaryPEM,
		},
		AssertionMethod: methods,
		Followers:       s.uris.Followers(username),
	}
	if actor.Name != nil {
		person.Name = *actor.Name
	}
	return person, nil
}

// ResolveLocalActor returns the actor row of a local user, or nil when
// the username is unknown.
func (s *ActorService) ResolveLocalActor(ctx context.Context, username string) (*domain.Actor, error) {
	actor, err := s.actorRepo.GetLocalByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolving local actor: %w", err)
	}
	return actor, nil
}

// UpsertRemoteActor records or refreshes a remote actor and returns the
// row id. The write is a single atomic upsert keyed on uri.
func (s *ActorService) UpsertRemoteActor(ctx context.Context, remote *federation.RemoteActor) (int64, error) {
	id, err := s.actorRepo.UpsertRemote(ctx, &domain.Actor{
		URI:            remote.URI,
		Handle:         remote.Handle,
		Name:           remote.Name,
		InboxURL:       remote.InboxURL,
		SharedInboxURL: remote.SharedInboxURL,
		URL:            remote.URL,
	})
	if err != nil {
		return 0, fmt.Errorf("upserting remote actor: %w", err)
	}
	return id, nil
}

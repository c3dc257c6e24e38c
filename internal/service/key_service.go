package service

import (
	"context"
	"fmt"

	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/repository"
	"go.uber.org/zap"
)

// KeyService provisions and loads the two signing key pairs of the
// local user. Provisioning is lazy and idempotent: a second call
// observes the stored pairs and never creates a third.
type KeyService struct {
	userRepo repository.UserRepository
	keyRepo  repository.KeyRepository
	logger   *zap.Logger
}

func NewKeyService(userRepo repository.UserRepository, keyRepo repository.KeyRepository, logger *zap.Logger) *KeyService {
	return &KeyService{
		userRepo: userRepo,
		keyRepo:  keyRepo,
		logger:   logger,
	}
}

// GetOrCreateKeyPairs returns one pair per required type, in the fixed
// type order. An unknown username yields an empty result, not an error.
// Corrupt stored key material aborts the call: regenerating would
// invalidate actor documents already published with the old keys.
func (s *KeyService) GetOrCreateKeyPairs(ctx context.Context, username string) ([]federation.KeyPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	stored, err := s.keyRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	byType := make(map[domain.KeyType]domain.Key, len(stored))
	for _, k := range stored {
		byType[k.Type] = k
	}

	pairs := make([]federation.KeyPair, 0, len(domain.KeyTypes))
	for _, keyType := range domain.KeyTypes {
		if key, ok := byType[keyType]; ok {
			pair, err := parseStoredKey(&key)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, *pair)
			continue
		}

		s.logger.Debug("user has no key of this type; creating one",
			zap.String("username", username),
			zap.String("key_type", string(keyType)))

		pair, err := s.provision(ctx, user.ID, keyType)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, *pair)
	}
	return pairs, nil
}

// provision generates and persists a pair of the given type. If a
// concurrent call stored one first, the stored pair wins and the fresh
// one is discarded.
func (s *KeyService) provision(ctx context.Context, userID int64, keyType domain.KeyType) (*federation.KeyPair, error) {
	pair, err := federation.GenerateKeyPair(keyType)
	if err != nil {
		return nil, err
	}
	privPEM, err := federation.MarshalPrivateKey(pair.PrivateKey)
	if err != nil {
		return nil, err
	}
	pubPEM, err := federation.MarshalPublicKey(pair.PublicKey)
	if err != nil {
		return nil, err
	}

	created, err := s.keyRepo.CreateIfAbsent(ctx, &domain.Key{
		UserID:     userID,
		Type:       keyType,
		PrivateKey: privPEM,
		PublicKey:  pubPEM,
	})
	if err != nil {
		return nil, fmt.Errorf("storing %s key: %w", keyType, err)
	}
	if created {
		return pair, nil
	}

	// Lost a provisioning race; use the pair that got stored.
	stored, err := s.keyRepo.Get(ctx, userID, keyType)
	if err != nil {
		return nil, fmt.Errorf("re-reading %s key: %w", keyType, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%s key vanished after conflicting insert", keyType)
	}
	return parseStoredKey(stored)
}

func parseStoredKey(key *domain.Key) (*federation.KeyPair, error) {
	priv, err := federation.ParsePrivateKey(key.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("stored %s private key is corrupt: %w", key.Type, err)
	}
	pub, err := federation.ParsePublicKey(key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("stored %s public key is corrupt: %w", key.Type, err)
	}
	return &federation.KeyPair{Type: key.Type, PrivateKey: priv, PublicKey: pub}, nil
}

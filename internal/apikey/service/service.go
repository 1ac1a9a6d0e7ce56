package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/cache"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const lookupCacheTTL = 30 * time.Second

var (
	ErrInvalidKey = errors.New("invalid_api_key")
	ErrKeyRevoked = errors.New("api_key_revoked")
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  apikeydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  apikeydomain.Repository

	// lookup caches key rows by key id so hot-path auth skips the
	// database; entries age out so revocation takes effect quickly.
	lookup cache.Cache[string, apikeydomain.APIKey]
}

func New(p Params) *Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("apikey.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		lookup: cache.NewTTLCache[string, apikeydomain.APIKey](),
	}
}

// Create issues a new key. The plaintext credential is returned once
// and never stored.
func (s *Service) Create(ctx context.Context, name string, expiresAt *time.Time) (string, *apikeydomain.APIKey, error) {
	plaintext, keyID, secretHash, err := apikeydomain.GenerateKey()
	if err != nil {
		return "", nil, err
	}

	key := apikeydomain.APIKey{
		ID:         s.genID.Generate(),
		Name:       name,
		KeyID:      keyID,
		SecretHash: secretHash,
		IsActive:   true,
		ExpiresAt:  expiresAt,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &key); err != nil {
		return "", nil, err
	}
	s.log.Info("api key issued", zap.String("key_id", keyID), zap.String("name", name))
	return plaintext, &key, nil
}

// Revoke deactivates a key and evicts it from the lookup cache.
func (s *Service) Revoke(ctx context.Context, id snowflake.ID) error {
	keys, err := s.repo.List(ctx, s.db)
	if err != nil {
		return err
	}
	for i := range keys {
		if keys[i].ID == id {
			keys[i].IsActive = false
			if err := s.repo.Update(ctx, s.db, &keys[i]); err != nil {
				return err
			}
			s.lookup.Delete(keys[i].KeyID)
			s.log.Info("api key revoked", zap.String("key_id", keys[i].KeyID))
			return nil
		}
	}
	return ErrInvalidKey
}

// List returns all issued keys, hashes omitted from JSON.
func (s *Service) List(ctx context.Context) ([]apikeydomain.APIKey, error) {
	return s.repo.List(ctx, s.db)
}

// Authenticate resolves a presented credential to its key record.
func (s *Service) Authenticate(ctx context.Context, plaintext string) (*apikeydomain.APIKey, error) {
	keyID, secret, err := apikeydomain.ParseKey(plaintext)
	if err != nil {
		return nil, ErrInvalidKey
	}

	key, ok := s.lookup.Get(keyID)
	if !ok {
		found, err := s.repo.FindByKeyID(ctx, s.db, keyID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrInvalidKey
		}
		key = *found
		s.lookup.Set(keyID, key, lookupCacheTTL)
	}

	if !apikeydomain.VerifySecret(secret, key.SecretHash) {
		return nil, ErrInvalidKey
	}
	if !key.IsActive {
		return nil, ErrKeyRevoked
	}
	if key.Expired(s.clock.Now()) {
		return nil, ErrKeyRevoked
	}
	return &key, nil
}

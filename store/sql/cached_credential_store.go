package sqlstore

import (
	"context"
	"fmt"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/AmmarHussainn/lawcusworkfinal/core"
)

// CredentialCacheKey is the deterministic cache key for the active credential
// record. The store holds one logical record, so the key is a constant.
const CredentialCacheKey = "lawcus::credential::v1::active"

// CachedCredentialStore keeps the active credential in a read-through cache
// in front of any base store. Writes and clears invalidate the cached entry
// after the base store has accepted the change.
type CachedCredentialStore struct {
	base  core.CredentialStore
	cache repositorycache.CacheService
}

func NewCachedCredentialStore(
	base core.CredentialStore,
	cacheService repositorycache.CacheService,
) (*CachedCredentialStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base credential store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: credential cache service is required")
	}
	return &CachedCredentialStore{base: base, cache: cacheService}, nil
}

func (s *CachedCredentialStore) Load(ctx context.Context) (core.Credential, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: cached credential store is not configured")
	}

	return repositorycache.GetOrFetch(ctx, s.cache, CredentialCacheKey, func(ctx context.Context) (core.Credential, error) {
		return s.base.Load(ctx)
	})
}

func (s *CachedCredentialStore) Save(ctx context.Context, credential core.Credential) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	if err := s.base.Save(ctx, credential); err != nil {
		return err
	}
	return s.cache.Delete(ctx, CredentialCacheKey)
}

func (s *CachedCredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached credential store is not configured")
	}
	if err := s.base.Clear(ctx); err != nil {
		return err
	}
	return s.cache.Delete(ctx, CredentialCacheKey)
}

var _ core.CredentialStore = (*CachedCredentialStore)(nil)

package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-datacite/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const identifierCacheKeyPrefix = "go-datacite::identifier::v1"

// CachedIdentifierStore caches record lookups. ExistsByIdentifier always hits
// the base store because the minter relies on it seeing fresh writes.
type CachedIdentifierStore struct {
	base  core.IdentifierStore
	cache repositorycache.CacheService
}

func NewCachedIdentifierStore(
	base core.IdentifierStore,
	cacheService repositorycache.CacheService,
) (*CachedIdentifierStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base identifier store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: identifier cache service is required")
	}
	return &CachedIdentifierStore{base: base, cache: cacheService}, nil
}

// IdentifierCacheKey returns go-datacite::identifier::v1::<kind>::<value>
// with value URL-path escaped.
func IdentifierCacheKey(kind string, value string) string {
	return strings.Join([]string{
		identifierCacheKeyPrefix,
		strings.TrimSpace(kind),
		url.PathEscape(strings.TrimSpace(value)),
	}, "::")
}

func (s *CachedIdentifierStore) Create(ctx context.Context, in core.CreateIdentifierInput) (core.IdentifierRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: cached identifier store is not configured")
	}
	record, err := s.base.Create(ctx, in)
	if err != nil {
		return core.IdentifierRecord{}, err
	}
	for _, key := range []string{
		IdentifierCacheKey("package", record.PackageID),
		IdentifierCacheKey("doi", record.Identifier),
	} {
		if err := s.cache.Delete(ctx, key); err != nil {
			return core.IdentifierRecord{}, err
		}
	}
	return record, nil
}

func (s *CachedIdentifierStore) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	if s == nil || s.base == nil {
		return false, fmt.Errorf("sqlstore: cached identifier store is not configured")
	}
	return s.base.ExistsByIdentifier(ctx, identifier)
}

func (s *CachedIdentifierStore) GetByPackageID(ctx context.Context, packageID string) (core.IdentifierRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: cached identifier store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, IdentifierCacheKey("package", packageID),
		func(ctx context.Context) (core.IdentifierRecord, error) {
			return s.base.GetByPackageID(ctx, packageID)
		},
	)
}

func (s *CachedIdentifierStore) GetByIdentifier(ctx context.Context, identifier string) (core.IdentifierRecord, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IdentifierRecord{}, fmt.Errorf("sqlstore: cached identifier store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, IdentifierCacheKey("doi", identifier),
		func(ctx context.Context) (core.IdentifierRecord, error) {
			return s.base.GetByIdentifier(ctx, identifier)
		},
	)
}

package pubchem

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/database/redis"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// Source is the PubChem lookup surface. Client and CachedSource implement it.
type Source interface {
	LookupCIDs(ctx context.Context, name string) ([]compound.CID, error)
	Properties(ctx context.Context, cid compound.CID) (compound.Properties, error)
	Synonyms(ctx context.Context, cid compound.CID) ([]string, error)
	Structure(ctx context.Context, cid compound.CID, dim compound.Dimension) (string, error)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*CachedSource)(nil)
)

// CachedSource memoizes successful upstream responses in a redis-backed cache.
// Failures pass through uncached.
type CachedSource struct {
	upstream Source
	cache    redis.Cache
	ttl      time.Duration
	logger   logging.Logger
}

// NewCachedSource wraps upstream. A zero ttl uses the cache default.
func NewCachedSource(upstream Source, cache redis.Cache, ttl time.Duration, logger logging.Logger) *CachedSource {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedSource{upstream: upstream, cache: cache, ttl: ttl, logger: logger.Named("pubchem.cache")}
}

func cidsKey(name string) string { return "cids:" + compound.NormalizeQuery(name) }
func propertiesKey(cid compound.CID) string { return "props:" + cid.String() }
func synonymsKey(cid compound.CID) string { return "synonyms:" + cid.String() }
func structureKey(cid compound.CID, dim compound.Dimension) string {
	return fmt.Sprintf("sdf:%s:%s", dim, cid)
}

// LookupCIDs caches non-empty identifier lists only.
func (s *CachedSource) LookupCIDs(ctx context.Context, name string) ([]compound.CID, error) {
	key := cidsKey(name)
	var cids []compound.CID
	if err := s.cache.Get(ctx, key, &cids); err == nil && len(cids) > 0 {
		return cids, nil
	} else if err != nil && err != redis.ErrCacheMiss {
		s.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	}

	cids, err := s.upstream.LookupCIDs(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(cids) > 0 {
		if err := s.cache.Set(ctx, key, cids, s.ttl); err != nil {
			s.logger.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
	}
	return cids, nil
}

func (s *CachedSource) Properties(ctx context.Context, cid compound.CID) (compound.Properties, error) {
	var p compound.Properties
	err := s.cache.GetOrSet(ctx, propertiesKey(cid), &p, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.upstream.Properties(ctx, cid)
	})
	return p, err
}

func (s *CachedSource) Synonyms(ctx context.Context, cid compound.CID) ([]string, error) {
	var syn []string
	err := s.cache.GetOrSet(ctx, synonymsKey(cid), &syn, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.upstream.Synonyms(ctx, cid)
	})
	if syn == nil && err == nil {
		syn = []string{}
	}
	return syn, err
}

func (s *CachedSource) Structure(ctx context.Context, cid compound.CID, dim compound.Dimension) (string, error) {
	var text string
	err := s.cache.GetOrSet(ctx, structureKey(cid, dim), &text, s.ttl, func(ctx context.Context) (interface{}, error) {
		return s.upstream.Structure(ctx, cid, dim)
	})
	return text, err
}

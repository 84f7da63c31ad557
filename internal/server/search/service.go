package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/cache"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
)

const (
	MinPageSize = 2
	MaxPageSize = 50

	DefaultTTL = 5 * time.Second
)

// Document is any item kind served by the search service.
type Document interface {
	models.Film | models.Genre | models.Person
	ItemID() string
}

// KindOf returns the key prefix used for T.
func KindOf[T Document]() string {
	var zero T
	switch any(zero).(type) {
	case models.Film:
		return "films"
	case models.Genre:
		return "genres"
	default:
		return "persons"
	}
}

// ListParams selects one page. PageNumber is zero-based.
type ListParams struct {
	PageNumber int
	PageSize   int
	Sort       string
	Order      string
	Query      string
}

func (p ListParams) Validate() error {
	if p.PageNumber < 0 {
		return fmt.Errorf("%w: page_number must be >= 0", common.ErrValidation)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be in [%d, %d]", common.ErrValidation, MinPageSize, MaxPageSize)
	}
	return nil
}

func (p ListParams) order() string {
	if p.Order == "desc" {
		return "desc"
	}
	return "asc"
}

type page[T Document] struct {
	Items []T `json:"items"`
}

// Service is a cache-aside reader for one item kind. Cache and index
// failures surface as common.ErrBackendUnavailable; an id that exists in
// neither yields (nil, nil). Concurrent misses on the same key may each hit
// the index; the short TTL bounds the duplicate work.
type Service[T Document] struct {
	kind   string
	index  string
	idx    Index
	cache  cache.Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewService[T Document](idx Index, c cache.Cache, indexName string, ttl time.Duration, logger logging.Logger) *Service[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	kind := KindOf[T]()
	return &Service[T]{
		kind:   kind,
		index:  indexName,
		idx:    idx,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("module", "search", "kind", kind),
	}
}

func (s *Service[T]) Kind() string { return s.kind }

func (s *Service[T]) GetByID(ctx context.Context, id string) (*T, error) {
	key := ItemKey(s.kind, id)

	var cached T
	hit, err := s.fromCache(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return &cached, nil
	}

	src, found, err := s.idx.Get(ctx, s.index, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	if !found {
		return nil, nil
	}
	var item T
	if err := json.Unmarshal(src, &item); err != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", common.ErrBackendUnavailable, s.kind, id, err)
	}

	s.toCache(ctx, key, item)
	return &item, nil
}

// List returns one page in index order. Empty pages are not cached.
func (s *Service[T]) List(ctx context.Context, p ListParams) ([]T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := PageKey(s.kind, p)

	var cached page[T]
	hit, err := s.fromCache(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if hit {
		return cached.Items, nil
	}

	sources, err := s.idx.Search(ctx, s.index, Query{
		From: p.PageNumber * p.PageSize,
		Size: p.PageSize,
		Sort: p.Sort,
		Desc: p.Order == "desc",
		Text: p.Query,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}

	items := make([]T, 0, len(sources))
	for _, src := range sources {
		var item T
		if err := json.Unmarshal(src, &item); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", common.ErrBackendUnavailable, s.kind, err)
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		s.toCache(ctx, key, page[T]{Items: items})
	}
	return items, nil
}

// fromCache reports a hit after decoding into dst. An undecodable entry is
// treated as a miss.
func (s *Service[T]) fromCache(ctx context.Context, key string, dst any) (bool, error) {
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	if !ok {
		s.logger.Debug(ctx, "cache miss", "key", key)
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.Warn(ctx, "dropping undecodable cache entry", "key", key, "error", err)
		return false, nil
	}
	s.logger.Debug(ctx, "cache hit", "key", key)
	return true, nil
}

// toCache populates the cache; a failure is logged and does not fail the read.
func (s *Service[T]) toCache(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Put(ctx, key, b, s.ttl); err != nil {
		s.logger.Warn(ctx, "cache populate failed", "key", key, "error", err)
	}
}

// Package revocation records revoked token pairs by jti.
package revocation

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/server/cache"
)

// Store keeps one entry per revoked jti under "token:{jti}". The presence of
// the key is the revocation signal; the stored token is informational.
type Store struct {
	cache cache.Cache
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

func Key(jti string) string {
	return common.RevokedTokenKeyPrefix + jti
}

func (s *Store) Revoke(ctx context.Context, jti, token string, ttl time.Duration) error {
	return s.cache.Put(ctx, Key(jti), []byte(token), ttl)
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok, err := s.cache.Get(ctx, Key(jti))
	if err != nil {
		return false, err
	}
	return ok, nil
}

package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/moviesauth/internal/server/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (failingCache) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingCache) Del(context.Context, string) error { return errors.New("down") }

func TestKey(t *testing.T) {
	assert.Equal(t, "token:abc", Key("abc"))
}

func TestStore_RevokeAndCheck(t *testing.T) {
	s := NewStore(cache.NewMemoryCache())
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "j1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "j1", "tok", time.Minute))

	revoked, err = s.IsRevoked(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "j2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_RedisEntryShape(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewStore(cache.NewRedisCache(client))
	require.NoError(t, s.Revoke(context.Background(), "j1", "the-token", 15*time.Minute))

	v, err := mr.Get("token:j1")
	require.NoError(t, err)
	assert.Equal(t, "the-token", v)
	assert.Equal(t, 15*time.Minute, mr.TTL("token:j1"))

	mr.FastForward(16 * time.Minute)
	revoked, err := s.IsRevoked(context.Background(), "j1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_BackendError(t *testing.T) {
	s := NewStore(failingCache{})

	_, err := s.IsRevoked(context.Background(), "j1")
	assert.Error(t, err)
	assert.Error(t, s.Revoke(context.Background(), "j1", "t", time.Second))
}

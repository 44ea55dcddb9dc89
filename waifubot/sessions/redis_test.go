package sessions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
)

// The redis round trip needs a live server: WAIFU_TEST_REDIS_ADDR=localhost:6379.
func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("WAIFU_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WAIFU_TEST_REDIS_ADDR not set")
	}
	store := NewRedisStore(&redis.Options{Addr: addr}, "waifugrab:test:"+t.Name()+":")
	require.NoError(t, store.Ping(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	s := &Session{
		ID:        "abc",
		Kind:      KindBazaar,
		OwnerID:   7,
		ChatID:    9,
		Message:   domain.MessageRef{ChatID: 9, MessageID: 11},
		Items:     []domain.Card{{ID: 1, Name: "Rem", Rarity: 2}},
		Page:      1,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, s.Key(), s, time.Minute))

	got, err := store.Get(ctx, s.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Items, got.Items)
	assert.Equal(t, s.Message, got.Message)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	moved := *s
	moved.Index = 1
	ok, err := store.Replace(ctx, s.Key(), "other", &moved, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Replace(ctx, s.Key(), s.ID, &moved, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = store.Get(ctx, s.Key())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Index)

	ok, err = store.Remove(ctx, s.Key(), "other")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Remove(ctx, s.Key(), s.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = store.Get(ctx, s.Key())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_Expiry(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	s := &Session{ID: "short", Kind: KindHarem, OwnerID: 1}
	require.NoError(t, store.Put(ctx, s.Key(), s, 50*time.Millisecond))

	assert.Eventually(t, func() bool {
		got, err := store.Get(ctx, s.Key())
		return err == nil && got == nil
	}, 2*time.Second, 20*time.Millisecond)
}

package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The compare runs server side so a session ended by another process is
// never written back.
var (
	replaceScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur or cjson.decode(cur).id ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1`)

	removeScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur or cjson.decode(cur).id ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
return 1`)
)

// RedisStore shares sessions between bot processes.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(opt *redis.Options, prefix string) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt), Prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Session, error) {
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decode(b)
}

func (s *RedisStore) Put(ctx context.Context, key string, sess *Session, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.Client.Set(ctx, s.Prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Replace(ctx context.Context, key, id string, sess *Session, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return false, fmt.Errorf("failed to encode session: %w", err)
	}
	n, err := replaceScript.Run(ctx, s.Client, []string{s.Prefix + key}, id, b, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to replace session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Remove(ctx context.Context, key, id string) (bool, error) {
	n, err := removeScript.Run(ctx, s.Client, []string{s.Prefix + key}, id).Int()
	if err != nil {
		return false, fmt.Errorf("failed to remove session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

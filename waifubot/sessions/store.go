package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store keeps live sessions. Get returns nil when the key is absent or expired.
// Replace and Remove act only while the stored session still has id, and
// report whether they did.
type Store interface {
	Get(ctx context.Context, key string) (*Session, error)
	Put(ctx context.Context, key string, s *Session, ttl time.Duration) error
	Replace(ctx context.Context, key, id string, s *Session, ttl time.Duration) (bool, error)
	Remove(ctx context.Context, key, id string) (bool, error)
}

type memItem struct {
	v       []byte
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memItem{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !it.expires.IsZero() && s.now().After(it.expires) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && cur.expires.Equal(it.expires) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return decode(it.v)
}

func (s *MemoryStore) Put(_ context.Context, key string, sess *Session, ttl time.Duration) error {
	it, err := s.item(sess, ttl)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, key, id string, sess *Session, ttl time.Duration) (bool, error) {
	it, err := s.item(sess, ttl)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsLocked(key, id) {
		return false, nil
	}
	s.items[key] = it
	return true, nil
}

func (s *MemoryStore) Remove(_ context.Context, key, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holdsLocked(key, id) {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

// holdsLocked reports whether key holds a live session with id.
func (s *MemoryStore) holdsLocked(key, id string) bool {
	it, ok := s.items[key]
	if !ok || (!it.expires.IsZero() && s.now().After(it.expires)) {
		return false
	}
	var head struct {
		ID string `json:"id"`
	}
	return json.Unmarshal(it.v, &head) == nil && head.ID == id
}

func (s *MemoryStore) item(sess *Session, ttl time.Duration) (memItem, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return memItem{}, fmt.Errorf("failed to encode session: %w", err)
	}
	it := memItem{v: b}
	if ttl > 0 {
		it.expires = s.now().Add(ttl)
	}
	return it, nil
}

func decode(b []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

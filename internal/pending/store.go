// internal/pending/store.go
package pending

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

// TTL is the logical lifetime of a pending selection. Expiry is checked
// lazily by readers against the record's ExpiresAt; the stores only run
// hygiene cleanup.
const TTL = 15 * time.Minute

// Store holds at most one in-flight disambiguation per phone number.
// Put has upsert semantics: a new record for a number with a live one
// supersedes it.
type Store interface {
	Get(ctx context.Context, phoneNumber string) (*model.PendingSelection, error)
	Put(ctx context.Context, sel *model.PendingSelection) error
	Delete(ctx context.Context, phoneNumber string) error
}

// ====================== Redis store ======================

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func key(phoneNumber string) string {
	return "pending:" + phoneNumber
}

func (s *RedisStore) Get(ctx context.Context, phoneNumber string) (*model.PendingSelection, error) {
	data, err := s.Client.Get(ctx, key(phoneNumber)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var sel model.PendingSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

func (s *RedisStore) Put(ctx context.Context, sel *model.PendingSelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	// The redis TTL is twice the logical one: it is the hygiene sweep,
	// not the expiry check, so readers still see a stale record and can
	// answer "please resend" instead of silently dropping context.
	return s.Client.Set(ctx, key(sel.PhoneNumber), data, 2*TTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, phoneNumber string) error {
	return s.Client.Del(ctx, key(phoneNumber)).Err()
}

var _ Store = (*RedisStore)(nil)

// ====================== In-memory store ======================

// MemoryStore is the broker-free twin of RedisStore, used by tests and
// single-process runs without redis.
type MemoryStore struct {
	mu   sync.Mutex
	sels map[string]*model.PendingSelection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sels: make(map[string]*model.PendingSelection)}
}

func (s *MemoryStore) Get(ctx context.Context, phoneNumber string) (*model.PendingSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.sels[phoneNumber]
	if !ok {
		return nil, nil
	}
	copied := *sel
	return &copied, nil
}

func (s *MemoryStore) Put(ctx context.Context, sel *model.PendingSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sel
	s.sels[sel.PhoneNumber] = &copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sels, phoneNumber)
	return nil
}

// Sweep drops records past twice the logical TTL. Optional hygiene;
// callers never rely on it for correctness.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for phone, sel := range s.sels {
		if now.After(sel.ExpiresAt.Add(TTL)) {
			delete(s.sels, phone)
		}
	}
}

var _ Store = (*MemoryStore)(nil)

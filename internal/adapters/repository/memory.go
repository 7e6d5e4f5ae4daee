package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/inningscast/internal/domain/model"
)

// MemoryStore keeps users in a map guarded by a single lock.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]model.User
	gauge  *gaugeLoop
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &MemoryStore{
		byName: make(map[string]model.User),
		gauge:  newGaugeLoop(),
	}
	s.gauge.start(ctx, cfg.metricsUpdateInterval, s.Count)
	return s
}

// Find implements Store.Find.
func (s *MemoryStore) Find(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Create implements Store.Create. The check and insert happen under one lock.
func (s *MemoryStore) Create(_ context.Context, username, passwordHash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[username]; exists {
		return model.User{}, ErrConflict
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byName[username] = u
	return u, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName), nil
}

// Close stops the metrics loop.
func (s *MemoryStore) Close() error {
	s.gauge.stop()
	return nil
}

package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
)

// MemoryStore is the in-process Store used for tests and single-node
// development.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration

	entries map[string]memoryEntry
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.entries[sess.UploadID] = memoryEntry{session: &cp, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, uploadID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[uploadID]
	if !ok || time.Now().After(e.expiresAt) {
		delete(s.entries, uploadID)
		return nil, common.ErrorNotFound
	}
	cp := *e.session
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, uploadID)
	return nil
}

package state

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process. Used for single-instance runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, conversationID string) (*Snapshot, error) {
	key, err := snapshotKey("", conversationID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot(raw)
}

func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	key, err := snapshotKey("", snap.ConversationID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[key] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	key, err := snapshotKey("", conversationID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

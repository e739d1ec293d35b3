package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps conversations in process. It backs tests and
// database-less runs.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: conversation=%s", ErrNotFound, id)
	}
	out := *c
	return &out, nil
}

func (s *MemoryStore) FindBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	return s.latest(func(c *Conversation) bool {
		return c.SessionID == sessionID
	}, "session="+sessionID)
}

func (s *MemoryStore) FindLatest(ctx context.Context, userID string, channel string) (*Conversation, error) {
	return s.latest(func(c *Conversation) bool {
		return c.UserID == userID && c.Channel == channel
	}, "user="+userID+" channel="+channel)
}

func (s *MemoryStore) Create(ctx context.Context, c *Conversation) error {
	if c == nil {
		return errors.New("conversation is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.conversations[c.ID]; dup {
		return fmt.Errorf("insert conversation: duplicate id %s", c.ID)
	}
	stored := *c
	s.conversations[c.ID] = &stored
	return nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, conversationID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("%w: conversation=%s", ErrNotFound, conversationID)
	}
	msgs := turnMessages(conversationID, turn)
	s.messages[conversationID] = append(s.messages[conversationID], msgs...)
	c.LastMessageAt = msgs[len(msgs)-1].CreatedAt
	return nil
}

func (s *MemoryStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Message(nil), s.messages[conversationID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) latest(match func(*Conversation) bool, what string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Conversation
	for _, c := range s.conversations {
		if !match(c) {
			continue
		}
		if best == nil || c.StartedAt.After(best.StartedAt) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	out := *best
	return &out, nil
}

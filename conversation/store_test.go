package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	c := NewConversation("", "chat", "", now)
	require.NotEmpty(t, c.SessionID, "missing session id must be generated")
	require.NoError(t, s.Create(ctx, c))

	require.NoError(t, s.AppendTurn(ctx, c.ID, Turn{User: "hi", Assistant: "hello", At: now}))
	require.NoError(t, s.AppendTurn(ctx, c.ID, Turn{User: "jackets?", Assistant: "here you go", At: now.Add(time.Second)}))

	msgs, err := s.Messages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"user", "assistant", "user", "assistant"}, []string{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
	assert.Equal(t, "jackets?", msgs[2].Content)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.LastMessageAt.After(now), "last_message_at must move forward")
}

func TestMemoryStoreFindLatest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	user := "8b0f2b4e-5f2e-4d0c-9b37-0c5d1f1f2a10"

	older := NewConversation(user, "voice", "call-1", now.Add(-time.Hour))
	newer := NewConversation(user, "voice", "call-2", now)
	chat := NewConversation(user, "chat", "web-1", now.Add(time.Hour))
	for _, c := range []*Conversation{older, newer, chat} {
		require.NoError(t, s.Create(ctx, c))
	}

	got, err := s.FindLatest(ctx, user, "voice")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	got, err = s.FindBySession(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)

	_, err = s.FindBySession(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreAppendUnknownConversation(t *testing.T) {
	t.Parallel()

	err := NewMemoryStore().AppendTurn(context.Background(), "missing", Turn{User: "a", Assistant: "b"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewBunStoreRequiresDB(t *testing.T) {
	t.Parallel()

	_, err := NewBunStore(nil)
	assert.Error(t, err)
}

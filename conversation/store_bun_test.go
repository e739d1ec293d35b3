package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newSQLiteStore(t *testing.T) (*BunStore, *bun.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, CreateTables(context.Background(), db))

	s, err := NewBunStore(db)
	require.NoError(t, err)
	return s, db
}

func TestBunStoreAppendAndList(t *testing.T) {
	t.Parallel()

	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	c := NewConversation("8b0f2b4e-5f2e-4d0c-9b37-0c5d1f1f2a10", "chat", "web-1", now)
	require.NoError(t, s.Create(ctx, c))

	require.NoError(t, s.AppendTurn(ctx, c.ID, Turn{User: "hi", Assistant: "hello", At: now.Add(time.Second)}))
	require.NoError(t, s.AppendTurn(ctx, c.ID, Turn{User: "jackets?", Assistant: "here you go", At: now.Add(2 * time.Second)}))

	msgs, err := s.Messages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"user", "assistant", "user", "assistant"}, []string{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
	assert.Equal(t, "jackets?", msgs[2].Content)

	got, err := s.FindBySession(ctx, "web-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, got.LastMessageAt.After(now.Add(time.Second)), "last_message_at must move forward")
}

func TestBunStoreAppendUnknownConversationRollsBack(t *testing.T) {
	t.Parallel()

	s, db := newSQLiteStore(t)
	ctx := context.Background()

	err := s.AppendTurn(ctx, "missing", Turn{User: "a", Assistant: "b", At: time.Now()})
	require.ErrorIs(t, err, ErrNotFound)

	n, err := db.NewSelect().Model((*Message)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "messages must not survive a failed append")
}

func TestBunStoreFindLatest(t *testing.T) {
	t.Parallel()

	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	user := "8b0f2b4e-5f2e-4d0c-9b37-0c5d1f1f2a10"

	older := NewConversation(user, "voice", "call-1", now.Add(-time.Hour))
	newer := NewConversation(user, "voice", "call-2", now)
	for _, c := range []*Conversation{older, newer} {
		require.NoError(t, s.Create(ctx, c))
	}

	got, err := s.FindLatest(ctx, user, "voice")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = s.FindLatest(ctx, user, "chat")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// BunStore is the Postgres-backed Store.
type BunStore struct {
	db bun.IDB
}

func NewBunStore(db bun.IDB) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunStore{db: db}, nil
}

func (s *BunStore) Get(ctx context.Context, id string) (*Conversation, error) {
	c := new(Conversation)
	if err := s.db.NewSelect().Model(c).Where("cv.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err, "conversation=%s", id)
	}
	return c, nil
}

func (s *BunStore) FindBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	c := new(Conversation)
	err := s.db.NewSelect().
		Model(c).
		Where("cv.session_id = ?", sessionID).
		OrderExpr("cv.started_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "conversation session=%s", sessionID)
	}
	return c, nil
}

func (s *BunStore) FindLatest(ctx context.Context, userID string, channel string) (*Conversation, error) {
	c := new(Conversation)
	err := s.db.NewSelect().
		Model(c).
		Where("cv.user_id = ?", userID).
		Where("cv.channel = ?", channel).
		OrderExpr("cv.started_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "conversation user=%s channel=%s", userID, channel)
	}
	return c, nil
}

func (s *BunStore) Create(ctx context.Context, c *Conversation) error {
	if c == nil {
		return errors.New("conversation is nil")
	}
	if _, err := s.db.NewInsert().Model(c).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *BunStore) AppendTurn(ctx context.Context, conversationID string, turn Turn) error {
	msgs := turnMessages(conversationID, turn)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&msgs).Exec(ctx); err != nil {
			return fmt.Errorf("insert messages conversation=%s: %w", conversationID, err)
		}
		res, err := tx.NewUpdate().
			Model((*Conversation)(nil)).
			Set("last_message_at = ?", msgs[len(msgs)-1].CreatedAt).
			Where("id = ?", conversationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("touch conversation=%s: %w", conversationID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: conversation=%s", ErrNotFound, conversationID)
		}
		return nil
	})
}

func (s *BunStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	msgs := make([]Message, 0)
	err := s.db.NewSelect().
		Model(&msgs).
		Where("m.conversation_id = ?", conversationID).
		OrderExpr("m.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages conversation=%s: %w", conversationID, err)
	}
	return msgs, nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
	}
	return fmt.Errorf("load "+format+": %w", append(args, err)...)
}

package conversation

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateTables creates the conversation and message tables if missing.
func CreateTables(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	indexes := []struct {
		model any
		name  string
		cols  []string
	}{
		{(*Conversation)(nil), "idx_conversations_session", []string{"session_id"}},
		{(*Conversation)(nil), "idx_conversations_user_channel", []string{"user_id", "channel"}},
		{(*Message)(nil), "idx_messages_conversation_created", []string{"conversation_id", "created_at"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.cols...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

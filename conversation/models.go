package conversation

import (
	"time"

	"github.com/uptrace/bun"
)

type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:cv"`

	ID            string         `bun:"id,pk,type:uuid" json:"id"`
	UserID        string         `bun:"user_id,type:uuid,nullzero" json:"user_id,omitempty"`
	Channel       string         `bun:"channel,notnull" json:"channel"`
	SessionID     string         `bun:"session_id,nullzero" json:"session_id,omitempty"`
	StartedAt     time.Time      `bun:"started_at,notnull,default:current_timestamp" json:"started_at"`
	LastMessageAt time.Time      `bun:"last_message_at,notnull,default:current_timestamp" json:"last_message_at"`
	Metadata      map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID             string         `bun:"id,pk,type:uuid" json:"id"`
	ConversationID string         `bun:"conversation_id,type:uuid,notnull" json:"conversation_id"`
	Role           string         `bun:"role,notnull" json:"role"`
	Content        string         `bun:"content,notnull" json:"content"`
	Meta           map[string]any `bun:"meta,type:jsonb" json:"meta,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func Models() []any {
	return []any{
		(*Conversation)(nil),
		(*Message)(nil),
	}
}

package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("conversation not found")

// Turn is one user utterance and the reply it produced.
type Turn struct {
	User      string
	Assistant string
	At        time.Time
}

// Store persists conversations and their message log.
type Store interface {
	Get(ctx context.Context, id string) (*Conversation, error)
	// FindBySession returns the most recently started conversation for the session.
	FindBySession(ctx context.Context, sessionID string) (*Conversation, error)
	// FindLatest returns the user's most recently started conversation on channel.
	FindLatest(ctx context.Context, userID string, channel string) (*Conversation, error)
	Create(ctx context.Context, c *Conversation) error
	// AppendTurn writes both messages and bumps last_message_at atomically.
	AppendTurn(ctx context.Context, conversationID string, turn Turn) error
	// Messages returns the log ordered by created_at ascending.
	Messages(ctx context.Context, conversationID string) ([]Message, error)
}

// NewConversation fills id and timestamps. A missing session id is generated.
func NewConversation(userID string, channel string, sessionID string, now time.Time) *Conversation {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now = now.UTC()
	return &Conversation{
		ID:            uuid.NewString(),
		UserID:        userID,
		Channel:       channel,
		SessionID:     sessionID,
		StartedAt:     now,
		LastMessageAt: now,
		Metadata:      map[string]any{},
	}
}

// turnMessages builds the two rows for a turn. The assistant row is stamped
// one microsecond later so created_at ordering is stable.
func turnMessages(conversationID string, turn Turn) []Message {
	at := turn.At.UTC()
	if turn.At.IsZero() {
		at = time.Now().UTC()
	}
	return []Message{
		{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           "user",
			Content:        turn.User,
			CreatedAt:      at,
		},
		{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        turn.Assistant,
			CreatedAt:      at.Add(time.Microsecond),
		},
	}
}

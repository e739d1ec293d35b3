package chatnode

import (
	"context"
	"errors"
	"time"

	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrNoConversation = errors.New("conversation is not loaded")
)

// CartSource resolves a user's active cart. An empty cart id with a nil
// error means the user has no active cart.
type CartSource interface {
	ActiveCart(ctx context.Context, userID string) (string, []statex.CartItem, error)
}

// TurnInput is one inbound utterance.
type TurnInput struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

type StateSummary struct {
	Intent       string `json:"intent,omitempty"`
	Category     string `json:"category,omitempty"`
	ActiveWorker string `json:"active_worker,omitempty"`
}

// TurnOutput is what the caller gets back for one utterance.
type TurnOutput struct {
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	SessionID      string       `json:"session_id"`
	State          StateSummary `json:"state"`

	// Hangup is set on voice turns when the caller said goodbye.
	Hangup bool `json:"-"`
}

// TurnState threads one request through the pipeline.
type TurnState struct {
	Input   TurnInput
	Channel statex.Channel
	Now     time.Time
	Budget  Budget

	Conversation *conversation.Conversation
	Created      bool

	State  *statex.ConversationState
	Result *statex.ConversationState
	Reply  string
}

package chatnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

// LoadOrCreateConversation resolves the conversation row. Chat looks up by
// session; voice without a session falls back to the user's latest voice
// conversation.
func LoadOrCreateConversation(
	ctx context.Context,
	in *TurnState,
	store conversation.Store,
) (*TurnState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	conv, err := findConversation(ctx, in, store)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		in.Conversation = conv
		return in, nil
	}

	conv = conversation.NewConversation(in.Input.UserID, string(in.Channel), in.Input.SessionID, in.Now)
	if err := store.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	log.Info().
		Str("conversation_id", conv.ID).
		Str("session_id", conv.SessionID).
		Str("channel", conv.Channel).
		Msg("conversation started")

	in.Conversation = conv
	in.Created = true
	return in, nil
}

func findConversation(ctx context.Context, in *TurnState, store conversation.Store) (*conversation.Conversation, error) {
	var (
		conv *conversation.Conversation
		err  error
	)
	switch {
	case in.Input.SessionID != "":
		conv, err = store.FindBySession(ctx, in.Input.SessionID)
	case in.Channel == statex.ChannelVoice && in.Input.UserID != "":
		conv, err = store.FindLatest(ctx, in.Input.UserID, string(in.Channel))
	default:
		return nil, nil
	}
	if errors.Is(err, conversation.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

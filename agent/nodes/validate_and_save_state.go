package chatnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

// ValidateAndSaveState writes the turn to the message log and the domain
// snapshot. Persistence failures are logged; the reply is still returned.
func ValidateAndSaveState(
	ctx context.Context,
	in *TurnState,
	history conversation.Store,
	snapshots statex.Store,
) (*TurnState, error) {
	if in == nil || in.Conversation == nil || in.Result == nil {
		return nil, fmt.Errorf("%w: turn state is incomplete", contractx.ErrValidation)
	}
	convID := in.Conversation.ID

	err := history.AppendTurn(ctx, convID, conversation.Turn{
		User:      in.Input.Message,
		Assistant: in.Reply,
		At:        in.Now,
	})
	if err != nil {
		log.Error().Err(err).Str("conversation_id", convID).Msg("save conversation turn failed")
	}

	snap := statex.SnapshotOf(in.Result, in.Now)
	snap.ConversationID = convID
	if err := snapshots.Save(ctx, snap); err != nil {
		log.Error().Err(err).Str("conversation_id", convID).Msg("save conversation snapshot failed")
	}
	return in, nil
}

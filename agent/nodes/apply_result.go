package chatnode

import (
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

const fallbackReply = "I apologize, but I encountered an error."

// ApplyResult picks the reply from the finished run and enforces the
// category allow-list one last time.
func ApplyResult(in *TurnState, categories statex.Categories) (*TurnState, error) {
	if in == nil || in.State == nil || in.Result == nil {
		return nil, fmt.Errorf("%w: graph result is nil", contractx.ErrValidation)
	}
	res := in.Result

	if res.Category != "" && !categories.Empty() && !categories.Allows(res.Category) {
		log.Warn().
			Str("category", res.Category).
			Str("conversation_id", res.ConversationID).
			Msg("invalid category detected, clearing")
		res.Category = ""
	}

	in.Reply = replyFrom(res, len(in.State.Messages))
	in.Reply = truncateReply(in.Reply, in.Budget.MaxReplyChars)
	return in, nil
}

// replyFrom returns the last assistant message produced during this run.
func replyFrom(res *statex.ConversationState, inputLen int) string {
	for i := len(res.Messages) - 1; i >= inputLen && i >= 0; i-- {
		m := res.Messages[i]
		if m.Role == statex.RoleAssistant && m.Content != "" {
			return m.Content
		}
	}
	return fallbackReply
}

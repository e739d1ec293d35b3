package chatnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

func FinalizeReply(in *TurnState) (TurnOutput, error) {
	if in == nil || in.Conversation == nil || in.Result == nil {
		return TurnOutput{}, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		reply = fallbackReply
	}
	res := in.Result
	return TurnOutput{
		Response:       reply,
		ConversationID: in.Conversation.ID,
		SessionID:      in.Conversation.SessionID,
		State: StateSummary{
			Intent:       res.Intent,
			Category:     res.Category,
			ActiveWorker: res.ActiveWorker,
		},
		Hangup: in.Channel == statex.ChannelVoice && saidGoodbye(in.Input.Message),
	}, nil
}

func saidGoodbye(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "goodbye") || strings.Contains(lower, "bye")
}

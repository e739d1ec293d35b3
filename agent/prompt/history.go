package prompt

import (
	"github.com/cloudwego/eino/schema"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// History converts normalized state messages into chat template messages.
func History(msgs []statex.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case statex.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case statex.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

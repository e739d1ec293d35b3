package state

import (
	"errors"
	"strings"
)

var ErrInvalidRole = errors.New("invalid message role")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NormalizeMessage builds the canonical message for a raw role/content pair.
// It runs once when history or inbound text enters the state; agents only
// ever see normalized messages. Unknown roles (including the "human"/"ai"
// spellings some stores use) are mapped, and anything unrecognized becomes a
// user message.
func NormalizeMessage(role string, content string) Message {
	content = strings.TrimSpace(content)
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "ai":
		return Message{Role: RoleAssistant, Content: content}
	case "system":
		return Message{Role: RoleSystem, Content: content}
	default:
		return Message{Role: RoleUser, Content: content}
	}
}

// LastMessage returns the trailing message, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if s == nil || len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserMessage returns the most recent user utterance.
func (s *ConversationState) LastUserMessage() (Message, bool) {
	if s == nil {
		return Message{}, false
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Tail returns at most the last n messages. The returned slice is a copy.
func (s *ConversationState) Tail(n int) []Message {
	if s == nil || n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	start := len(s.Messages) - n
	if start < 0 {
		start = 0
	}
	return append([]Message(nil), s.Messages[start:]...)
}

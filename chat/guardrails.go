package chat

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Retail-Assistant/agent/nodes"
)

const MaxMessageRunes = 2000

var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)credit\s*card`),
	regexp.MustCompile(`(?i)ssn|social\s*security`),
	regexp.MustCompile(`(?i)password`),
	regexp.MustCompile(`(?i)pin\s*number`),
}

// Guardrails rejects malformed or sensitive requests before the graph runs.
type Guardrails struct{}

func NewGuardrails() *Guardrails {
	return &Guardrails{}
}

func (g *Guardrails) Check(in nodex.TurnInput) error {
	n := utf8.RuneCountInString(in.Message)
	if n < 1 || n > MaxMessageRunes {
		return badRequest(contractx.ErrValidation, fmt.Sprintf("message must be 1-%d characters", MaxMessageRunes))
	}
	if in.UserID != "" {
		if _, err := uuid.Parse(in.UserID); err != nil {
			return badRequest(contractx.ErrValidation, "user_id must be a uuid")
		}
	}
	for _, p := range blockedPatterns {
		if p.MatchString(in.Message) {
			return badRequest(contractx.ErrContentBlocked, "Message contains sensitive information. Please do not share personal financial or security information.")
		}
	}
	return nil
}

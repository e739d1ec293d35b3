package chatnode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// ValidateRequest normalizes the input and runs the guardrail check before
// anything touches storage or the graph.
func ValidateRequest(
	in TurnInput,
	check func(TurnInput) error,
	policy Policy,
	nowFn func() time.Time,
) (*TurnState, error) {
	in.Message = strings.TrimSpace(in.Message)
	in.UserID = strings.TrimSpace(in.UserID)
	in.SessionID = strings.TrimSpace(in.SessionID)

	if in.Message == "" {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, ErrInvalidMessage)
	}

	channel, err := statex.ParseChannel(in.Channel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	in.Channel = string(channel)

	if check != nil {
		if err := check(in); err != nil {
			return nil, err
		}
	}

	return &TurnState{
		Input:   in,
		Channel: channel,
		Now:     nowFn().UTC(),
		Budget:  policy.For(channel),
	}, nil
}

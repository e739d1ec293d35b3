package chatnode

import (
	"time"

	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

const (
	defaultReplyChars = 500
	ellipsis          = "..."
)

// Budget bounds one graph run.
type Budget struct {
	MaxSteps int
	Timeout  time.Duration
	// MaxReplyChars truncates the reply when > 0.
	MaxReplyChars int
}

// Policy holds the per-channel budgets.
type Policy struct {
	Chat  Budget
	Voice Budget
}

func DefaultPolicy() Policy {
	return Policy{
		Chat:  Budget{MaxSteps: 25, Timeout: 30 * time.Second},
		Voice: Budget{MaxSteps: 15, Timeout: 10 * time.Second, MaxReplyChars: defaultReplyChars},
	}
}

func (p Policy) For(channel statex.Channel) Budget {
	if channel == statex.ChannelVoice {
		return p.Voice
	}
	return p.Chat
}

// truncateReply keeps at most n runes, ending with an ellipsis when cut.
func truncateReply(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	keep := n - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + ellipsis
}

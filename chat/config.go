package chat

import (
	"strings"
	"time"

	nodex "github.com/tanpawarit/Chative-Retail-Assistant/agent/nodes"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// Config is the request-pipeline part of the ASSISTANT_* block.
type Config struct {
	AllowedCategories  string        `envconfig:"ALLOWED_CATEGORIES" default:"fashion"`
	StoreName          string        `envconfig:"STORE_NAME" default:"Buyoh"`
	ChatTimeout        time.Duration `envconfig:"CHAT_TIMEOUT" default:"30s"`
	ChatMaxSteps       int           `envconfig:"CHAT_MAX_STEPS" default:"25"`
	VoiceTimeout       time.Duration `envconfig:"VOICE_TIMEOUT" default:"10s"`
	VoiceMaxSteps      int           `envconfig:"VOICE_MAX_STEPS" default:"15"`
	VoiceMaxReplyChars int           `envconfig:"VOICE_MAX_REPLY_CHARS" default:"500"`
	LockTTL            time.Duration `envconfig:"LOCK_TTL" default:"45s"`
}

// Categories parses the comma separated allow-list.
func (c Config) Categories() statex.Categories {
	return statex.NewCategories(strings.Split(c.AllowedCategories, ",")...)
}

func (c Config) Policy() nodex.Policy {
	p := nodex.DefaultPolicy()
	if c.ChatTimeout > 0 {
		p.Chat.Timeout = c.ChatTimeout
	}
	if c.ChatMaxSteps > 0 {
		p.Chat.MaxSteps = c.ChatMaxSteps
	}
	if c.VoiceTimeout > 0 {
		p.Voice.Timeout = c.VoiceTimeout
	}
	if c.VoiceMaxSteps > 0 {
		p.Voice.MaxSteps = c.VoiceMaxSteps
	}
	if c.VoiceMaxReplyChars > 0 {
		p.Voice.MaxReplyChars = c.VoiceMaxReplyChars
	}
	return p
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	nodex "github.com/tanpawarit/Chative-Retail-Assistant/agent/nodes"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

type (
	Request = nodex.TurnInput
	Reply   = nodex.TurnOutput
)

type Deps struct {
	Router        nodex.Runner
	Conversations conversation.Store
	Snapshots     statex.Store
	Carts         nodex.CartSource
	Locker        Locker
	Guardrails    *Guardrails
	Categories    statex.Categories
	Policy        nodex.Policy
}

// Service runs one utterance through validation, state loading, the
// conversation graph and persistence.
type Service struct {
	conversations conversation.Store
	snapshots     statex.Store
	carts         nodex.CartSource
	locker        Locker
	guardrails    *Guardrails
	categories    statex.Categories
	policy        nodex.Policy
	router        nodex.Runner

	graphRunner compose.Runnable[nodex.TurnInput, nodex.TurnOutput]

	now func() time.Time
}

func New(ctx context.Context, deps Deps) (*Service, error) {
	if deps.Router == nil {
		return nil, errors.New("conversation router is required")
	}
	if deps.Conversations == nil {
		return nil, errors.New("conversation store is required")
	}
	if deps.Snapshots == nil {
		deps.Snapshots = statex.NewMemoryStore()
	}
	if deps.Locker == nil {
		deps.Locker = NewKeyedMutex()
	}
	if deps.Guardrails == nil {
		deps.Guardrails = NewGuardrails()
	}
	if deps.Policy == (nodex.Policy{}) {
		deps.Policy = nodex.DefaultPolicy()
	}

	s := &Service{
		conversations: deps.Conversations,
		snapshots:     deps.Snapshots,
		carts:         deps.Carts,
		locker:        deps.Locker,
		guardrails:    deps.Guardrails,
		categories:    deps.Categories,
		policy:        deps.Policy,
		router:        deps.Router,
		now:           time.Now,
	}

	runner, err := s.compileHandleTurnGraph(ctx)
	if err != nil {
		return nil, err
	}
	s.graphRunner = runner
	return s, nil
}

// Handle answers one utterance. Requests that share a session (or a voice
// caller) are serialized.
func (s *Service) Handle(ctx context.Context, req Request) (Reply, error) {
	started := time.Now()
	ctx, span := obsx.StartSpan(ctx, "chat.handle",
		attribute.String("channel", req.Channel),
		attribute.String("session_id", req.SessionID),
	)

	if key := lockKey(req); key != "" {
		unlock, err := s.locker.Lock(ctx, key)
		if err != nil {
			err = fmt.Errorf("acquire conversation lock: %w", err)
			obsx.EndSpan(span, err)
			return Reply{}, Friendly(err)
		}
		defer unlock()
	}

	out, err := s.graphRunner.Invoke(ctx, req)
	obsx.EndSpan(span, err)
	if err != nil {
		fe := Friendly(err)
		log.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Str("channel", req.Channel).
			Int("status", fe.Status).
			Dur("duration", time.Since(started)).
			Msg("chat request failed")
		return Reply{}, fe
	}

	log.Info().
		Str("conversation_id", out.ConversationID).
		Str("active_worker", out.State.ActiveWorker).
		Dur("duration", time.Since(started)).
		Msg("chat request completed")
	return out, nil
}

// History returns the persisted log ordered by created_at.
func (s *Service) History(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	return s.conversations.Messages(ctx, conversationID)
}

func (s *Service) Categories() statex.Categories {
	return s.categories
}

func lockKey(req Request) string {
	channel, _ := statex.ParseChannel(req.Channel)
	switch {
	case strings.TrimSpace(req.SessionID) != "":
		return "session:" + strings.TrimSpace(req.SessionID)
	case strings.TrimSpace(req.UserID) != "" && channel == statex.ChannelVoice:
		return "voice:" + strings.TrimSpace(req.UserID)
	default:
		return ""
	}
}

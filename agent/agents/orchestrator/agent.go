package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Retail-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

const (
	contextWindow = 5

	defaultReply  = "I'll help you find what you're looking for."
	fallbackReply = "I'll help you with that. Let me connect you with our product specialist."
)

// DefaultDecision is used when the classifier output cannot be parsed.
func DefaultDecision() Decision {
	return Decision{
		Intent:    "browse",
		NextAgent: contractx.AgentRecommendation.String(),
		Response:  defaultReply,
	}
}

// Agent classifies the latest user utterance and picks the next node.
type Agent struct {
	runner     compose.Runnable[map[string]any, classification]
	categories statex.Categories
}

var _ contractx.Agent = (*Agent)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	classifyPrompt string,
	categories statex.Categories,
) (*Agent, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: orchestrator", contractx.ErrPromptMissing)
	}
	if !strings.Contains(classifyPrompt, "{"+userMessageKey+"}") {
		return nil, fmt.Errorf("%w: classify prompt needs {%s}", contractx.ErrPromptMissing, userMessageKey)
	}

	runner, err := compileClassifyGraph(ctx, chatModel, systemPrompt, classifyPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &Agent{runner: runner, categories: categories}, nil
}

func (a *Agent) Name() contractx.AgentName {
	return contractx.AgentOrchestrator
}

func (a *Agent) Run(ctx context.Context, st *statex.ConversationState) (statex.Delta, error) {
	if st == nil {
		return statex.Delta{}, statex.ErrNilState
	}
	turn := st.TurnCount + 1

	last, ok := st.LastMessage()
	if !ok || last.Role != statex.RoleUser {
		return statex.Delta{Next: statex.Ptr(contractx.RouteEnd), TurnCount: &turn}, nil
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		historyKey:     promptx.History(st.Tail(contextWindow)),
		userMessageKey: last.Content,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("agent", contractx.AgentOrchestrator.String()).
			Str("conversation_id", st.ConversationID).
			Msg("classification failed, falling back to recommendation")
		fallback := contractx.AgentRecommendation.String()
		return statex.Delta{
			Messages:     []statex.Message{statex.AssistantMessage(fallbackReply)},
			ActiveWorker: &fallback,
			Next:         &fallback,
			TurnCount:    &turn,
		}, nil
	}

	decision := out.Decision
	if out.ParseErr != nil {
		log.Warn().
			Err(out.ParseErr).
			Str("conversation_id", st.ConversationID).
			Msg("failed to parse routing decision, using defaults")
		decision = DefaultDecision()
	}

	delta := a.apply(st, decision)
	delta.TurnCount = &turn
	return delta, nil
}

func (a *Agent) apply(st *statex.ConversationState, d Decision) statex.Delta {
	var delta statex.Delta

	if d.Intent != "" {
		delta.Intent = statex.Ptr(d.Intent)
	}
	if d.Category != nil {
		if c, ok := a.categories.Sanitize(*d.Category); ok {
			delta.Category = &c
		} else {
			log.Warn().
				Str("category", *d.Category).
				Str("conversation_id", st.ConversationID).
				Msg("orchestrator received invalid category, filtering")
		}
	}

	switch name, known := contractx.ParseAgentName(d.NextAgent); {
	case d.NextAgent == "":
		delta.ActiveWorker = statex.Ptr(contractx.AgentRecommendation.String())
	case known:
		delta.ActiveWorker = statex.Ptr(name.String())
	}
	// Unknown targets are written as-is; routing coerces them.
	delta.Next = statex.Ptr(d.NextAgent)

	reply := d.Response
	if reply == "" {
		reply = defaultReply
	}
	delta.Messages = []statex.Message{statex.AssistantMessage(reply)}

	log.Info().
		Str("route", d.NextAgent).
		Str("intent", d.Intent).
		Str("conversation_id", st.ConversationID).
		Int("turn_count", st.TurnCount).
		Msg("orchestrator routed")
	return delta
}

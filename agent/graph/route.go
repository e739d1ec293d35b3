package graph

import (
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
)

// Route picks the node that runs after the orchestrator. It never fails: an
// unknown target is coerced back to the orchestrator.
func Route(st *statex.ConversationState) string {
	if st == nil {
		return compose.END
	}

	next := st.Next
	if next == "" {
		next = st.ActiveWorker
	}
	if next == "" {
		next = contractx.AgentOrchestrator.String()
	}

	if st.TurnCount >= contractx.MaxTurns {
		log.Warn().
			Int("turn_count", st.TurnCount).
			Str("conversation_id", st.ConversationID).
			Msg("turn count exceeded safe limit, ending conversation")
		return compose.END
	}

	if next == contractx.RouteEnd || next == compose.END {
		return compose.END
	}

	name, ok := contractx.ParseAgentName(next)
	if !ok {
		log.Warn().
			Str("route", next).
			Str("conversation_id", st.ConversationID).
			Msg("invalid next node, defaulting to orchestrator")
		obsx.RecordRouteCoercion(next)
		return contractx.AgentOrchestrator.String()
	}
	return name.String()
}

// Targets lists every node the orchestrator branch may lead to.
func Targets() []string {
	out := []string{contractx.AgentOrchestrator.String(), compose.END}
	for _, n := range contractx.SpecialistNames() {
		out = append(out, n.String())
	}
	return out
}

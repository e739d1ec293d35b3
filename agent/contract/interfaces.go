package contract

import (
	"context"
	"encoding/json"

	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// Agent runs one turn against the shared state and returns the partial
// update to fold back in. Agents never mutate st.
type Agent interface {
	Name() AgentName
	Run(ctx context.Context, st *statex.ConversationState) (statex.Delta, error)
}

type Registry interface {
	Orchestrator() Agent
	Specialist(name AgentName) (Agent, bool)
	Specialists() []Agent
}

// ToolGateway is the only path from the dialogue layer to commerce state.
// The result is the JSON document the tool produced.
type ToolGateway interface {
	Call(ctx context.Context, name ToolName, args map[string]any) (json.RawMessage, error)
}

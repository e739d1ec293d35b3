package specialist

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	orchestratorx "github.com/tanpawarit/Chative-Retail-Assistant/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Retail-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	toolx "github.com/tanpawarit/Chative-Retail-Assistant/agent/tool"
)

// ModelFactory builds the chat model for one agent. llm.Config.NewModel
// satisfies it.
type ModelFactory func(ctx context.Context, name contractx.AgentName) (einomodel.ToolCallingChatModel, error)

type Deps struct {
	Models     ModelFactory
	Prompts    promptx.PromptSet
	Catalog    *toolx.Catalog
	Gateway    contractx.ToolGateway
	Categories statex.Categories
}

type registryImpl struct {
	orchestrator contractx.Agent
	specialists  map[contractx.AgentName]contractx.Agent
	order        []contractx.AgentName
}

func (r *registryImpl) Orchestrator() contractx.Agent {
	return r.orchestrator
}

func (r *registryImpl) Specialist(name contractx.AgentName) (contractx.Agent, bool) {
	a, ok := r.specialists[name]
	return a, ok
}

func (r *registryImpl) Specialists() []contractx.Agent {
	out := make([]contractx.Agent, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.specialists[n])
	}
	return out
}

func NewRegistry(ctx context.Context, deps Deps) (contractx.Registry, error) {
	if deps.Models == nil {
		return nil, errors.New("model factory is required")
	}
	if err := deps.Prompts.Validate(); err != nil {
		return nil, err
	}

	orchestratorModel, err := deps.Models(ctx, contractx.AgentOrchestrator)
	if err != nil {
		return nil, fmt.Errorf("create orchestrator model: %w", err)
	}
	orchestrator, err := orchestratorx.New(ctx, orchestratorModel, deps.Prompts.Orchestrator, deps.Prompts.Classify, deps.Categories)
	if err != nil {
		return nil, err
	}

	r := &registryImpl{
		orchestrator: orchestrator,
		specialists:  make(map[contractx.AgentName]contractx.Agent, 6),
	}
	for _, b := range Bindings(deps.Prompts.Specialists) {
		m, err := deps.Models(ctx, b.Name)
		if err != nil {
			return nil, fmt.Errorf("create %s model: %w", b.Name, err)
		}
		agent, err := New(ctx, b, m, deps.Catalog, deps.Gateway)
		if err != nil {
			return nil, fmt.Errorf("create %s specialist: %w", b.Name, err)
		}
		r.specialists[b.Name] = agent
		r.order = append(r.order, b.Name)
	}
	return r, nil
}

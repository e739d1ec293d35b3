package chat

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Retail-Assistant/agent/nodes"
)

func (s *Service) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.TurnInput, nodex.TurnOutput], error) {
	graph := compose.NewGraph[nodex.TurnInput, nodex.TurnOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.TurnInput) (*nodex.TurnState, error) {
			return nodex.ValidateRequest(in, s.guardrails.Check, s.policy, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_conversation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.LoadOrCreateConversation(ctx, in, s.conversations)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_conversation: %w", err)
	}

	if err := graph.AddLambdaNode("hydrate_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.HydrateState(ctx, in, s.conversations, s.snapshots, s.carts, s.categories)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node hydrate_state: %w", err)
	}

	if err := graph.AddLambdaNode("run_router",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.RunRouter(ctx, in, s.router)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_router: %w", err)
	}

	if err := graph.AddLambdaNode("apply_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ApplyResult(in, s.categories)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_result: %w", err)
	}

	if err := graph.AddLambdaNode("validate_and_save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ValidateAndSaveState(ctx, in, s.conversations, s.snapshots)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_and_save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (nodex.TurnOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_conversation"},
		{"load_or_create_conversation", "hydrate_state"},
		{"hydrate_state", "run_router"},
		{"run_router", "apply_result"},
		{"apply_result", "validate_and_save_state"},
		{"validate_and_save_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("chat.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return runner, nil
}

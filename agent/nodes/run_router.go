package chatnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	graphx "github.com/tanpawarit/Chative-Retail-Assistant/agent/graph"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// Runner is the conversation graph as the pipeline sees it.
type Runner interface {
	Invoke(ctx context.Context, initial *statex.ConversationState, opts ...graphx.InvokeOption) (*statex.ConversationState, error)
}

func RunRouter(ctx context.Context, in *TurnState, router Runner) (*TurnState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph input is nil", contractx.ErrValidation)
	}

	out, err := router.Invoke(ctx, in.State,
		graphx.WithMaxSteps(in.Budget.MaxSteps),
		graphx.WithTimeout(in.Budget.Timeout),
	)
	if err != nil {
		return nil, err
	}
	in.Result = out
	return in, nil
}

package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultMaxSteps = 25
	DefaultTimeout  = 30 * time.Second

	// compileMaxSteps bounds the eino run even if the per-request budget is
	// misconfigured.
	compileMaxSteps = 200
)

// runState is the per-invocation eino local state.
type runState struct {
	maxSteps int
	steps    int
	exceeded bool
	path     []string
}

type runStateKey struct{}

// Router runs one request through the conversation graph.
type Router struct {
	runner     compose.Runnable[*statex.ConversationState, *statex.ConversationState]
	categories statex.Categories
	maxSteps   int
	timeout    time.Duration
}

type Option func(*Router)

// WithCategories enables category containment after every node.
func WithCategories(c statex.Categories) Option {
	return func(r *Router) {
		r.categories = c
	}
}

// WithBudget sets the default step and time budget per request.
func WithBudget(maxSteps int, timeout time.Duration) Option {
	return func(r *Router) {
		if maxSteps > 0 {
			r.maxSteps = maxSteps
		}
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

type invokeConfig struct {
	maxSteps int
	timeout  time.Duration
}

type InvokeOption func(*invokeConfig)

func WithMaxSteps(n int) InvokeOption {
	return func(c *invokeConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

func WithTimeout(d time.Duration) InvokeOption {
	return func(c *invokeConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(ctx context.Context, registry contractx.Registry, opts ...Option) (*Router, error) {
	if registry == nil {
		return nil, errors.New("agent registry is required")
	}
	if registry.Orchestrator() == nil {
		return nil, errors.New("orchestrator agent is required")
	}

	r := &Router{maxSteps: DefaultMaxSteps, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}

	runner, err := r.compile(ctx, registry)
	if err != nil {
		return nil, err
	}
	r.runner = runner
	return r, nil
}

// Invoke runs the graph from the orchestrator until it routes to END. The
// caller's state is not modified.
func (r *Router) Invoke(ctx context.Context, initial *statex.ConversationState, opts ...InvokeOption) (*statex.ConversationState, error) {
	if initial == nil {
		return nil, statex.ErrNilState
	}
	cfg := invokeConfig{maxSteps: r.maxSteps, timeout: r.timeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	rs := &runState{maxSteps: cfg.maxSteps}
	ctx = context.WithValue(ctx, runStateKey{}, rs)

	started := time.Now()
	out, err := r.runner.Invoke(ctx, initial.Clone())
	elapsed := int(time.Since(started).Milliseconds())

	switch {
	case rs.exceeded:
		err = fmt.Errorf("%w: %d node executions exceeded budget %d", contractx.ErrRecursionLimit, rs.steps, rs.maxSteps)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w: after %s", contractx.ErrExecutionTimeout, cfg.timeout)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	obsx.RecordConversationRun(string(initial.Channel), status, rs.steps, elapsed)

	if err != nil {
		log.Error().
			Err(err).
			Str("conversation_id", initial.ConversationID).
			Strs("path", rs.path).
			Msg("conversation graph failed")
		return nil, err
	}
	log.Debug().
		Str("conversation_id", initial.ConversationID).
		Strs("path", rs.path).
		Int("turn_count", out.TurnCount).
		Msg("conversation graph finished")
	return out, nil
}

func (r *Router) compile(
	ctx context.Context,
	registry contractx.Registry,
) (compose.Runnable[*statex.ConversationState, *statex.ConversationState], error) {
	graph := compose.NewGraph[*statex.ConversationState, *statex.ConversationState](
		compose.WithGenLocalState(func(ctx context.Context) *runState {
			if rs, ok := ctx.Value(runStateKey{}).(*runState); ok {
				return rs
			}
			return &runState{maxSteps: r.maxSteps}
		}),
	)

	orchestrator := registry.Orchestrator()
	if err := graph.AddLambdaNode(orchestrator.Name().String(), r.node(orchestrator)); err != nil {
		return nil, fmt.Errorf("add node %s: %w", orchestrator.Name(), err)
	}

	specialists := registry.Specialists()
	if len(specialists) != len(contractx.SpecialistNames()) {
		return nil, fmt.Errorf("%w: expected %d specialists, got %d", contractx.ErrValidation, len(contractx.SpecialistNames()), len(specialists))
	}
	for _, s := range specialists {
		if err := graph.AddLambdaNode(s.Name().String(), r.node(s)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", s.Name(), err)
		}
	}

	if err := graph.AddEdge(compose.START, orchestrator.Name().String()); err != nil {
		return nil, fmt.Errorf("add edge start->%s: %w", orchestrator.Name(), err)
	}

	targets := make(map[string]bool)
	for _, t := range Targets() {
		targets[t] = true
	}
	branch := compose.NewGraphBranch(
		func(ctx context.Context, st *statex.ConversationState) (string, error) {
			return Route(st), nil
		},
		targets,
	)
	if err := graph.AddBranch(orchestrator.Name().String(), branch); err != nil {
		return nil, fmt.Errorf("add orchestrator branch: %w", err)
	}

	for _, s := range specialists {
		if err := graph.AddEdge(s.Name().String(), orchestrator.Name().String()); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", s.Name(), orchestrator.Name(), err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("conversation.router"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(compileMaxSteps),
	)
	if err != nil {
		return nil, fmt.Errorf("compile conversation graph: %w", err)
	}
	return runner, nil
}

// node wraps an agent: budget check, run, merge, containment, telemetry.
func (r *Router) node(agent contractx.Agent) *compose.Lambda {
	name := agent.Name().String()
	return compose.InvokableLambda(func(ctx context.Context, st *statex.ConversationState) (*statex.ConversationState, error) {
		if st == nil {
			return nil, statex.ErrNilState
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, rs *runState) error {
			rs.steps++
			rs.path = append(rs.path, name)
			if rs.maxSteps > 0 && rs.steps > rs.maxSteps {
				rs.exceeded = true
				return fmt.Errorf("%w: node=%s step=%d", contractx.ErrRecursionLimit, name, rs.steps)
			}
			return nil
		}); err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: before node=%s: %v", contractx.ErrExecutionTimeout, name, err)
		}

		ctx, span := obsx.StartSpan(ctx, "agent."+name,
			attribute.String("agent", name),
			attribute.String("conversation_id", st.ConversationID),
			attribute.Int("turn_count", st.TurnCount),
		)
		started := time.Now()
		before := st.TurnCount
		priorCategory := st.Category

		delta, err := agent.Run(ctx, st)
		if err == nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: node=%s: %v", contractx.ErrExecutionTimeout, name, ctx.Err())
		}

		status := "ok"
		if err != nil {
			status = "error"
		}
		obsx.RecordAgentExecution(name, status, int(time.Since(started).Milliseconds()))
		obsx.EndSpan(span, err)
		if err != nil {
			return nil, err
		}

		if delta.TurnCount == nil || *delta.TurnCount != before+1 {
			log.Warn().
				Str("agent", name).
				Int("turn_count", before).
				Msg("agent did not advance the turn by one, correcting")
		}
		statex.Merge(st, delta)
		st.TurnCount = before + 1

		if st.Category != "" && !r.categories.Empty() && !r.categories.Allows(st.Category) {
			log.Warn().
				Str("agent", name).
				Str("category", st.Category).
				Msg("dropping category outside the allow-list")
			st.Category = priorCategory
		}
		return st, nil
	})
}

package specialist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Retail-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	toolx "github.com/tanpawarit/Chative-Retail-Assistant/agent/tool"
)

const defaultWindow = 8

// Binding configures the shared specialist skeleton for one domain.
type Binding struct {
	Name    contractx.AgentName
	Tools   []contractx.ToolName
	Prompt  string
	Window  int
	Apology string

	// Inject returns auxiliary context placed between the history window and
	// the focal query.
	Inject func(st *statex.ConversationState) []*schema.Message
	// Extract turns tool results into state updates. Fields it leaves nil keep
	// their prior value.
	Extract func(st *statex.ConversationState, results []contractx.ToolResult) statex.Delta
}

// Agent is a domain specialist. It may call only the tools in its binding and
// always hands control back to the orchestrator.
type Agent struct {
	binding     Binding
	toolRunner  compose.Runnable[map[string]any, *schema.Message]
	replyRunner compose.Runnable[map[string]any, *schema.Message]
	execute     toolx.Executor
}

var _ contractx.Agent = (*Agent)(nil)

func New(
	ctx context.Context,
	binding Binding,
	chatModel einomodel.ToolCallingChatModel,
	catalog *toolx.Catalog,
	gateway contractx.ToolGateway,
) (*Agent, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if gateway == nil {
		return nil, errors.New("tool gateway is required")
	}
	if strings.TrimSpace(binding.Prompt) == "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, binding.Name)
	}
	if strings.TrimSpace(binding.Apology) == "" {
		return nil, fmt.Errorf("%w: apology is required for agent=%s", contractx.ErrValidation, binding.Name)
	}
	if binding.Window <= 0 {
		binding.Window = defaultWindow
	}

	infos, err := catalog.InfosFor(binding.Tools...)
	if err != nil {
		return nil, err
	}
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, binding.Name, err)
	}

	toolRunner, err := compileTurnGraph(ctx, toolModel, binding.Prompt, "specialist."+binding.Name.String()+".tools")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	replyRunner, err := compileTurnGraph(ctx, chatModel, binding.Prompt, "specialist."+binding.Name.String()+".reply")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &Agent{
		binding:     binding,
		toolRunner:  toolRunner,
		replyRunner: replyRunner,
		execute:     catalog.NewExecutor(gateway, binding.Tools...),
	}, nil
}

func (a *Agent) Name() contractx.AgentName {
	return a.binding.Name
}

// Run never returns an error for model or tool failures; those produce the
// binding's apology and a hand-back to the orchestrator.
func (a *Agent) Run(ctx context.Context, st *statex.ConversationState) (statex.Delta, error) {
	if st == nil {
		return statex.Delta{}, statex.ErrNilState
	}
	next := contractx.AgentOrchestrator.String()
	turn := st.TurnCount + 1

	if len(st.Messages) == 0 {
		return statex.Delta{Next: &next, TurnCount: &turn}, nil
	}

	reply, results, err := a.respond(ctx, st)
	if err != nil {
		log.Error().
			Err(err).
			Str("agent", a.binding.Name.String()).
			Str("conversation_id", st.ConversationID).
			Int("turn_count", st.TurnCount).
			Msg("specialist turn failed")
		return statex.Delta{
			Messages:  []statex.Message{statex.AssistantMessage(a.binding.Apology)},
			Next:      &next,
			TurnCount: &turn,
		}, nil
	}

	var delta statex.Delta
	if a.binding.Extract != nil {
		delta = a.binding.Extract(st, results)
	}
	delta.Messages = []statex.Message{statex.AssistantMessage(reply)}
	delta.ActiveWorker = statex.Ptr(a.binding.Name.String())
	delta.Next = &next
	delta.TurnCount = &turn
	return delta, nil
}

func (a *Agent) respond(ctx context.Context, st *statex.ConversationState) (string, []contractx.ToolResult, error) {
	query := ""
	if m, ok := st.LastUserMessage(); ok {
		query = m.Content
	}

	history := promptx.History(st.Tail(a.binding.Window))
	if a.binding.Inject != nil {
		history = append(history, a.binding.Inject(st)...)
	}

	first, err := a.toolRunner.Invoke(ctx, turnInput(history, query))
	if err != nil {
		return "", nil, fmt.Errorf("%w: agent=%s: %v", contractx.ErrModelInvoke, a.binding.Name, err)
	}
	if first == nil {
		return "", nil, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrSchemaViolation, a.binding.Name)
	}

	results := a.runTools(ctx, st, first.ToolCalls)

	reply := strings.TrimSpace(first.Content)
	if anyOK(results) {
		followUp := history
		if reply != "" {
			followUp = append(append([]*schema.Message(nil), history...), schema.AssistantMessage(reply, nil))
		}
		second, err := a.replyRunner.Invoke(ctx, turnInput(followUp, toolResultsPrompt(results)))
		if err != nil {
			return "", results, fmt.Errorf("%w: agent=%s follow-up: %v", contractx.ErrModelInvoke, a.binding.Name, err)
		}
		reply = ""
		if second != nil {
			reply = strings.TrimSpace(second.Content)
		}
	}

	if reply == "" {
		return "", results, fmt.Errorf("%w: agent=%s produced an empty reply", contractx.ErrSchemaViolation, a.binding.Name)
	}
	return reply, results, nil
}

// runTools executes requested calls one at a time, in order. A failed call
// is logged and yields no data; it never aborts the turn.
func (a *Agent) runTools(ctx context.Context, st *statex.ConversationState, calls []schema.ToolCall) []contractx.ToolResult {
	if len(calls) == 0 {
		return nil
	}
	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		res := a.runTool(ctx, call)
		if !res.OK() {
			log.Warn().
				Str("agent", a.binding.Name.String()).
				Str("tool", call.Function.Name).
				Str("conversation_id", st.ConversationID).
				Str("error", res.Error).
				Msg("tool call yielded no data")
		}
		results = append(results, res)
	}
	return results
}

func (a *Agent) runTool(ctx context.Context, call schema.ToolCall) contractx.ToolResult {
	name, err := contractx.ParseToolName(call.Function.Name)
	if err != nil {
		return contractx.ToolResult{Tool: contractx.ToolName(call.Function.Name), Error: err.Error()}
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return contractx.ToolResult{Tool: name, Error: fmt.Sprintf("invalid tool arguments: %v", err)}
		}
	}
	return a.execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
}

/* ---------------------------------- helpers --------------------------------- */

func anyOK(results []contractx.ToolResult) bool {
	for _, r := range results {
		if r.OK() {
			return true
		}
	}
	return false
}

func toolResultsPrompt(results []contractx.ToolResult) string {
	var b strings.Builder
	b.WriteString("Tool results:\n")
	for _, r := range results {
		if !r.OK() {
			continue
		}
		b.WriteString(r.Tool.String())
		b.WriteString(": ")
		b.Write(r.Result)
		b.WriteString("\n")
	}
	b.WriteString("\nNow provide a helpful response to the user based on these results.")
	return b.String()
}

// lastResult returns the data of the most recent successful call to tool.
func lastResult(results []contractx.ToolResult, tool contractx.ToolName) (json.RawMessage, bool) {
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Tool == tool && results[i].OK() {
			return results[i].Result, true
		}
	}
	return nil, false
}

func decodeResult[T any](results []contractx.ToolResult, tool contractx.ToolName) (T, bool) {
	var out T
	raw, ok := lastResult(results, tool)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn().Err(err).Str("tool", tool.String()).Msg("decode tool result")
		return out, false
	}
	return out, true
}

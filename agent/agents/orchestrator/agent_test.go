package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Retail-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestAgent(t *testing.T, fake *fakeToolCallingModel) *Agent {
	t.Helper()
	prompts := promptx.LoadPromptSet(promptx.Vars{Categories: []string{"fashion"}})
	a, err := New(context.Background(), fake, prompts.Orchestrator, prompts.Classify, statex.NewCategories("fashion"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func userState(turn int, msgs ...statex.Message) *statex.ConversationState {
	st := statex.New(statex.ChannelChat)
	st.ConversationID = "conv-1"
	st.TurnCount = turn
	st.Messages = append(st.Messages, msgs...)
	return st
}

func TestRunRoutesToSpecialist(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "Sure!\n```json\n{\"intent\":\"browse\",\"category\":\"Fashion\",\"next_agent\":\"recommendation\",\"response\":\"Let me find some jackets.\"}\n```"},
		},
	}
	a := newTestAgent(t, fake)

	delta, err := a.Run(context.Background(), userState(0, statex.UserMessage("show me jackets")))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if delta.Next == nil || *delta.Next != "recommendation" {
		t.Fatalf("unexpected next: %v", delta.Next)
	}
	if delta.ActiveWorker == nil || *delta.ActiveWorker != "recommendation" {
		t.Fatalf("unexpected active worker: %v", delta.ActiveWorker)
	}
	if delta.Category == nil || *delta.Category != "fashion" {
		t.Fatalf("expected canonical category, got %v", delta.Category)
	}
	if delta.Intent == nil || *delta.Intent != "browse" {
		t.Fatalf("unexpected intent: %v", delta.Intent)
	}
	if len(delta.Messages) != 1 || delta.Messages[0].Content != "Let me find some jackets." {
		t.Fatalf("expected exactly one assistant message, got %#v", delta.Messages)
	}
	if delta.TurnCount == nil || *delta.TurnCount != 1 {
		t.Fatalf("unexpected turn count: %v", delta.TurnCount)
	}

	input := fake.inputs[0]
	if input[0].Role != schema.System {
		t.Fatalf("first message must be the system prompt, got %s", input[0].Role)
	}
	if got := input[len(input)-1].Content; !containsAll(got, "show me jackets", `"next_agent"`) {
		t.Fatalf("classification instruction not rendered: %q", got)
	}
}

func TestRunFiltersDisallowedCategory(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"intent":"browse","category":"electronics","next_agent":"recommendation","response":"Looking."}`},
		},
	}
	a := newTestAgent(t, fake)

	st := userState(0, statex.UserMessage("laptops please"))
	st.Category = "fashion"

	delta, err := a.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if delta.Category != nil {
		t.Fatalf("disallowed category must be left undefined, got %q", *delta.Category)
	}

	statex.Merge(st, delta)
	if st.Category != "fashion" {
		t.Fatalf("prior category must survive, got %q", st.Category)
	}
}

func TestRunParseFailureUsesDefaults(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "I think you want recommendations."},
		},
	}
	a := newTestAgent(t, fake)

	delta, err := a.Run(context.Background(), userState(3, statex.UserMessage("hmm")))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if *delta.Next != "recommendation" || *delta.Intent != "browse" {
		t.Fatalf("unexpected default decision: next=%v intent=%v", *delta.Next, *delta.Intent)
	}
	if delta.Category != nil {
		t.Fatal("default decision must not set a category")
	}
	if delta.Messages[0].Content != "I'll help you find what you're looking for." {
		t.Fatalf("unexpected reply: %q", delta.Messages[0].Content)
	}
	if *delta.TurnCount != 4 {
		t.Fatalf("turn count = %d, want 4", *delta.TurnCount)
	}
}

func TestRunModelErrorFallsBack(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("provider down")}
	a := newTestAgent(t, fake)

	delta, err := a.Run(context.Background(), userState(0, statex.UserMessage("hello")))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if *delta.Next != "recommendation" || *delta.ActiveWorker != "recommendation" {
		t.Fatalf("unexpected fallback routing: %v %v", *delta.Next, *delta.ActiveWorker)
	}
	if delta.Messages[0].Content != "I'll help you with that. Let me connect you with our product specialist." {
		t.Fatalf("unexpected fallback reply: %q", delta.Messages[0].Content)
	}
}

func TestRunTrailingAssistantEnds(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}
	a := newTestAgent(t, fake)

	st := userState(2, statex.UserMessage("hi"), statex.AssistantMessage("hello!"))
	delta, err := a.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if delta.Next == nil || *delta.Next != contractx.RouteEnd {
		t.Fatalf("expected end, got %v", delta.Next)
	}
	if len(delta.Messages) != 0 {
		t.Fatal("no message expected when ending")
	}
	if len(fake.inputs) != 0 {
		t.Fatal("model must not be called for a non-user trailing message")
	}
	if *delta.TurnCount != 3 {
		t.Fatalf("turn count = %d, want 3", *delta.TurnCount)
	}
}

func TestRunUnknownAgentIsWrittenForRouterCoercion(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"intent":"other","category":null,"next_agent":"billing","response":"One moment."}`},
		},
	}
	a := newTestAgent(t, fake)

	delta, err := a.Run(context.Background(), userState(0, statex.UserMessage("invoice?")))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if *delta.Next != "billing" {
		t.Fatalf("next = %q, want billing", *delta.Next)
	}
	if delta.ActiveWorker != nil {
		t.Fatalf("unknown target must not become the active worker, got %q", *delta.ActiveWorker)
	}
}

func TestParseDecisionRepairsJSON(t *testing.T) {
	t.Parallel()

	d, err := ParseDecision(`{"intent": "pay", "category": null, "next_agent": "payment", "response": "Let's check out",}`)
	if err != nil {
		t.Fatalf("ParseDecision() error = %v", err)
	}
	if d.NextAgent != "payment" || d.Intent != "pay" {
		t.Fatalf("unexpected decision: %+v", d)
	}

	if _, err := ParseDecision("no json here"); !errors.Is(err, contractx.ErrClassificationParse) {
		t.Fatalf("expected ErrClassificationParse, got %v", err)
	}
}

func TestParseDecisionNullCategoryString(t *testing.T) {
	t.Parallel()

	d, err := ParseDecision(`{"intent":"browse","category":"null","next_agent":"end","response":"Bye"}`)
	if err != nil {
		t.Fatalf("ParseDecision() error = %v", err)
	}
	if d.Category != nil {
		t.Fatalf("category = %q, want nil", *d.Category)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

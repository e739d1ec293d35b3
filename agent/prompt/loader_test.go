package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

func TestLoadPromptSetRendersVars(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet(Vars{StoreName: "Acme", Categories: []string{"fashion", " shoes "}})
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.Contains(set.Orchestrator, "Acme") || !strings.Contains(set.Orchestrator, "fashion, shoes") {
		t.Fatalf("orchestrator prompt not rendered: %q", set.Orchestrator[:80])
	}

	all := []string{set.Orchestrator, set.Classify}
	for _, name := range contractx.SpecialistNames() {
		p, err := set.Specialist(name)
		if err != nil {
			t.Fatalf("Specialist(%s) error = %v", name, err)
		}
		all = append(all, p)
	}
	for _, p := range all {
		if strings.Contains(p, "${") {
			t.Fatalf("unrendered placeholder in %q", p)
		}
	}
}

func TestSystemPromptsHaveNoTemplateBraces(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet(Vars{Categories: []string{"fashion"}})
	prompts := []string{set.Orchestrator}
	for _, name := range contractx.SpecialistNames() {
		p, _ := set.Specialist(name)
		prompts = append(prompts, p)
	}
	for _, p := range prompts {
		if strings.ContainsAny(p, "{}") {
			t.Fatalf("system prompt contains braces: %q", p)
		}
	}
}

func TestClassifyKeepsPlaceholder(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet(Vars{})
	if !strings.Contains(set.Classify, "{user_message}") {
		t.Fatal("classify prompt lost its user_message placeholder")
	}
	if !strings.Contains(set.Classify, "{{") {
		t.Fatal("classify prompt must escape its JSON braces")
	}
	if !strings.Contains(set.Orchestrator, DefaultStoreName) {
		t.Fatal("default store name not applied")
	}
}

func TestConfiguredValuesSurviveTemplateFormatting(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet(Vars{StoreName: "Shop {x}", Categories: []string{"kids}", "{home"}})
	specialist, err := set.Specialist(contractx.AgentRecommendation)
	if err != nil {
		t.Fatalf("Specialist() error = %v", err)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(set.Orchestrator),
		schema.SystemMessage(specialist),
		schema.UserMessage(set.Classify),
	)
	msgs, err := template.Format(context.Background(), map[string]any{"user_message": "red jacket"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(msgs[0].Content, "Shop {x}") || !strings.Contains(msgs[0].Content, "kids}, {home") {
		t.Fatalf("orchestrator prompt lost configured values: %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[1].Content, "Recommendation Agent for Shop {x}") {
		t.Fatalf("specialist prompt lost store name: %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[2].Content, `"red jacket"`) || !strings.Contains(msgs[2].Content, "one of: kids}, {home, or null") {
		t.Fatalf("classify prompt not rendered: %q", msgs[2].Content)
	}
}

func TestSpecialistMissing(t *testing.T) {
	t.Parallel()

	set := PromptSet{Orchestrator: "o", Classify: "c"}
	if err := set.Validate(); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("Validate() error = %v, want ErrPromptMissing", err)
	}
}

func TestHistoryMapsRoles(t *testing.T) {
	t.Parallel()

	msgs := History([]statex.Message{
		statex.UserMessage("hi"),
		statex.AssistantMessage("hello"),
		{Role: statex.RoleSystem, Content: "note"},
	})
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].Role != schema.User || msgs[1].Role != schema.Assistant || msgs[2].Role != schema.System {
		t.Fatalf("unexpected roles: %s %s %s", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}
	if msgs[1].Content != "hello" {
		t.Fatalf("content = %q", msgs[1].Content)
	}
}

package contract

import (
	"errors"
	"testing"
)

func TestParseToolNameClosedSet(t *testing.T) {
	t.Parallel()

	for _, name := range ToolNames() {
		got, err := ParseToolName(" " + string(name) + " ")
		if err != nil {
			t.Fatalf("ParseToolName(%s) error = %v", name, err)
		}
		if got != name {
			t.Fatalf("ParseToolName(%s) = %s", name, got)
		}
	}

	_, err := ParseToolName("db_dropTables")
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if !errors.Is(err, ErrToolCall) {
		t.Fatalf("unknown tool must also be a tool call error, got %v", err)
	}
	var te *ToolError
	if !errors.As(err, &te) || te.Tool != "db_dropTables" {
		t.Fatalf("expected *ToolError naming the tool, got %#v", err)
	}
}

func TestParseAgentName(t *testing.T) {
	t.Parallel()

	if _, ok := ParseAgentName("orchestrator"); !ok {
		t.Fatal("orchestrator must be a known node")
	}
	for _, n := range SpecialistNames() {
		if _, ok := ParseAgentName(string(n)); !ok {
			t.Fatalf("%s must be a known node", n)
		}
	}
	for _, v := range []string{"", "end", "sales", "Recommendation"} {
		if _, ok := ParseAgentName(v); ok {
			t.Fatalf("ParseAgentName(%q) must fail", v)
		}
	}
}

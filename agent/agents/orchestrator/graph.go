package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
)

const (
	historyKey     = "history"
	userMessageKey = "user_message"
)

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// Decision is the classifier's routing verdict.
type Decision struct {
	Intent    string  `json:"intent"`
	Category  *string `json:"category"`
	NextAgent string  `json:"next_agent"`
	Response  string  `json:"response"`
}

// classification carries the decision plus the parse failure, if any. A
// parse failure is not a graph error; the agent falls back to defaults.
type classification struct {
	Decision Decision
	ParseErr error
}

func compileClassifyGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	classifyPrompt string,
) (compose.Runnable[map[string]any, classification], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder(historyKey, true),
		schema.UserMessage(classifyPrompt),
	)

	graph := compose.NewGraph[map[string]any, classification]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add classify prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add classify model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_decision",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (classification, error) {
			if msg == nil {
				return classification{ParseErr: fmt.Errorf("%w: empty classifier message", contractx.ErrClassificationParse)}, nil
			}
			d, err := ParseDecision(msg.Content)
			return classification{Decision: d, ParseErr: err}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add classify parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_decision"},
		{"parse_decision", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add classify edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.classify"))
	if err != nil {
		return nil, fmt.Errorf("compile classify graph: %w", err)
	}
	return runner, nil
}

// ParseDecision extracts the first JSON object from content. Malformed JSON
// gets one repair attempt before giving up.
func ParseDecision(content string) (Decision, error) {
	var d Decision
	raw := jsonObjectPattern.FindString(content)
	if raw == "" {
		return d, fmt.Errorf("%w: no JSON object in response", contractx.ErrClassificationParse)
	}

	err := json.Unmarshal([]byte(raw), &d)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return Decision{}, fmt.Errorf("%w: repair: %v", contractx.ErrClassificationParse, repairErr)
		}
		d = Decision{}
		err = json.Unmarshal([]byte(repaired), &d)
	}
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", contractx.ErrClassificationParse, err)
	}

	d.Intent = strings.TrimSpace(d.Intent)
	d.NextAgent = strings.TrimSpace(d.NextAgent)
	d.Response = strings.TrimSpace(d.Response)
	if d.Category != nil {
		c := strings.TrimSpace(*d.Category)
		if c == "" || strings.EqualFold(c, "null") {
			d.Category = nil
		} else {
			d.Category = &c
		}
	}
	return d, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	geminix "github.com/tanpawarit/Chative-Retail-Assistant/pkg/gemini"
	openrouterx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/openrouter"
)

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGoogle     Provider = "google"
)

const defaultGoogleModel = "gemini-2.5-flash"

type Config struct {
	Provider           Provider      `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	GoogleAPIKey       string        `envconfig:"GOOGLE_API_KEY" split_words:"true"`
	GoogleBaseURL      string        `envconfig:"GOOGLE_BASE_URL" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	OrchestratorModel       string  `envconfig:"ORCHESTRATOR_MODEL" split_words:"true"`
	SpecialistModel         string  `envconfig:"SPECIALIST_MODEL" split_words:"true"`
	OrchestratorTemperature float32 `envconfig:"ORCHESTRATOR_TEMPERATURE" split_words:"true" default:"0.3"`
	SpecialistTemperature   float32 `envconfig:"SPECIALIST_TEMPERATURE" split_words:"true" default:"-1"`
}

// Validate fails fast when the selected provider has no credentials or an
// agent would be built without a model name.
func (c Config) Validate() error {
	switch c.provider() {
	case ProviderOpenRouter:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: LLM_API_KEY is required for provider %s", contractx.ErrProviderUnavailable, ProviderOpenRouter)
		}
	case ProviderGoogle:
		if strings.TrimSpace(c.GoogleAPIKey) == "" {
			return fmt.Errorf("%w: LLM_GOOGLE_API_KEY is required for provider %s", contractx.ErrProviderUnavailable, ProviderGoogle)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", contractx.ErrProviderUnavailable, c.Provider)
	}
	agents := append([]contractx.AgentName{contractx.AgentOrchestrator}, contractx.SpecialistNames()...)
	for _, name := range agents {
		if c.SettingsFor(name).Model == "" {
			return fmt.Errorf("%w: no model resolved for agent %s (set LLM_MODEL or a per-agent model)", contractx.ErrValidation, name)
		}
	}
	return nil
}

// Settings is the resolved model name and temperature for one agent.
type Settings struct {
	Model       string
	Temperature float32
}

func (c Config) SettingsFor(name contractx.AgentName) Settings {
	modelName := strings.TrimSpace(c.Model)
	if modelName == "" && c.provider() == ProviderGoogle {
		modelName = defaultGoogleModel
	}
	temp := c.Temperature

	if name == contractx.AgentOrchestrator {
		if v := strings.TrimSpace(c.OrchestratorModel); v != "" {
			modelName = v
		}
		if c.OrchestratorTemperature >= 0 {
			temp = c.OrchestratorTemperature
		}
	} else {
		if v := strings.TrimSpace(c.SpecialistModel); v != "" {
			modelName = v
		}
		if c.SpecialistTemperature >= 0 {
			temp = c.SpecialistTemperature
		}
	}

	return Settings{Model: modelName, Temperature: temp}
}

func (c Config) OpenRouterFor(name contractx.AgentName) openrouterx.Config {
	s := c.SettingsFor(name)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              s.Model,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        s.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func (c Config) GeminiFor(name contractx.AgentName) geminix.Config {
	s := c.SettingsFor(name)
	return geminix.Config{
		APIKey:      strings.TrimSpace(c.GoogleAPIKey),
		BaseURL:     strings.TrimSpace(c.GoogleBaseURL),
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   c.MaxCompletionToken,
	}
}

// Builder resolves the per-agent model config into a chat model builder.
func (c Config) Builder(name contractx.AgentName) openrouterx.LLMBuilder {
	if c.provider() == ProviderGoogle {
		conf := c.GeminiFor(name)
		return &conf
	}
	conf := c.OpenRouterFor(name)
	return &conf
}

// NewModel builds the chat model for one agent.
func (c Config) NewModel(ctx context.Context, name contractx.AgentName) (model.ToolCallingChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m, err := c.Builder(name).New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contractx.ErrProviderUnavailable, name, err)
	}
	return m, nil
}

// Probe verifies the credentials against the provider. Only the
// OpenAI-compatible endpoint exposes a cheap listing call.
func (c Config) Probe(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.provider() != ProviderOpenRouter {
		return nil
	}
	if err := openrouterx.Probe(ctx, c.OpenRouterFor(contractx.AgentOrchestrator)); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrProviderUnavailable, err)
	}
	return nil
}

func (c Config) provider() Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

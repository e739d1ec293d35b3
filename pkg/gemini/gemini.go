package gemini

import (
	"context"
	"fmt"
	"strings"

	geminimodel "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

type Config struct {
	APIKey      string  `envconfig:"API_KEY" split_words:"true"`
	BaseURL     string  `envconfig:"BASE_URL" split_words:"true"`
	Model       string  `envconfig:"MODEL" split_words:"true" default:"gemini-2.5-flash"`
	Temperature float32 `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" split_words:"true" default:"1000"`
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is empty")
	}

	clientConf := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		clientConf.HTTPOptions.BaseURL = base
	}

	client, err := genai.NewClient(ctx, clientConf)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	temperature := c.Temperature
	maxTokens := c.MaxTokens

	m, err := geminimodel.NewChatModel(ctx, &geminimodel.Config{
		Client:      client,
		Model:       strings.TrimSpace(c.Model),
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat model: %w", err)
	}

	return m, nil
}

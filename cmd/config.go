package cmd

import (
	"fmt"
	"strings"

	llmx "github.com/tanpawarit/Chative-Retail-Assistant/agent/llm"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	chatx "github.com/tanpawarit/Chative-Retail-Assistant/chat"
	configx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/config"
	logx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/logger"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
	postgresx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/postgres"
	redisx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/redis"
)

const (
	TransportInProcess = "inprocess"
	TransportMCP       = "mcp"

	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendUpstash  = "upstash"
	BackendPostgres = "postgres"
)

// AppConfig is the ASSISTANT_* block.
type AppConfig struct {
	chatx.Config

	Port              int    `envconfig:"PORT" default:"3001"`
	ToolTransport     string `envconfig:"TOOL_TRANSPORT" default:"inprocess"`
	ToolServerCommand string `envconfig:"TOOL_SERVER_COMMAND"`
	StateStore        string `envconfig:"STATE_STORE" default:"memory"`
	Locker            string `envconfig:"LOCKER" default:"memory"`
	Store             string `envconfig:"STORE" default:"memory"`
}

func (c *AppConfig) Validate() error {
	c.ToolTransport = strings.ToLower(strings.TrimSpace(c.ToolTransport))
	c.StateStore = strings.ToLower(strings.TrimSpace(c.StateStore))
	c.Locker = strings.ToLower(strings.TrimSpace(c.Locker))
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))

	checks := []struct {
		field string
		value string
		allow []string
	}{
		{"TOOL_TRANSPORT", c.ToolTransport, []string{TransportInProcess, TransportMCP}},
		{"STATE_STORE", c.StateStore, []string{BackendMemory, BackendRedis, BackendUpstash}},
		{"LOCKER", c.Locker, []string{BackendMemory, BackendRedis}},
		{"STORE", c.Store, []string{BackendMemory, BackendPostgres}},
	}
	for _, chk := range checks {
		if !contains(chk.allow, chk.value) {
			return fmt.Errorf("ASSISTANT_%s=%q must be one of %s", chk.field, chk.value, strings.Join(chk.allow, "|"))
		}
	}
	if c.Categories().Empty() {
		return fmt.Errorf("ASSISTANT_ALLOWED_CATEGORIES must name at least one category")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func loadAppConfig() (*AppConfig, error) {
	cfg, err := configx.New[AppConfig]("ASSISTANT")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLogConfig() logx.Config {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		return *logx.DefaultConfig
	}
	return *cfg
}

func loadLLMConfig() (*llmx.Config, error) {
	cfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTracingConfig() (*obsx.TracingConfig, error) {
	return configx.New[obsx.TracingConfig]("TRACING")
}

func loadPostgresConfig() (*postgresx.Config, error) {
	return configx.New[postgresx.Config]("POSTGRES")
}

func loadRedisConfig() (*redisx.Config, error) {
	return configx.New[redisx.Config]("REDIS")
}

func loadUpstashConfig() (*statex.UpstashRedisConfig, error) {
	return configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
}

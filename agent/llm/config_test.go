package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	geminix "github.com/tanpawarit/Chative-Retail-Assistant/pkg/gemini"
	openrouterx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/openrouter"
)

func TestValidateFailsFastWithoutKey(t *testing.T) {
	t.Parallel()

	cases := []Config{
		{Provider: ProviderOpenRouter, Model: "m"},
		{Provider: ProviderGoogle, APIKey: "only-openrouter-key"},
		{Provider: "azure", APIKey: "k"},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); !errors.Is(err, contractx.ErrProviderUnavailable) {
			t.Fatalf("Validate(%s) error = %v, want ErrProviderUnavailable", cfg.Provider, err)
		}
	}
}

func TestValidateRequiresModelForOpenRouter(t *testing.T) {
	t.Parallel()

	err := Config{APIKey: "k"}.Validate()
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestValidateResolvesModelPerAgent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "orchestrator only", cfg: Config{APIKey: "k", OrchestratorModel: "openai/gpt-4o-mini"}, wantErr: true},
		{name: "specialist only", cfg: Config{APIKey: "k", SpecialistModel: "openai/gpt-4o-mini"}, wantErr: true},
		{name: "both overrides", cfg: Config{APIKey: "k", OrchestratorModel: "a", SpecialistModel: "b"}},
		{name: "default model", cfg: Config{APIKey: "k", Model: "m"}},
		{name: "default plus orchestrator", cfg: Config{APIKey: "k", Model: "m", OrchestratorModel: "a"}},
		{name: "google default", cfg: Config{Provider: ProviderGoogle, GoogleAPIKey: "g"}},
		{name: "blank default", cfg: Config{APIKey: "k", Model: "  ", OrchestratorModel: "a"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.wantErr && !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestNewModelRejectsMissingSpecialistModel(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", OrchestratorModel: "openai/gpt-4o-mini"}
	if _, err := cfg.NewModel(context.Background(), contractx.AgentPayment); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewModel(payment) error = %v, want ErrValidation", err)
	}
}

func TestSettingsForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Model:                   "base",
		Temperature:             0.7,
		OrchestratorModel:       "router",
		OrchestratorTemperature: 0.3,
		SpecialistTemperature:   -1,
	}

	orch := cfg.SettingsFor(contractx.AgentOrchestrator)
	if orch.Model != "router" || orch.Temperature != 0.3 {
		t.Fatalf("orchestrator settings = %+v", orch)
	}

	settings := cfg.SettingsFor(contractx.AgentPayment)
	if settings.Model != "base" || settings.Temperature != 0.7 {
		t.Fatalf("specialist settings = %+v", settings)
	}

	cfg.SpecialistModel = "worker"
	cfg.SpecialistTemperature = 0.2
	settings = cfg.SettingsFor(contractx.AgentInventory)
	if settings.Model != "worker" || settings.Temperature != 0.2 {
		t.Fatalf("specialist override = %+v", settings)
	}
}

func TestBuilderPerProvider(t *testing.T) {
	t.Parallel()

	google := Config{Provider: ProviderGoogle, GoogleAPIKey: "g", MaxCompletionToken: 512}
	b, ok := google.Builder(contractx.AgentLoyaltyOffers).(*geminix.Config)
	if !ok {
		t.Fatalf("google builder type = %T", google.Builder(contractx.AgentLoyaltyOffers))
	}
	if b.Model != defaultGoogleModel || b.MaxTokens != 512 || b.APIKey != "g" {
		t.Fatalf("unexpected gemini config: %+v", b)
	}

	router := Config{APIKey: " k ", Model: "m", MaxCompletionToken: 256}
	o, ok := router.Builder(contractx.AgentOrchestrator).(*openrouterx.Config)
	if !ok {
		t.Fatalf("openrouter builder type = %T", router.Builder(contractx.AgentOrchestrator))
	}
	if o.APIKey != "k" || o.Model != "m" || o.MaxCompletionToken == nil || *o.MaxCompletionToken != 256 {
		t.Fatalf("unexpected openrouter config: %+v", o)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	t.Cleanup(server.Close)

	good := Config{BaseURL: server.URL, APIKey: "good", Model: "m"}
	if err := good.Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	bad := Config{BaseURL: server.URL, APIKey: "bad", Model: "m"}
	if err := bad.Probe(context.Background()); !errors.Is(err, contractx.ErrProviderUnavailable) {
		t.Fatalf("Probe() error = %v, want ErrProviderUnavailable", err)
	}
}

package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
)

var (
	//go:embed template/orchestrator.txt
	orchestratorRaw string

	//go:embed template/classify.txt
	classifyRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/inventory.txt
	inventoryRaw string

	//go:embed template/payment.txt
	paymentRaw string

	//go:embed template/fulfillment.txt
	fulfillmentRaw string

	//go:embed template/loyalty_offers.txt
	loyaltyOffersRaw string

	//go:embed template/post_purchase.txt
	postPurchaseRaw string
)

const DefaultStoreName = "Buyoh"

// Vars are substituted into every template at load time.
type Vars struct {
	StoreName  string
	Categories []string
}

// PromptSet holds loaded prompt content. Classify keeps its {user_message}
// placeholder for the chat template.
type PromptSet struct {
	Orchestrator string
	Classify     string
	Specialists  map[contractx.AgentName]string
}

// LoadPromptSet returns a PromptSet with the store name and category list
// rendered in and trimmed.
func LoadPromptSet(vars Vars) PromptSet {
	r := vars.replacer()
	render := func(raw string) string {
		return strings.TrimSpace(r.Replace(raw))
	}
	return PromptSet{
		Orchestrator: render(orchestratorRaw),
		Classify:     render(classifyRaw),
		Specialists: map[contractx.AgentName]string{
			contractx.AgentRecommendation: render(recommendationRaw),
			contractx.AgentInventory:      render(inventoryRaw),
			contractx.AgentPayment:        render(paymentRaw),
			contractx.AgentFulfillment:    render(fulfillmentRaw),
			contractx.AgentLoyaltyOffers:  render(loyaltyOffersRaw),
			contractx.AgentPostPurchase:   render(postPurchaseRaw),
		},
	}
}

// Specialist returns the system prompt for name.
func (p PromptSet) Specialist(name contractx.AgentName) (string, error) {
	v := strings.TrimSpace(p.Specialists[name])
	if v == "" {
		return "", fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
	}
	return v, nil
}

func (p PromptSet) Validate() error {
	if strings.TrimSpace(p.Orchestrator) == "" {
		return fmt.Errorf("%w: orchestrator", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(p.Classify) == "" {
		return fmt.Errorf("%w: classify", contractx.ErrPromptMissing)
	}
	for _, name := range contractx.SpecialistNames() {
		if _, err := p.Specialist(name); err != nil {
			return err
		}
	}
	return nil
}

// braceEscaper doubles braces in configured values. Every prompt is later
// formatted as an FString chat template.
var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

func (v Vars) replacer() *strings.Replacer {
	store := strings.TrimSpace(v.StoreName)
	if store == "" {
		store = DefaultStoreName
	}
	categories := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	list := "the configured"
	if len(categories) > 0 {
		list = strings.Join(categories, ", ")
	}
	return strings.NewReplacer(
		"${store_name}", braceEscaper.Replace(store),
		"${categories}", braceEscaper.Replace(list),
	)
}

package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

type AgentName string

const (
	AgentOrchestrator   AgentName = "orchestrator"
	AgentRecommendation AgentName = "recommendation"
	AgentInventory      AgentName = "inventory"
	AgentPayment        AgentName = "payment"
	AgentFulfillment    AgentName = "fulfillment"
	AgentLoyaltyOffers  AgentName = "loyalty_offers"
	AgentPostPurchase   AgentName = "post_purchase"
)

// RouteEnd is the terminal routing sentinel.
const RouteEnd = "end"

// MaxTurns is the hard stop on node executions per request.
const MaxTurns = 20

var specialistNames = []AgentName{
	AgentRecommendation,
	AgentInventory,
	AgentPayment,
	AgentFulfillment,
	AgentLoyaltyOffers,
	AgentPostPurchase,
}

// SpecialistNames lists the six domain agents in routing order.
func SpecialistNames() []AgentName {
	return append([]AgentName(nil), specialistNames...)
}

// ParseAgentName reports whether v names a known graph node.
func ParseAgentName(v string) (AgentName, bool) {
	name := AgentName(strings.TrimSpace(v))
	if name == AgentOrchestrator {
		return name, true
	}
	for _, s := range specialistNames {
		if s == name {
			return name, true
		}
	}
	return "", false
}

func (n AgentName) String() string {
	return string(n)
}

// ToolName is the closed set of operations the gateway exposes.
type ToolName string

const (
	ToolQueryProducts       ToolName = "db_queryProducts"
	ToolGetInventory        ToolName = "db_getInventory"
	ToolCreatePaymentIntent ToolName = "payments_createPaymentIntent"
	ToolCreateOrder         ToolName = "orders_createOrder"
	ToolGetLoyaltySummary   ToolName = "loyalty_getSummary"
	ToolApplyOffer          ToolName = "loyalty_applyOffer"
	ToolGetOrderStatus      ToolName = "support_getOrderStatus"
)

var toolNames = []ToolName{
	ToolQueryProducts,
	ToolGetInventory,
	ToolCreatePaymentIntent,
	ToolCreateOrder,
	ToolGetLoyaltySummary,
	ToolApplyOffer,
	ToolGetOrderStatus,
}

func ToolNames() []ToolName {
	return append([]ToolName(nil), toolNames...)
}

func ParseToolName(v string) (ToolName, error) {
	name := ToolName(strings.TrimSpace(v))
	for _, t := range toolNames {
		if t == name {
			return name, nil
		}
	}
	return "", &ToolError{Tool: name, Message: fmt.Sprintf("unknown tool %q", v), Err: ErrUnknownTool}
}

func (n ToolName) String() string {
	return string(n)
}

type ToolRequest struct {
	Tool ToolName       `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   ToolName        `json:"tool"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// OK reports whether the call produced data.
func (r ToolResult) OK() bool {
	return r.Error == "" && len(r.Result) > 0
}

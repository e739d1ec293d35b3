package specialist

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

const (
	apologyRecommendation = "I'm having trouble finding products right now. Could you try rephrasing your request?"
	apologyInventory      = "I'm having trouble checking inventory right now. Please try again in a moment."
	apologyPayment        = "I'm experiencing issues processing your payment. Please try again or contact support."
	apologyFulfillment    = "I'm having trouble processing your order request. Please try again or contact support."
	apologyLoyaltyOffers  = "I'm having trouble accessing your loyalty information right now. Please try again."
	apologyPostPurchase   = "I'm having trouble accessing your order information. Please provide your order ID or contact support."
)

// Bindings returns the six domain bindings keyed by agent name. prompts must
// hold a system prompt for each specialist.
func Bindings(prompts map[contractx.AgentName]string) []Binding {
	return []Binding{
		{
			Name:    contractx.AgentRecommendation,
			Tools:   []contractx.ToolName{contractx.ToolQueryProducts, contractx.ToolGetInventory},
			Prompt:  prompts[contractx.AgentRecommendation],
			Window:  10,
			Apology: apologyRecommendation,
			Inject:  injectCategory,
		},
		{
			Name:    contractx.AgentInventory,
			Tools:   []contractx.ToolName{contractx.ToolGetInventory, contractx.ToolQueryProducts},
			Prompt:  prompts[contractx.AgentInventory],
			Window:  8,
			Apology: apologyInventory,
			Extract: extractInventory,
		},
		{
			Name:    contractx.AgentPayment,
			Tools:   []contractx.ToolName{contractx.ToolCreatePaymentIntent, contractx.ToolCreateOrder},
			Prompt:  prompts[contractx.AgentPayment],
			Window:  8,
			Apology: apologyPayment,
			Inject:  injectCart,
			Extract: extractPayment,
		},
		{
			Name:    contractx.AgentFulfillment,
			Tools:   []contractx.ToolName{contractx.ToolCreateOrder, contractx.ToolGetOrderStatus},
			Prompt:  prompts[contractx.AgentFulfillment],
			Window:  8,
			Apology: apologyFulfillment,
			Inject:  injectCartRefs,
			Extract: extractFulfillment,
		},
		{
			Name:    contractx.AgentLoyaltyOffers,
			Tools:   []contractx.ToolName{contractx.ToolGetLoyaltySummary, contractx.ToolApplyOffer},
			Prompt:  prompts[contractx.AgentLoyaltyOffers],
			Window:  8,
			Apology: apologyLoyaltyOffers,
			Inject:  injectLoyaltyRefs,
			Extract: extractLoyalty,
		},
		{
			Name:    contractx.AgentPostPurchase,
			Tools:   []contractx.ToolName{contractx.ToolGetOrderStatus},
			Prompt:  prompts[contractx.AgentPostPurchase],
			Window:  8,
			Apology: apologyPostPurchase,
			Inject:  injectOrderRef,
			Extract: extractPostPurchase,
		},
	}
}

/* -------------------------------- injectors -------------------------------- */

func injectCategory(st *statex.ConversationState) []*schema.Message {
	if st.Category == "" {
		return nil
	}
	return []*schema.Message{
		schema.UserMessage("IMPORTANT: Only show products from the " + st.Category + " category."),
	}
}

func injectCart(st *statex.ConversationState) []*schema.Message {
	var out []*schema.Message
	if len(st.Cart) > 0 {
		if raw, err := json.Marshal(st.Cart); err == nil {
			out = append(out, schema.UserMessage("Current cart: "+string(raw)))
			out = append(out, schema.UserMessage(fmt.Sprintf("Cart total: %.2f", st.CartTotal())))
		}
	}
	return append(out, injectCartRefs(st)...)
}

func injectCartRefs(st *statex.ConversationState) []*schema.Message {
	return refMessages("Cart ID", st.CartID, "User ID", st.UserID)
}

func injectLoyaltyRefs(st *statex.ConversationState) []*schema.Message {
	return refMessages("User ID", st.UserID, "Cart ID", st.CartID)
}

func injectOrderRef(st *statex.ConversationState) []*schema.Message {
	return refMessages("Order ID", st.OrderID)
}

// refMessages takes label/value pairs and emits one message per set value.
func refMessages(pairs ...string) []*schema.Message {
	var out []*schema.Message
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		out = append(out, schema.UserMessage(pairs[i]+": "+pairs[i+1]))
	}
	return out
}

/* -------------------------------- extractors ------------------------------- */

type paymentIntentData struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
}

type orderData struct {
	Order *struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	} `json:"order"`
	Fulfillment json.RawMessage `json:"fulfillment"`
}

type loyaltyData struct {
	Loyalty *struct {
		PointsBalance *float64 `json:"points_balance"`
		Tier          string   `json:"tier"`
	} `json:"loyalty"`
}

type offerData struct {
	OfferApplied json.RawMessage `json:"offer_applied"`
}

func extractInventory(_ *statex.ConversationState, results []contractx.ToolResult) statex.Delta {
	data, ok := decodeResult[map[string]any](results, contractx.ToolGetInventory)
	if !ok {
		return statex.Delta{}
	}
	return statex.Delta{InventoryContext: &statex.InventoryContext{Availability: data}}
}

func extractPayment(_ *statex.ConversationState, results []contractx.ToolResult) statex.Delta {
	var d statex.Delta
	intent, hasIntent := decodeResult[paymentIntentData](results, contractx.ToolCreatePaymentIntent)
	order, hasOrder := decodeResult[orderData](results, contractx.ToolCreateOrder)

	switch {
	case hasIntent && intent.Status != "":
		d.PaymentStatus = statex.Ptr(intent.Status)
	case hasOrder && order.Order != nil && order.Order.PaymentStatus != "":
		d.PaymentStatus = statex.Ptr(order.Order.PaymentStatus)
	}
	if hasIntent && intent.PaymentIntentID != "" {
		d.PaymentIntentID = statex.Ptr(intent.PaymentIntentID)
	}
	if hasOrder && order.Order != nil && order.Order.ID != "" {
		d.OrderID = statex.Ptr(order.Order.ID)
	}
	return d
}

func extractFulfillment(_ *statex.ConversationState, results []contractx.ToolResult) statex.Delta {
	var d statex.Delta
	for _, tool := range []contractx.ToolName{contractx.ToolGetOrderStatus, contractx.ToolCreateOrder} {
		order, ok := decodeResult[orderData](results, tool)
		if ok && order.Order != nil && order.Order.ID != "" {
			d.OrderID = statex.Ptr(order.Order.ID)
			break
		}
	}
	return d
}

func extractLoyalty(st *statex.ConversationState, results []contractx.ToolResult) statex.Delta {
	summary, hasSummary := decodeResult[loyaltyData](results, contractx.ToolGetLoyaltySummary)
	offer, hasOffer := decodeResult[offerData](results, contractx.ToolApplyOffer)
	if !hasSummary && !hasOffer {
		return statex.Delta{}
	}

	next := statex.LoyaltyContext{}
	if st.Loyalty != nil {
		next = *st.Loyalty
	}
	if hasSummary && summary.Loyalty != nil {
		if summary.Loyalty.PointsBalance != nil {
			next.Points = summary.Loyalty.PointsBalance
		}
		if summary.Loyalty.Tier != "" {
			next.Tier = summary.Loyalty.Tier
		}
	}
	if hasOffer && isPresent(offer.OfferApplied) {
		var applied any
		if err := json.Unmarshal(offer.OfferApplied, &applied); err == nil {
			next.ApplicableOffers = []any{applied}
		}
	}
	return statex.Delta{Loyalty: &next}
}

func extractPostPurchase(st *statex.ConversationState, results []contractx.ToolResult) statex.Delta {
	status, ok := decodeResult[orderData](results, contractx.ToolGetOrderStatus)
	if !ok {
		return statex.Delta{}
	}

	next := statex.PostPurchaseContext{}
	if st.PostPurchase != nil {
		next = *st.PostPurchase
	}
	if isPresent(status.Fulfillment) {
		var tracking any
		if err := json.Unmarshal(status.Fulfillment, &tracking); err == nil {
			next.TrackingInfo = tracking
		}
	}
	if status.Order != nil && status.Order.Status == "delivered" {
		next.ReturnEligibility = true
	}
	return statex.Delta{PostPurchase: &next}
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

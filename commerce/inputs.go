package commerce

const (
	DefaultProductLimit = 10
	MaxProductLimit     = 100
)

type QueryProductsInput struct {
	Category    string  `json:"category,omitempty" jsonschema:"product category to filter by"`
	PriceMin    float64 `json:"price_min,omitempty" jsonschema:"minimum price, inclusive"`
	PriceMax    float64 `json:"price_max,omitempty" jsonschema:"maximum price, inclusive"`
	SearchQuery string  `json:"search_query,omitempty" jsonschema:"text matched against product name or description"`
	Limit       int     `json:"limit,omitempty" jsonschema:"maximum number of products to return (default 10)"`
	Offset      int     `json:"offset,omitempty" jsonschema:"number of products to skip (default 0)"`
}

type GetInventoryInput struct {
	SKU        string `json:"sku,omitempty" jsonschema:"product sku"`
	ProductID  string `json:"product_id,omitempty" jsonschema:"product id"`
	LocationID string `json:"location_id,omitempty" jsonschema:"warehouse or store location id"`
}

type CreatePaymentIntentInput struct {
	CartID string  `json:"cart_id" jsonschema:"cart being paid for"`
	UserID string  `json:"user_id" jsonschema:"paying user"`
	Amount float64 `json:"amount" jsonschema:"amount to charge"`
}

type CreateOrderInput struct {
	CartID    string `json:"cart_id" jsonschema:"cart to convert into an order"`
	UserID    string `json:"user_id" jsonschema:"ordering user"`
	PaymentID string `json:"payment_id,omitempty" jsonschema:"payment intent id, when payment already succeeded"`
}

type GetLoyaltySummaryInput struct {
	UserID string `json:"user_id" jsonschema:"user whose loyalty account is requested"`
}

type ApplyOfferInput struct {
	UserID string `json:"user_id" jsonschema:"user applying the offer"`
	CartID string `json:"cart_id" jsonschema:"cart the offer is applied to"`
}

type GetOrderStatusInput struct {
	OrderID string `json:"order_id" jsonschema:"order to look up"`
}

/* ---------------------------------- results --------------------------------- */

type QueryProductsResult struct {
	Products []Product `json:"products"`
}

type GetInventoryResult struct {
	Inventory []InventoryRow `json:"inventory"`
}

const PaymentIntentRequiresMethod = "requires_payment_method"

type PaymentIntent struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	ClientSecret    string  `json:"client_secret"`
}

type CreateOrderResult struct {
	Order *Order `json:"order"`
}

type LoyaltySummaryResult struct {
	Loyalty *LoyaltyAccount `json:"loyalty"`
}

type ApplyOfferResult struct {
	OfferApplied *Offer   `json:"offer_applied"`
	Discount     float64  `json:"discount"`
	FinalAmount  *float64 `json:"final_amount,omitempty"`
}

type OrderStatusResult struct {
	Order       *Order            `json:"order"`
	Fulfillment *OrderFulfillment `json:"fulfillment"`
}

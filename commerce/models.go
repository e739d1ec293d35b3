package commerce

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          string         `bun:"id,pk,type:uuid" json:"id"`
	SKU         string         `bun:"sku,unique,notnull" json:"sku"`
	Name        string         `bun:"name,notnull" json:"name"`
	Description string         `bun:"description" json:"description,omitempty"`
	Category    string         `bun:"category,notnull" json:"category"`
	Attributes  map[string]any `bun:"attributes,type:jsonb" json:"attributes,omitempty"`
	Price       float64        `bun:"price,type:numeric(10,2),notnull" json:"price"`
	Brand       string         `bun:"brand" json:"brand,omitempty"`
	ImageURL    string         `bun:"image_url" json:"image_url,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type ProductInventory struct {
	bun.BaseModel `bun:"table:product_inventory,alias:pi"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	ProductID   string    `bun:"product_id,type:uuid,notnull" json:"product_id"`
	LocationID  string    `bun:"location_id,notnull" json:"location_id"`
	Quantity    int       `bun:"quantity,notnull" json:"quantity"`
	SafetyStock int       `bun:"safety_stock,notnull" json:"safety_stock"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// InventoryRow is an inventory record joined with its product's name and sku.
type InventoryRow struct {
	ID          string    `bun:"id" json:"id"`
	ProductID   string    `bun:"product_id" json:"product_id"`
	LocationID  string    `bun:"location_id" json:"location_id"`
	Quantity    int       `bun:"quantity" json:"quantity"`
	SafetyStock int       `bun:"safety_stock" json:"safety_stock"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
	Name        string    `bun:"name" json:"name"`
	SKU         string    `bun:"sku" json:"sku"`
}

const (
	CartActive    = "active"
	CartAbandoned = "abandoned"
	CartCompleted = "completed"
)

type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:c"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	UserID    string    `bun:"user_id,type:uuid,nullzero" json:"user_id,omitempty"`
	Status    string    `bun:"status,notnull" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:ci"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	CartID    string    `bun:"cart_id,type:uuid,notnull" json:"cart_id"`
	ProductID string    `bun:"product_id,type:uuid,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	UnitPrice float64   `bun:"unit_price,type:numeric(10,2),notnull" json:"unit_price"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// CartLine is a cart item joined with its product's name and sku.
type CartLine struct {
	ID        string  `bun:"id" json:"id"`
	CartID    string  `bun:"cart_id" json:"cart_id"`
	ProductID string  `bun:"product_id" json:"product_id"`
	Quantity  int     `bun:"quantity" json:"quantity"`
	UnitPrice float64 `bun:"unit_price" json:"unit_price"`
	Name      string  `bun:"name" json:"name"`
	SKU       string  `bun:"sku" json:"sku"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                   string    `bun:"id,pk,type:uuid" json:"id"`
	UserID               string    `bun:"user_id,type:uuid,notnull" json:"user_id"`
	CartID               string    `bun:"cart_id,type:uuid,nullzero" json:"cart_id,omitempty"`
	Status               string    `bun:"status,notnull" json:"status"`
	TotalAmount          float64   `bun:"total_amount,type:numeric(10,2),notnull" json:"total_amount"`
	PaymentStatus        string    `bun:"payment_status,notnull" json:"payment_status"`
	LoyaltyPointsApplied int       `bun:"loyalty_points_applied,notnull" json:"loyalty_points_applied"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	OrderID   string    `bun:"order_id,type:uuid,notnull" json:"order_id"`
	ProductID string    `bun:"product_id,type:uuid,notnull" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	UnitPrice float64   `bun:"unit_price,type:numeric(10,2),notnull" json:"unit_price"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

const TierBronze = "bronze"

type LoyaltyAccount struct {
	bun.BaseModel `bun:"table:loyalty_accounts,alias:la"`

	ID            string    `bun:"id,pk,type:uuid" json:"id"`
	UserID        string    `bun:"user_id,type:uuid,unique,notnull" json:"user_id"`
	PointsBalance int       `bun:"points_balance,notnull" json:"points_balance"`
	Tier          string    `bun:"tier,notnull" json:"tier"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type LoyaltyTransaction struct {
	bun.BaseModel `bun:"table:loyalty_transactions,alias:lt"`

	ID               string    `bun:"id,pk,type:uuid" json:"id"`
	LoyaltyAccountID string    `bun:"loyalty_account_id,type:uuid,notnull" json:"loyalty_account_id"`
	PointsDelta      int       `bun:"points_delta,notnull" json:"points_delta"`
	Reason           string    `bun:"reason" json:"reason,omitempty"`
	OrderID          string    `bun:"order_id,type:uuid,nullzero" json:"order_id,omitempty"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
	DiscountPoints     = "points"
)

type Offer struct {
	bun.BaseModel `bun:"table:offers,alias:of"`

	ID             string    `bun:"id,pk,type:uuid" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	CategoryFilter string    `bun:"category_filter,nullzero" json:"category_filter,omitempty"`
	MinCartValue   float64   `bun:"min_cart_value,type:numeric(10,2),notnull" json:"min_cart_value"`
	DiscountType   string    `bun:"discount_type,notnull" json:"discount_type"`
	DiscountValue  float64   `bun:"discount_value,type:numeric(10,2),notnull" json:"discount_value"`
	StartAt        time.Time `bun:"start_at,notnull" json:"start_at"`
	EndAt          time.Time `bun:"end_at,notnull" json:"end_at"`
	IsActive       bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Live reports whether the offer can be applied at now.
func (o Offer) Live(now time.Time) bool {
	return o.IsActive && !o.StartAt.After(now) && !o.EndAt.Before(now)
}

type OrderFulfillment struct {
	bun.BaseModel `bun:"table:order_fulfillments,alias:ofu"`

	ID             string         `bun:"id,pk,type:uuid" json:"id"`
	OrderID        string         `bun:"order_id,type:uuid,notnull" json:"order_id"`
	TrackingNumber string         `bun:"tracking_number" json:"tracking_number,omitempty"`
	Carrier        string         `bun:"carrier" json:"carrier,omitempty"`
	Status         string         `bun:"status,notnull" json:"status"`
	ETA            *time.Time     `bun:"eta" json:"eta,omitempty"`
	Address        map[string]any `bun:"address,type:jsonb" json:"address,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Models lists every table owned by the commerce package, parents first.
func Models() []any {
	return []any{
		(*Product)(nil),
		(*ProductInventory)(nil),
		(*Cart)(nil),
		(*CartItem)(nil),
		(*Order)(nil),
		(*OrderItem)(nil),
		(*LoyaltyAccount)(nil),
		(*LoyaltyTransaction)(nil),
		(*Offer)(nil),
		(*OrderFulfillment)(nil),
	}
}

package commerce

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrEmptyCart     = errors.New("Cart is empty")
	ErrOrderNotFound = errors.New("Order not found")
	ErrInvalidInput  = errors.New("invalid input")
)

type ProductFilter struct {
	Category    string
	PriceMin    *float64
	PriceMax    *float64
	SearchQuery string
	Limit       int
	Offset      int
}

type InventoryFilter struct {
	SKU        string
	ProductID  string
	LocationID string
}

// Repository is the persistence boundary of the commerce domain.
type Repository interface {
	// QueryProducts returns products matching every set filter, newest first.
	QueryProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	ListInventory(ctx context.Context, f InventoryFilter) ([]InventoryRow, error)

	CartLines(ctx context.Context, cartID string) ([]CartLine, error)
	// ActiveCart returns the user's most recently updated active cart.
	ActiveCart(ctx context.Context, userID string) (*Cart, error)

	// ActiveOffers returns live offers in store order.
	ActiveOffers(ctx context.Context, now time.Time) ([]Offer, error)

	FindLoyaltyAccount(ctx context.Context, userID string) (*LoyaltyAccount, error)
	// CreateLoyaltyAccount inserts acc unless the user already has an account,
	// and returns whichever account is stored afterwards.
	CreateLoyaltyAccount(ctx context.Context, acc *LoyaltyAccount) (*LoyaltyAccount, error)

	FindOrder(ctx context.Context, orderID string) (*Order, error)
	FindFulfillment(ctx context.Context, orderID string) (*OrderFulfillment, error)

	// PlaceOrder inserts the order with its items and completes the cart in
	// one transaction.
	PlaceOrder(ctx context.Context, order *Order, items []OrderItem) error
}

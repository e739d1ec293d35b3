package commerce

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps the commerce tables in process. It backs tests and
// database-less runs.
type MemoryRepository struct {
	mu sync.RWMutex

	products     []Product
	inventory    []ProductInventory
	carts        map[string]*Cart
	cartItems    []CartItem
	orders       map[string]*Order
	orderItems   []OrderItem
	loyalty      map[string]*LoyaltyAccount
	offers       []Offer
	fulfillments map[string]*OrderFulfillment

	// failPlaceOrder, when set, aborts PlaceOrder before any write.
	failPlaceOrder error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts:        make(map[string]*Cart),
		orders:       make(map[string]*Order),
		loyalty:      make(map[string]*LoyaltyAccount),
		fulfillments: make(map[string]*OrderFulfillment),
	}
}

/* ---------------------------------- seeding --------------------------------- */

func (r *MemoryRepository) AddProduct(p Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, p)
}

func (r *MemoryRepository) AddInventory(inv ProductInventory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inventory = append(r.inventory, inv)
}

func (r *MemoryRepository) AddCart(c Cart, items ...CartItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := c
	r.carts[c.ID] = &cart
	r.cartItems = append(r.cartItems, items...)
}

func (r *MemoryRepository) AddOffer(o Offer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers = append(r.offers, o)
}

func (r *MemoryRepository) AddOrder(o Order, items ...OrderItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order := o
	r.orders[o.ID] = &order
	r.orderItems = append(r.orderItems, items...)
}

func (r *MemoryRepository) AddFulfillment(f OrderFulfillment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ful := f
	r.fulfillments[f.OrderID] = &ful
}

/* ------------------------------- introspection ------------------------------ */

func (r *MemoryRepository) Cart(id string) (Cart, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return Cart{}, false
	}
	return *c, true
}

func (r *MemoryRepository) OrderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *MemoryRepository) OrderItems(orderID string) []OrderItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []OrderItem
	for _, it := range r.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}

func (r *MemoryRepository) LoyaltyAccountCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loyalty)
}

/* -------------------------------- Repository -------------------------------- */

func (r *MemoryRepository) QueryProducts(_ context.Context, f ProductFilter) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.SearchQuery))
	matched := make([]Product, 0)
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.PriceMin != nil && p.Price < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && p.Price > *f.PriceMax {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if f.Offset >= len(matched) {
		return []Product{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *MemoryRepository) ListInventory(_ context.Context, f InventoryFilter) ([]InventoryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]InventoryRow, 0)
	for _, inv := range r.inventory {
		p, ok := r.productByID(inv.ProductID)
		if !ok {
			continue
		}
		if f.SKU != "" && p.SKU != f.SKU {
			continue
		}
		if f.ProductID != "" && inv.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && inv.LocationID != f.LocationID {
			continue
		}
		rows = append(rows, InventoryRow{
			ID:          inv.ID,
			ProductID:   inv.ProductID,
			LocationID:  inv.LocationID,
			Quantity:    inv.Quantity,
			SafetyStock: inv.SafetyStock,
			UpdatedAt:   inv.UpdatedAt,
			Name:        p.Name,
			SKU:         p.SKU,
		})
	}
	return rows, nil
}

func (r *MemoryRepository) CartLines(_ context.Context, cartID string) ([]CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]CartLine, 0)
	for _, it := range r.cartItems {
		if it.CartID != cartID {
			continue
		}
		p, ok := r.productByID(it.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, CartLine{
			ID:        it.ID,
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Name:      p.Name,
			SKU:       p.SKU,
		})
	}
	return lines, nil
}

func (r *MemoryRepository) ActiveCart(_ context.Context, userID string) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Cart
	for _, c := range r.carts {
		if c.UserID != userID || c.Status != CartActive {
			continue
		}
		if best == nil || c.UpdatedAt.After(best.UpdatedAt) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: active cart user=%s", ErrNotFound, userID)
	}
	out := *best
	return &out, nil
}

func (r *MemoryRepository) ActiveOffers(_ context.Context, now time.Time) ([]Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Offer, 0, len(r.offers))
	for _, o := range r.offers {
		if o.Live(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryRepository) FindLoyaltyAccount(_ context.Context, userID string) (*LoyaltyAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.loyalty[userID]
	if !ok {
		return nil, fmt.Errorf("%w: loyalty account user=%s", ErrNotFound, userID)
	}
	out := *acc
	return &out, nil
}

func (r *MemoryRepository) CreateLoyaltyAccount(_ context.Context, acc *LoyaltyAccount) (*LoyaltyAccount, error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: loyalty account is nil", ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.loyalty[acc.UserID]; ok {
		out := *existing
		return &out, nil
	}
	stored := *acc
	r.loyalty[acc.UserID] = &stored
	out := stored
	return &out, nil
}

func (r *MemoryRepository) FindOrder(_ context.Context, orderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order=%s", ErrNotFound, orderID)
	}
	out := *o
	return &out, nil
}

func (r *MemoryRepository) FindFulfillment(_ context.Context, orderID string) (*OrderFulfillment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fulfillments[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: fulfillment order=%s", ErrNotFound, orderID)
	}
	out := *f
	return &out, nil
}

func (r *MemoryRepository) PlaceOrder(_ context.Context, order *Order, items []OrderItem) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failPlaceOrder != nil {
		return r.failPlaceOrder
	}
	if _, dup := r.orders[order.ID]; dup {
		return fmt.Errorf("insert order: duplicate id %s", order.ID)
	}

	stored := *order
	r.orders[order.ID] = &stored
	r.orderItems = append(r.orderItems, items...)
	if c, ok := r.carts[order.CartID]; ok {
		c.Status = CartCompleted
		c.UpdatedAt = order.UpdatedAt
	}
	return nil
}

func (r *MemoryRepository) productByID(id string) (Product, bool) {
	for _, p := range r.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

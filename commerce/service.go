package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
)

// Service implements the seven commerce operations exposed as tools.
type Service struct {
	repo       Repository
	categories statex.Categories
	now        func() time.Time
	newID      func() string
}

type ServiceOption func(*Service)

func WithCategories(c statex.Categories) ServiceOption {
	return func(s *Service) {
		s.categories = c
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("commerce repository is required")
	}
	s := &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Service) Categories() statex.Categories {
	return s.categories
}

func (s *Service) QueryProducts(ctx context.Context, in QueryProductsInput) (QueryProductsResult, error) {
	f := ProductFilter{
		SearchQuery: strings.TrimSpace(in.SearchQuery),
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if c := strings.TrimSpace(in.Category); c != "" {
		canonical, ok := s.categories.Sanitize(c)
		if !ok {
			return QueryProductsResult{}, fmt.Errorf("%w: category %q is not allowed", ErrInvalidInput, c)
		}
		f.Category = canonical
	}
	if in.PriceMin > 0 {
		f.PriceMin = &in.PriceMin
	}
	if in.PriceMax > 0 {
		f.PriceMax = &in.PriceMax
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return QueryProductsResult{}, fmt.Errorf("%w: price_min is greater than price_max", ErrInvalidInput)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultProductLimit
	}
	if f.Limit > MaxProductLimit {
		f.Limit = MaxProductLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	products, err := s.repo.QueryProducts(ctx, f)
	if err != nil {
		return QueryProductsResult{}, err
	}
	if products == nil {
		products = []Product{}
	}
	return QueryProductsResult{Products: products}, nil
}

func (s *Service) GetInventory(ctx context.Context, in GetInventoryInput) (GetInventoryResult, error) {
	rows, err := s.repo.ListInventory(ctx, InventoryFilter{
		SKU:        strings.TrimSpace(in.SKU),
		ProductID:  strings.TrimSpace(in.ProductID),
		LocationID: strings.TrimSpace(in.LocationID),
	})
	if err != nil {
		return GetInventoryResult{}, err
	}
	if rows == nil {
		rows = []InventoryRow{}
	}
	return GetInventoryResult{Inventory: rows}, nil
}

// CreatePaymentIntent simulates a payment provider. It performs no writes.
func (s *Service) CreatePaymentIntent(_ context.Context, in CreatePaymentIntentInput) (PaymentIntent, error) {
	if err := requireFields(map[string]string{"cart_id": in.CartID, "user_id": in.UserID}); err != nil {
		return PaymentIntent{}, err
	}
	if in.Amount < 0 {
		return PaymentIntent{}, fmt.Errorf("%w: amount must be >= 0", ErrInvalidInput)
	}

	id := fmt.Sprintf("pi_%d_%s", s.now().UnixMilli(), randomSuffix())
	return PaymentIntent{
		PaymentIntentID: id,
		Amount:          in.Amount,
		Status:          PaymentIntentRequiresMethod,
		ClientSecret:    "secret_" + id,
	}, nil
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := requireFields(map[string]string{"cart_id": in.CartID, "user_id": in.UserID}); err != nil {
		return CreateOrderResult{}, err
	}

	lines, err := s.repo.CartLines(ctx, in.CartID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if len(lines) == 0 {
		return CreateOrderResult{}, ErrEmptyCart
	}

	now := s.now().UTC()
	order := &Order{
		ID:            s.newID(),
		UserID:        in.UserID,
		CartID:        in.CartID,
		Status:        OrderConfirmed,
		TotalAmount:   CartTotal(lines),
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if strings.TrimSpace(in.PaymentID) != "" {
		order.PaymentStatus = PaymentCompleted
	}

	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ID:        s.newID(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			CreatedAt: now,
		})
	}

	if err := s.repo.PlaceOrder(ctx, order, items); err != nil {
		return CreateOrderResult{}, err
	}
	log.Info().
		Str("order_id", order.ID).
		Str("cart_id", order.CartID).
		Float64("total", order.TotalAmount).
		Msg("order created")
	return CreateOrderResult{Order: order}, nil
}

// GetLoyaltySummary returns the user's loyalty account, opening one on first use.
func (s *Service) GetLoyaltySummary(ctx context.Context, in GetLoyaltySummaryInput) (LoyaltySummaryResult, error) {
	if err := requireFields(map[string]string{"user_id": in.UserID}); err != nil {
		return LoyaltySummaryResult{}, err
	}

	acc, err := s.repo.FindLoyaltyAccount(ctx, in.UserID)
	if err == nil {
		return LoyaltySummaryResult{Loyalty: acc}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return LoyaltySummaryResult{}, err
	}

	now := s.now().UTC()
	acc, err = s.repo.CreateLoyaltyAccount(ctx, &LoyaltyAccount{
		ID:        s.newID(),
		UserID:    in.UserID,
		Tier:      TierBronze,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return LoyaltySummaryResult{}, err
	}
	return LoyaltySummaryResult{Loyalty: acc}, nil
}

func (s *Service) ApplyOffer(ctx context.Context, in ApplyOfferInput) (ApplyOfferResult, error) {
	if err := requireFields(map[string]string{"user_id": in.UserID, "cart_id": in.CartID}); err != nil {
		return ApplyOfferResult{}, err
	}

	lines, err := s.repo.CartLines(ctx, in.CartID)
	if err != nil {
		return ApplyOfferResult{}, err
	}
	total := CartTotal(lines)

	offers, err := s.repo.ActiveOffers(ctx, s.now())
	if err != nil {
		return ApplyOfferResult{}, err
	}
	best := BestOffer(offers, total)
	if best == nil {
		return ApplyOfferResult{OfferApplied: nil, Discount: 0}, nil
	}

	discount := best.Discount(total)
	final := total - discount
	return ApplyOfferResult{
		OfferApplied: best,
		Discount:     discount,
		FinalAmount:  &final,
	}, nil
}

func (s *Service) GetOrderStatus(ctx context.Context, in GetOrderStatusInput) (OrderStatusResult, error) {
	if err := requireFields(map[string]string{"order_id": in.OrderID}); err != nil {
		return OrderStatusResult{}, err
	}

	order, err := s.repo.FindOrder(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return OrderStatusResult{}, ErrOrderNotFound
		}
		return OrderStatusResult{}, err
	}

	fulfillment, err := s.repo.FindFulfillment(ctx, in.OrderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return OrderStatusResult{}, err
	}
	return OrderStatusResult{Order: order, Fulfillment: fulfillment}, nil
}

// ActiveCart returns the id and lines of the user's active cart in state
// form. A user without an active cart gets an empty id and no error.
func (s *Service) ActiveCart(ctx context.Context, userID string) (string, []statex.CartItem, error) {
	cart, err := s.repo.ActiveCart(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	lines, err := s.repo.CartLines(ctx, cart.ID)
	if err != nil {
		return "", nil, err
	}
	items := make([]statex.CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, statex.CartItem{
			SKU:       l.SKU,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		})
	}
	return cart.ID, items, nil
}

/* ---------------------------------- helpers --------------------------------- */

func CartTotal(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// BestOffer picks the offer with the highest discount value whose minimum
// cart value is met. On ties the earlier offer wins.
func BestOffer(offers []Offer, total float64) *Offer {
	var best *Offer
	for i := range offers {
		o := offers[i]
		if o.MinCartValue > total {
			continue
		}
		if best == nil || o.DiscountValue > best.DiscountValue {
			best = &o
		}
	}
	return best
}

func (o Offer) Discount(total float64) float64 {
	switch o.DiscountType {
	case DiscountPercentage:
		return total * (o.DiscountValue / 100)
	case DiscountFixed:
		return o.DiscountValue
	default:
		return 0
	}
}

func requireFields(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}
	return nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

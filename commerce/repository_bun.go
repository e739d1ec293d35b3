package commerce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// BunRepository is the Postgres-backed Repository.
type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) (*BunRepository, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunRepository{db: db}, nil
}

func (r *BunRepository) QueryProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	products := make([]Product, 0, f.Limit)
	q := r.db.NewSelect().Model(&products)
	if f.Category != "" {
		q = q.Where("p.category = ?", f.Category)
	}
	if f.PriceMin != nil {
		q = q.Where("p.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("p.price <= ?", *f.PriceMax)
	}
	if s := strings.TrimSpace(f.SearchQuery); s != "" {
		pattern := "%" + s + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("p.name ILIKE ?", pattern).WhereOr("p.description ILIKE ?", pattern)
		})
	}
	q = q.OrderExpr("p.created_at DESC").Limit(f.Limit).Offset(f.Offset)

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

func (r *BunRepository) ListInventory(ctx context.Context, f InventoryFilter) ([]InventoryRow, error) {
	rows := make([]InventoryRow, 0)
	q := r.db.NewSelect().
		TableExpr("product_inventory AS pi").
		ColumnExpr("pi.*").
		ColumnExpr("p.name, p.sku").
		Join("JOIN products AS p ON pi.product_id = p.id")
	if f.SKU != "" {
		q = q.Where("p.sku = ?", f.SKU)
	}
	if f.ProductID != "" {
		q = q.Where("pi.product_id = ?", f.ProductID)
	}
	if f.LocationID != "" {
		q = q.Where("pi.location_id = ?", f.LocationID)
	}

	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return rows, nil
}

func (r *BunRepository) CartLines(ctx context.Context, cartID string) ([]CartLine, error) {
	return cartLines(ctx, r.db, cartID)
}

func cartLines(ctx context.Context, db bun.IDB, cartID string) ([]CartLine, error) {
	lines := make([]CartLine, 0)
	err := db.NewSelect().
		TableExpr("cart_items AS ci").
		ColumnExpr("ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price").
		ColumnExpr("p.name, p.sku").
		Join("JOIN products AS p ON ci.product_id = p.id").
		Where("ci.cart_id = ?", cartID).
		OrderExpr("ci.created_at ASC").
		Scan(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("load cart lines cart=%s: %w", cartID, err)
	}
	return lines, nil
}

func (r *BunRepository) ActiveCart(ctx context.Context, userID string) (*Cart, error) {
	cart := new(Cart)
	err := r.db.NewSelect().
		Model(cart).
		Where("c.user_id = ?", userID).
		Where("c.status = ?", CartActive).
		OrderExpr("c.updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "active cart user=%s", userID)
	}
	return cart, nil
}

func (r *BunRepository) ActiveOffers(ctx context.Context, now time.Time) ([]Offer, error) {
	offers := make([]Offer, 0)
	err := r.db.NewSelect().
		Model(&offers).
		Where("of.is_active = TRUE").
		Where("of.start_at <= ?", now).
		Where("of.end_at >= ?", now).
		OrderExpr("of.created_at ASC, of.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}
	return offers, nil
}

func (r *BunRepository) FindLoyaltyAccount(ctx context.Context, userID string) (*LoyaltyAccount, error) {
	acc := new(LoyaltyAccount)
	if err := r.db.NewSelect().Model(acc).Where("la.user_id = ?", userID).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err, "loyalty account user=%s", userID)
	}
	return acc, nil
}

func (r *BunRepository) CreateLoyaltyAccount(ctx context.Context, acc *LoyaltyAccount) (*LoyaltyAccount, error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: loyalty account is nil", ErrInvalidInput)
	}
	if _, err := r.db.NewInsert().Model(acc).On("CONFLICT (user_id) DO NOTHING").Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert loyalty account user=%s: %w", acc.UserID, err)
	}
	return r.FindLoyaltyAccount(ctx, acc.UserID)
}

func (r *BunRepository) FindOrder(ctx context.Context, orderID string) (*Order, error) {
	order := new(Order)
	if err := r.db.NewSelect().Model(order).Where("o.id = ?", orderID).Scan(ctx); err != nil {
		return nil, notFound(err, "order=%s", orderID)
	}
	return order, nil
}

func (r *BunRepository) FindFulfillment(ctx context.Context, orderID string) (*OrderFulfillment, error) {
	f := new(OrderFulfillment)
	err := r.db.NewSelect().
		Model(f).
		Where("ofu.order_id = ?", orderID).
		OrderExpr("ofu.updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "fulfillment order=%s", orderID)
	}
	return f, nil
}

func (r *BunRepository) PlaceOrder(ctx context.Context, order *Order, items []OrderItem) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidInput)
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Returning("*").Exec(ctx); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return fmt.Errorf("insert order items order=%s: %w", order.ID, err)
			}
		}
		if order.CartID != "" {
			_, err := tx.NewUpdate().
				Model((*Cart)(nil)).
				Set("status = ?", CartCompleted).
				Set("updated_at = ?", order.UpdatedAt).
				Where("id = ?", order.CartID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("complete cart=%s: %w", order.CartID, err)
			}
		}
		return nil
	})
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
	}
	return fmt.Errorf("load "+format+": %w", append(args, err)...)
}

package commerce

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateTables creates every commerce table that does not exist yet.
func CreateTables(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	indexes := []struct {
		model any
		name  string
		cols  []string
	}{
		{(*Product)(nil), "idx_products_category", []string{"category"}},
		{(*ProductInventory)(nil), "idx_product_inventory_product", []string{"product_id"}},
		{(*CartItem)(nil), "idx_cart_items_cart", []string{"cart_id"}},
		{(*Order)(nil), "idx_orders_user", []string{"user_id"}},
		{(*OrderFulfillment)(nil), "idx_order_fulfillments_order", []string{"order_id"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.cols...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

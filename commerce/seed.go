package commerce

import (
	"time"

	"github.com/google/uuid"
)

// SeedDemo fills r with a small catalog so the assistant is usable without a
// database. Every product is placed in category.
func SeedDemo(r *MemoryRepository, category string, now time.Time) {
	type item struct {
		sku, name, desc, brand string
		price                  float64
		stock                  int
	}
	items := []item{
		{"FSH-TEE-001", "Classic Cotton Tee", "Soft crew-neck t-shirt in organic cotton", "Northline", 19.99, 120},
		{"FSH-DNM-002", "Slim Fit Denim Jeans", "Stretch denim with a tapered leg", "Northline", 59.5, 45},
		{"FSH-JKT-003", "Waterproof Rain Jacket", "Lightweight shell jacket with sealed seams", "Peakwear", 129, 18},
		{"FSH-SNK-004", "Everyday Canvas Sneakers", "Low-top canvas sneakers with rubber sole", "Stride", 49.99, 60},
		{"FSH-DRS-005", "Linen Summer Dress", "Breathable linen midi dress", "Aurel", 84, 0},
	}
	for i, it := range items {
		p := Product{
			ID:          uuid.NewString(),
			SKU:         it.sku,
			Name:        it.name,
			Description: it.desc,
			Category:    category,
			Price:       it.price,
			Brand:       it.brand,
			CreatedAt:   now.Add(-time.Duration(i) * time.Hour),
			UpdatedAt:   now,
		}
		r.AddProduct(p)
		r.AddInventory(ProductInventory{
			ID:          uuid.NewString(),
			ProductID:   p.ID,
			LocationID:  "WH-MAIN",
			Quantity:    it.stock,
			SafetyStock: 5,
			UpdatedAt:   now,
		})
	}
	r.AddOffer(Offer{
		ID:            uuid.NewString(),
		Name:          "Ten percent off orders over 50",
		MinCartValue:  50,
		DiscountType:  DiscountPercentage,
		DiscountValue: 10,
		StartAt:       now.Add(-24 * time.Hour),
		EndAt:         now.Add(30 * 24 * time.Hour),
		IsActive:      true,
		CreatedAt:     now,
	})
}

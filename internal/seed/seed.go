package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVendor(ctx context.Context, vendor domain.Vendor) error
}

type CouponWriter interface {
	Upsert(ctx context.Context, def domain.CouponDefinition) error
}

// Vendors are the demo stores. Products from different vendors ship as
// separate packages.
func Vendors() []domain.Vendor {
	return []domain.Vendor{
		{ID: "north", Name: "North Outfitters", Country: "US", City: "Portland"},
		{ID: "south", Name: "South Ceramics", Country: "US", City: "Austin"},
	}
}

func Products() []domain.Product {
	return []domain.Product{
		{
			Key:         "demo-shirt",
			SKU:         "SKU-DEMO-TSHIRT",
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			VendorID:    "north",
			PriceCents:  1999,
			Currency:    "USD",
			Variations: []domain.Variation{
				{SKU: "SKU-DEMO-TSHIRT-S", PriceCents: 1999, Attributes: map[string]string{"size": "S"}},
				{SKU: "SKU-DEMO-TSHIRT-XL", PriceCents: 2199, Attributes: map[string]string{"size": "XL"}},
			},
		},
		{
			Key:         "demo-cap",
			SKU:         "SKU-DEMO-CAP",
			Name:        "Demo Cap",
			Description: "Adjustable cap",
			VendorID:    "north",
			PriceCents:  1500,
			Currency:    "USD",
		},
		{
			Key:         "demo-mug",
			SKU:         "SKU-DEMO-MUG",
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			VendorID:    "south",
			PriceCents:  1299,
			Currency:    "USD",
		},
	}
}

func Coupons() []domain.CouponDefinition {
	return []domain.CouponDefinition{
		{Code: "save10", Rule: domain.DiscountRule{Kind: domain.DiscountPercent, Amount: decimal.NewFromInt(10)}},
		{Code: "fiveoff", Rule: domain.DiscountRule{Kind: domain.DiscountFixedCart, Amount: domain.Cents(500)}, MinSpend: domain.Cents(2500)},
		{Code: "freeship", Rule: domain.DiscountRule{Kind: domain.DiscountFreeShipping}, UsageLimit: 100},
	}
}

// Apply inserts demo data for manual testing. It is idempotent: every write
// is an upsert keyed by vendor id, product key or coupon code.
func Apply(ctx context.Context, catalog CatalogWriter, coupons CouponWriter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, v := range Vendors() {
		if err := catalog.UpsertVendor(ctx, v); err != nil {
			return fmt.Errorf("upsert vendor %s: %w", v.ID, err)
		}
	}
	for _, p := range Products() {
		if _, err := catalog.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	for _, c := range Coupons() {
		if err := coupons.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}
	logger.Info("seed applied",
		zap.Int("vendors", len(Vendors())),
		zap.Int("products", len(Products())),
		zap.Int("coupons", len(Coupons())),
	)
	return nil
}

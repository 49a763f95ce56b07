package product

import (
	"context"

	"appcheckout/internal/domain"
)

// Repository is the catalog. Product references accept either the product
// id or its key; variation references accept the variation id or SKU.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Exists(ctx context.Context, productRef string) (bool, error)
	PriceOf(ctx context.Context, productRef, variationRef string) (domain.Money, error)
	Describe(ctx context.Context, productRef string) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVendor(ctx context.Context, vendor domain.Vendor) error
}

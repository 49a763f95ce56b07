package coupon

import (
	"context"

	"appcheckout/internal/domain"
)

// Repository stores coupon definitions and evaluates them against carts.
type Repository interface {
	Get(ctx context.Context, code string) (*domain.CouponDefinition, error)
	Upsert(ctx context.Context, def domain.CouponDefinition) error
	Validate(ctx context.Context, code string, items []domain.CartItem) (domain.Eligibility, error)
}

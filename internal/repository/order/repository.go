package order

import (
	"context"

	"appcheckout/internal/domain"
)

// Placer records a finalized checkout as an order.
type Placer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderReference, error)
}

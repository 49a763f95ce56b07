package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type postgresPlacer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Placer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresPlacer{pool: pool, logger: logger}
}

// PlaceOrder writes the order, its lines and shipping, and consumes coupon
// usage in one transaction. A request whose idempotency key was already
// placed returns that order and changes nothing.
func (p *postgresPlacer) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderReference, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if req.IdempotencyKey != "" {
		var existing domain.OrderReference
		err := tx.QueryRow(ctx, `
SELECT id::text, number, created_at FROM orders WHERE idempotency_key = $1
`, req.IdempotencyKey).Scan(&existing.ID, &existing.Number, &existing.PlacedAt)
		switch {
		case err == nil:
			p.logger.Info("order already placed",
				zap.String("order_id", existing.ID),
				zap.String("session_id", req.SessionID),
			)
			return &existing, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("lookup order by idempotency key: %w", err)
		}
	}

	codes := make([]string, 0, len(req.Coupons))
	for _, c := range req.Coupons {
		tag, err := tx.Exec(ctx, `
UPDATE coupons
SET usage_count = usage_count + 1
WHERE code = $1 AND (usage_limit = 0 OR usage_count < usage_limit)
`, c.Code)
		if err != nil {
			return nil, fmt.Errorf("consume coupon %s: %w", c.Code, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("coupon %s can no longer be used", c.Code)
		}
		codes = append(codes, c.Code)
	}

	var ref domain.OrderReference
	err = tx.QueryRow(ctx, `
INSERT INTO orders (session_id, currency, subtotal_cents, discount_cents, shipping_cents, total_cents,
                    payment_method, billing_address, shipping_address, coupons, idempotency_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
RETURNING id::text, number, created_at
`,
		req.SessionID,
		req.Totals.Currency,
		domain.ToCents(req.Totals.Subtotal),
		domain.ToCents(req.Totals.DiscountTotal),
		domain.ToCents(req.Totals.ShippingTotal),
		domain.ToCents(req.Totals.GrandTotal),
		req.PaymentMethod,
		req.Address.Billing,
		req.Address.Destination(),
		codes,
		req.IdempotencyKey,
	).Scan(&ref.ID, &ref.Number, &ref.PlacedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range req.Items {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, item_key, product_id, variation_id, name, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
`, ref.ID, it.Key, it.ProductID, it.VariationID, it.Name, it.Quantity, domain.ToCents(it.UnitPrice), domain.ToCents(it.LineSubtotal)); err != nil {
			return nil, fmt.Errorf("insert order line %s: %w", it.Key, err)
		}
	}

	for i, pkg := range req.Packages {
		rate, ok := pkg.Selected()
		if !ok {
			return nil, fmt.Errorf("package %d has no selected rate", i)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO order_shipping (order_id, package_index, vendor_id, rate_id, label, cost_cents)
VALUES ($1, $2, $3, $4, $5, $6)
`, ref.ID, i, pkg.GroupKey, rate.ID, rate.Label, domain.ToCents(rate.Cost)); err != nil {
			return nil, fmt.Errorf("insert order shipping %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	p.logger.Info("order placed",
		zap.String("order_id", ref.ID),
		zap.String("number", ref.Number),
		zap.String("session_id", req.SessionID),
		zap.Int("lines", len(req.Items)),
	)
	return &ref, nil
}

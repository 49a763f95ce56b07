package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgres stores coupons in minor units; a percent rule of 1000 means
// 10.00 percent.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger, now: time.Now}
}

func (r *postgresRepo) Get(ctx context.Context, code string) (*domain.CouponDefinition, error) {
	const q = `
SELECT code, kind, amount_cents, min_spend_cents, expires_at, usage_limit, usage_count
FROM coupons
WHERE code = $1
`
	var (
		def             domain.CouponDefinition
		kind            string
		amount, minimum int64
	)
	err := r.pool.QueryRow(ctx, q, code).Scan(&def.Code, &kind, &amount, &minimum, &def.ExpiresAt, &def.UsageLimit, &def.UsageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("coupon get failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	def.Rule = domain.DiscountRule{Kind: domain.DiscountKind(kind), Amount: domain.Cents(amount)}
	def.MinSpend = domain.Cents(minimum)
	return &def, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, def domain.CouponDefinition) error {
	const q = `
INSERT INTO coupons (code, kind, amount_cents, min_spend_cents, expires_at, usage_limit, usage_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE SET
    kind = EXCLUDED.kind,
    amount_cents = EXCLUDED.amount_cents,
    min_spend_cents = EXCLUDED.min_spend_cents,
    expires_at = EXCLUDED.expires_at,
    usage_limit = EXCLUDED.usage_limit
`
	_, err := r.pool.Exec(ctx, q,
		def.Code,
		string(def.Rule.Kind),
		domain.ToCents(def.Rule.Amount),
		domain.ToCents(def.MinSpend),
		def.ExpiresAt,
		def.UsageLimit,
		def.UsageCount,
	)
	if err != nil {
		r.logger.Error("coupon upsert failed", zap.String("code", def.Code), zap.Error(err))
		return fmt.Errorf("upsert coupon %s: %w", def.Code, err)
	}
	return nil
}

// Validate evaluates a stored coupon against the cart subtotal. Unknown
// codes are ineligible, not errors.
func (r *postgresRepo) Validate(ctx context.Context, code string, items []domain.CartItem) (domain.Eligibility, error) {
	def, err := r.Get(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Eligibility{Reason: fmt.Sprintf("Coupon %q does not exist!", code)}, nil
	}
	if err != nil {
		return domain.Eligibility{}, err
	}
	res := def.Evaluate(domain.Subtotal(items), r.now())
	if !res.Eligible {
		r.logger.Debug("coupon ineligible", zap.String("code", code), zap.String("reason", res.Reason))
	}
	return res, nil
}

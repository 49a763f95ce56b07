package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, key, sku, name, COALESCE(description, ''), COALESCE(vendor_id, ''), price_cents, currency, attributes, created_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Key, &p.SKU, &p.Name, &p.Description, &p.VendorID, &p.PriceCents, &p.Currency, &p.Attributes, &p.CreatedAt)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, key`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("product list failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("product list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Exists(ctx context.Context, productRef string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE key = $1 OR id::text = $1)`, productRef).Scan(&ok)
	if err != nil {
		r.logger.Error("product exists failed", zap.String("product", productRef), zap.Error(err))
		return false, err
	}
	return ok, nil
}

func (r *postgresRepo) PriceOf(ctx context.Context, productRef, variationRef string) (domain.Money, error) {
	var cents int64
	var err error
	if variationRef == "" {
		err = r.pool.QueryRow(ctx, `SELECT price_cents FROM products WHERE key = $1 OR id::text = $1`, productRef).Scan(&cents)
	} else {
		err = r.pool.QueryRow(ctx, `
SELECT v.price_cents
FROM product_variations v
JOIN products p ON p.id = v.product_id
WHERE (p.key = $1 OR p.id::text = $1) AND (v.sku = $2 OR v.id::text = $2)
`, productRef, variationRef).Scan(&cents)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zero, domain.ErrNotFound
		}
		r.logger.Error("product price failed", zap.String("product", productRef), zap.String("variation", variationRef), zap.Error(err))
		return domain.Zero, err
	}
	return domain.Cents(cents), nil
}

func (r *postgresRepo) Describe(ctx context.Context, productRef string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE key = $1 OR id::text = $1`
	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, q, productRef), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product describe failed", zap.String("product", productRef), zap.Error(err))
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, sku, price_cents, attributes
FROM product_variations
WHERE product_id = $1
ORDER BY sku
`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v := domain.Variation{ProductID: p.ID}
		if err := rows.Scan(&v.ID, &v.SKU, &v.PriceCents, &v.Attributes); err != nil {
			return nil, err
		}
		p.Variations = append(p.Variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes a product and replaces its variations in one transaction.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO products (id, key, sku, name, description, vendor_id, price_cents, currency, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, COALESCE($9, '{}'::jsonb))
ON CONFLICT (key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    vendor_id = EXCLUDED.vendor_id,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    attributes = EXCLUDED.attributes
RETURNING id::text, created_at
`
	res := product
	err = tx.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		product.VendorID,
		product.PriceCents,
		product.Currency,
		product.Attributes,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product upsert failed", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_variations WHERE product_id = $1`, res.ID); err != nil {
		return nil, err
	}
	res.Variations = nil
	for _, v := range product.Variations {
		attrs := v.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		var id string
		if err := tx.QueryRow(ctx, `
INSERT INTO product_variations (product_id, sku, price_cents, attributes)
VALUES ($1, $2, $3, $4)
RETURNING id::text
`, res.ID, v.SKU, v.PriceCents, attrs).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert variation %s: %w", v.SKU, err)
		}
		v.ID = id
		v.ProductID = res.ID
		res.Variations = append(res.Variations, v)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("product upserted",
		zap.String("key", res.Key),
		zap.String("id", res.ID),
		zap.Int("variations", len(res.Variations)),
	)
	return &res, nil
}

func (r *postgresRepo) UpsertVendor(ctx context.Context, vendor domain.Vendor) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO vendors (id, name, country, city)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    country = EXCLUDED.country,
    city = EXCLUDED.city
`, vendor.ID, vendor.Name, vendor.Country, vendor.City)
	if err != nil {
		r.logger.Error("vendor upsert failed", zap.String("vendor", vendor.ID), zap.Error(err))
		return err
	}
	return nil
}

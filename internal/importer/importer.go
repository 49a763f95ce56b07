package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertVendor(ctx context.Context, vendor domain.Vendor) error
}

// CSVImporter reads catalog CSV exports and inserts/updates products with
// their vendors and variations.
//
// A row with a key starts a product. Rows without a key that carry a
// variation.sku add a variation to the current product; rows that only
// carry an image URL append to its images.
type CSVImporter struct {
	reader  *csv.Reader
	catalog CatalogWriter
	logger  *zap.Logger
	vendors map[string]bool
}

func NewCSVImporter(r io.Reader, catalog CatalogWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:  csvr,
		catalog: catalog,
		logger:  logger,
		vendors: map[string]bool{},
	}
}

type csvRow struct {
	ID         string
	Key        string
	Name       string
	Desc       string
	SKU        string
	Cents      int64
	Currency   string
	Vendor     domain.Vendor
	ImageURLs  []string
	Variations []domain.Variation
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row, variation, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil && variation == nil {
			continue
		}

		if row != nil && row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			if variation != nil {
				current.Variations = append(current.Variations, *variation)
			}
			continue
		}

		if current == nil {
			return imported, fmt.Errorf("line %d: continuation row before any product", line)
		}
		if variation != nil {
			current.Variations = append(current.Variations, *variation)
		}
		if row != nil {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("catalog import finished", zap.Int("products", imported), zap.Int("vendors", len(i.vendors)))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Key == "" || row.Name == "" || row.SKU == "" || row.Cents <= 0 || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for key %q", row.Key)
	}
	if row.ID != "" {
		if _, err := uuid.Parse(row.ID); err != nil {
			return fmt.Errorf("invalid id for key %q: %s", row.Key, row.ID)
		}
	}

	if row.Vendor.ID != "" && !i.vendors[row.Vendor.ID] {
		if err := i.catalog.UpsertVendor(ctx, row.Vendor); err != nil {
			return fmt.Errorf("upsert vendor %q: %w", row.Vendor.ID, err)
		}
		i.vendors[row.Vendor.ID] = true
	}

	attrs := map[string]interface{}{}
	if len(row.ImageURLs) > 0 {
		attrs["images"] = row.ImageURLs
	}

	p := domain.Product{
		ID:          row.ID,
		Key:         row.Key,
		SKU:         row.SKU,
		Name:        row.Name,
		Description: row.Desc,
		VendorID:    row.Vendor.ID,
		PriceCents:  row.Cents,
		Currency:    row.Currency,
		Attributes:  attrs,
		Variations:  row.Variations,
	}

	if _, err := i.catalog.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, *domain.Variation, error) {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "images.url")
	variationSKU := pick(record, index, "variation.sku")

	var variation *domain.Variation
	if variationSKU != "" {
		cents, err := parseCents(pick(record, index, "variation.price"))
		if err != nil {
			return nil, nil, fmt.Errorf("variation %s: %w", variationSKU, err)
		}
		variation = &domain.Variation{
			SKU:        variationSKU,
			PriceCents: cents,
			Attributes: variationAttributes(record, index),
		}
	}

	if key == "" && imageURL == "" {
		return nil, variation, nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		Key:      key,
		Name:     pick(record, index, "name"),
		Desc:     pick(record, index, "description"),
		SKU:      pick(record, index, "sku"),
		Currency: strings.ToUpper(pick(record, index, "currency")),
		Vendor: domain.Vendor{
			ID:      pick(record, index, "vendor.id"),
			Name:    pick(record, index, "vendor.name"),
			Country: pick(record, index, "vendor.country"),
			City:    pick(record, index, "vendor.city"),
		},
	}
	if row.Vendor.ID != "" && row.Vendor.Name == "" {
		row.Vendor.Name = row.Vendor.ID
	}
	if key != "" {
		cents, err := parseCents(pick(record, index, "price"))
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", key, err)
		}
		row.Cents = cents
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row, variation, nil
}

// parseCents reads a decimal amount such as "19.99" into minor units.
func parseCents(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", raw)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	return domain.ToCents(d), nil
}

// variationAttributes collects "variation.attr.<name>" columns.
func variationAttributes(record []string, index map[string]int) map[string]string {
	const prefix = "variation.attr."
	attrs := map[string]string{}
	for header := range index {
		if !strings.HasPrefix(header, prefix) {
			continue
		}
		if v := pick(record, index, header); v != "" {
			attrs[strings.TrimPrefix(header, prefix)] = v
		}
	}
	return attrs
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

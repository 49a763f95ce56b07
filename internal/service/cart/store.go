package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"appcheckout/internal/domain"
)

// Catalog prices and describes products for the cart.
type Catalog interface {
	Exists(ctx context.Context, productID string) (bool, error)
	PriceOf(ctx context.Context, productID, variationID string) (domain.Money, error)
	Describe(ctx context.Context, productID string) (*domain.Product, error)
}

// Store owns the ordered items of one session cart.
type Store struct {
	catalog Catalog
	items   []domain.CartItem
	now     func() time.Time
}

// NewStore wraps a copy of items loaded from the session.
func NewStore(catalog Catalog, items []domain.CartItem) *Store {
	return &Store{
		catalog: catalog,
		items:   cloneItems(items),
		now:     time.Now,
	}
}

// AddInput describes an add-to-cart request.
type AddInput struct {
	ProductID   string
	Quantity    int
	VariationID string
	Variation   map[string]string
	LineData    map[string]string
}

// Add upserts an item and returns its key. Re-adding an existing key sums quantities.
func (s *Store) Add(ctx context.Context, in AddInput) (string, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return "", domain.Validation(domain.CodeInvalidRequest, "product id required")
	}
	if in.Quantity <= 0 {
		return "", domain.ErrInvalidQuantity
	}
	if s.catalog == nil {
		return "", domain.Collaborator(domain.CodeCatalogUnavailable, "catalog unavailable", nil)
	}

	ok, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return "", domain.Collaborator(domain.CodeCatalogUnavailable, "catalog unavailable", err)
	}
	if !ok {
		return "", domain.NotFound(domain.CodeProductNotFound, "product not found")
	}
	price, err := s.catalog.PriceOf(ctx, productID, in.VariationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NotFound(domain.CodeProductNotFound, "product variation not found")
		}
		return "", domain.Collaborator(domain.CodeCatalogUnavailable, "product could not be priced", err)
	}
	product, err := s.catalog.Describe(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.NotFound(domain.CodeProductNotFound, "product not found")
		}
		return "", domain.Collaborator(domain.CodeCatalogUnavailable, "catalog unavailable", err)
	}

	key := ItemKey(productID, in.VariationID, in.Variation, in.LineData)
	if idx := s.indexOf(key); idx >= 0 {
		item := &s.items[idx]
		item.Quantity += in.Quantity
		item.UnitPrice = price
		item.RecalculateLine()
		return key, nil
	}

	item := domain.CartItem{
		Key:         key,
		ProductID:   productID,
		VariationID: in.VariationID,
		Variation:   cloneMap(in.Variation),
		LineData:    cloneMap(in.LineData),
		Name:        product.Name,
		VendorID:    product.VendorID,
		Quantity:    in.Quantity,
		UnitPrice:   price,
		AddedAt:     s.now().UTC(),
	}
	item.RecalculateLine()
	s.items = append(s.items, item)
	return key, nil
}

// SetQuantity replaces the quantity of an existing item. Zero and negative
// quantities are rejected; removal is a separate operation.
func (s *Store) SetQuantity(key string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	idx := s.indexOf(key)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	s.items[idx].Quantity = quantity
	s.items[idx].RecalculateLine()
	return nil
}

// Remove deletes an item by key.
func (s *Store) Remove(key string) error {
	idx := s.indexOf(key)
	if idx < 0 {
		return domain.ErrItemNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return nil
}

// Items returns the items in insertion order.
func (s *Store) Items() []domain.CartItem {
	return cloneItems(s.items)
}

// Get returns a single item by key.
func (s *Store) Get(key string) (domain.CartItem, bool) {
	idx := s.indexOf(key)
	if idx < 0 {
		return domain.CartItem{}, false
	}
	return s.items[idx], true
}

// Len reports the number of distinct items.
func (s *Store) Len() int {
	return len(s.items)
}

// Quantity reports the total quantity across items.
func (s *Store) Quantity() int {
	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.items = nil
}

func (s *Store) indexOf(key string) int {
	for i := range s.items {
		if s.items[i].Key == key {
			return i
		}
	}
	return -1
}

func cloneItems(in []domain.CartItem) []domain.CartItem {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.CartItem, len(in))
	for i, it := range in {
		it.Variation = cloneMap(it.Variation)
		it.LineData = cloneMap(it.LineData)
		out[i] = it
	}
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

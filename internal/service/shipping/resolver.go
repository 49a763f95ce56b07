package shipping

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"appcheckout/internal/domain"
)

// DefaultGroupKey groups items without a vendor.
const DefaultGroupKey = "store"

const maxConcurrentQuotes = 4

// Quoter returns candidate rates for a package. An empty result means no
// rates are available and is not an error.
type Quoter interface {
	Quote(ctx context.Context, contents []domain.CartItem, destination domain.Address) ([]domain.ShippingRate, error)
}

// Resolver partitions carts into packages and resolves their rates.
type Resolver struct {
	quoter Quoter
	logger *zap.Logger
}

func NewResolver(quoter Quoter, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{quoter: quoter, logger: logger}
}

// Partition groups items by fulfilling vendor in first-seen order.
func Partition(items []domain.CartItem, destination domain.Address) []domain.ShippingPackage {
	var packages []domain.ShippingPackage
	index := map[string]int{}
	for _, it := range items {
		group := it.VendorID
		if group == "" {
			group = DefaultGroupKey
		}
		i, ok := index[group]
		if !ok {
			i = len(packages)
			index[group] = i
			packages = append(packages, domain.ShippingPackage{
				GroupKey:    group,
				Destination: destination,
			})
		}
		packages[i].ItemKeys = append(packages[i].ItemKeys, it.Key)
	}
	return packages
}

// Contents returns the items belonging to a package, in cart order.
func Contents(pkg domain.ShippingPackage, items []domain.CartItem) []domain.CartItem {
	keys := make(map[string]bool, len(pkg.ItemKeys))
	for _, k := range pkg.ItemKeys {
		keys[k] = true
	}
	var out []domain.CartItem
	for _, it := range items {
		if keys[it.Key] {
			out = append(out, it)
		}
	}
	return out
}

// Resolve partitions the cart and quotes every package. A quote failure
// leaves that package with no rates and marks it degraded; other packages
// are unaffected.
func (r *Resolver) Resolve(ctx context.Context, items []domain.CartItem, destination domain.Address) []domain.ShippingPackage {
	packages := Partition(items, destination)
	if len(packages) == 0 || r.quoter == nil {
		return packages
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentQuotes)
	for i := range packages {
		contents := Contents(packages[i], items)
		g.Go(func() error {
			rates, err := r.quoter.Quote(ctx, contents, destination)
			if err != nil {
				r.logger.Warn("rate quote failed, package degraded",
					zap.Int("package", i),
					zap.String("group", packages[i].GroupKey),
					zap.Error(err),
				)
				packages[i].Rates = []domain.ShippingRate{}
				packages[i].Degraded = true
				return nil
			}
			packages[i].Rates = dedupe(rates)
			return nil
		})
	}
	_ = g.Wait()
	return packages
}

// ApplySelections sets each package's selection from rate ids chosen per
// group key. It returns the group keys whose choice can no longer be used,
// either because the rate is not offered anymore or because the package is
// gone; those choices must be forgotten.
func ApplySelections(packages []domain.ShippingPackage, chosen map[string]string) []string {
	var dropped []string
	present := make(map[string]bool, len(packages))
	for i := range packages {
		packages[i].SelectedID = ""
		group := packages[i].GroupKey
		present[group] = true
		id, ok := chosen[group]
		if !ok || id == "" {
			continue
		}
		if _, ok := packages[i].Rate(id); !ok {
			dropped = append(dropped, group)
			continue
		}
		packages[i].SelectedID = id
	}
	for group := range chosen {
		if !present[group] {
			dropped = append(dropped, group)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// IndexOf returns the position of the package for a group key, or -1.
func IndexOf(packages []domain.ShippingPackage, group string) int {
	for i, p := range packages {
		if p.GroupKey == group {
			return i
		}
	}
	return -1
}

// Select picks a rate for one package. The id must be in that package's
// current rate list.
func Select(packages []domain.ShippingPackage, index int, rateID string) error {
	if index < 0 || index >= len(packages) {
		return domain.NotFound(domain.CodePackageNotFound, fmt.Sprintf("shipping package %d not found", index))
	}
	if _, ok := packages[index].Rate(rateID); !ok {
		return domain.ErrUnknownRate
	}
	packages[index].SelectedID = rateID
	return nil
}

// PackageName labels a package the way customers see it.
func PackageName(index int) string {
	if index == 0 {
		return "Shipping"
	}
	return fmt.Sprintf("Shipping %d", index+1)
}

func dedupe(rates []domain.ShippingRate) []domain.ShippingRate {
	out := make([]domain.ShippingRate, 0, len(rates))
	seen := make(map[string]bool, len(rates))
	for _, r := range rates {
		if r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

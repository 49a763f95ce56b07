package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/shipping"
)

// RateView is one shipping method as offered to the customer.
type RateView struct {
	ID    string
	Label string
	Cost  domain.Money
	// Display is the label with the formatted cost.
	Display string
}

// PackageView describes one shipping package and its methods.
type PackageView struct {
	Index                 int
	Name                  string
	Details               string
	VendorID              string
	Destination           string
	Methods               []RateView
	Chosen                string
	Degraded              bool
	HasCalculatedShipping bool
}

// RejectedSelection reports a selection that could not be applied.
type RejectedSelection struct {
	Index   int
	RateID  string
	Code    string
	Message string
}

// ShippingUpdate is the result of UpdateShipping. A non-empty Rejected list
// means a partial failure: the other selections were applied.
type ShippingUpdate struct {
	Totals         domain.Totals
	Rejected       []RejectedSelection
	ReloadCheckout bool
	Messages       []string
}

// GetShippingOptions runs the full pass and returns package views.
func (o *Orchestrator) GetShippingOptions(ctx context.Context, sessionID string) ([]PackageView, error) {
	s, err := o.run(ctx, sessionID, "get_shipping_options", refresh, func(ctx context.Context, s *Session) error {
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.packageViews(o.pricing.Currency()), nil
}

// UpdateShipping merges per-package rate selections into the session and
// re-runs the pass. Packages not mentioned keep their current choice. When
// every selection is rejected nothing is stored and the first error is
// returned.
func (o *Orchestrator) UpdateShipping(ctx context.Context, sessionID string, selections map[int]string) (*ShippingUpdate, error) {
	var rejected []RejectedSelection
	s, err := o.run(ctx, sessionID, "update_shipping", write, func(ctx context.Context, s *Session) error {
		if len(selections) == 0 {
			return domain.Validation(domain.CodeInvalidRequest, "no shipping selections given")
		}
		if s.Cart.Len() == 0 {
			return domain.State(domain.CodeEmptyCart, "cart is empty")
		}
		if s.Packages == nil {
			s.Packages = o.resolver.Resolve(ctx, s.Cart.Items(), s.Address.Destination())
		}

		indexes := make([]int, 0, len(selections))
		for idx := range selections {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)

		var firstErr error
		applied := 0
		for _, idx := range indexes {
			id := strings.TrimSpace(selections[idx])
			if err := shipping.Select(s.Packages, idx, id); err != nil {
				de := domain.AsError(err)
				rejected = append(rejected, RejectedSelection{Index: idx, RateID: id, Code: de.Code, Message: de.Message})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			s.Chosen[s.Packages[idx].GroupKey] = id
			applied++
		}
		if applied == 0 {
			return firstErr
		}
		if len(rejected) > 0 {
			s.ReloadCheckout = true
		}
		s.touch()
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ShippingUpdate{
		Totals:         s.Totals,
		Rejected:       rejected,
		ReloadCheckout: s.ReloadCheckout,
		Messages:       s.Messages,
	}, nil
}

func (s *Session) packageViews(currency string) []PackageView {
	items := s.Cart.Items()
	views := make([]PackageView, 0, len(s.Packages))
	for i, p := range s.Packages {
		view := PackageView{
			Index:                 i,
			Name:                  shipping.PackageName(i),
			VendorID:              p.GroupKey,
			Destination:           p.Destination.Formatted(),
			Chosen:                p.SelectedID,
			Degraded:              p.Degraded,
			HasCalculatedShipping: p.Destination.Country != "",
			Methods:               make([]RateView, 0, len(p.Rates)),
		}
		if len(s.Packages) > 1 {
			view.Details = packageDetails(shipping.Contents(p, items))
		}
		for _, r := range p.Rates {
			view.Methods = append(view.Methods, RateView{
				ID:      r.ID,
				Label:   r.Label,
				Cost:    r.Cost,
				Display: rateDisplay(r, currency),
			})
		}
		views = append(views, view)
	}
	return views
}

func packageDetails(items []domain.CartItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = it.ProductID
		}
		parts = append(parts, fmt.Sprintf("%s ×%d", name, it.Quantity))
	}
	return strings.Join(parts, ", ")
}

func rateDisplay(r domain.ShippingRate, currency string) string {
	if r.Cost.IsZero() {
		return r.Label
	}
	return fmt.Sprintf("%s: %s %s", r.Label, r.Cost.StringFixed(domain.MoneyPlaces), currency)
}

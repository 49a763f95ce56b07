package checkout

import (
	"context"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
)

// CartView is the response payload of cart operations.
type CartView struct {
	SessionID      string
	Version        int
	State          domain.CheckoutState
	Items          []domain.CartItem
	Coupons        []domain.AppliedCoupon
	Totals         domain.Totals
	Messages       []string
	ReloadCheckout bool
}

func (s *Session) cartView() *CartView {
	return &CartView{
		SessionID:      s.ID,
		Version:        s.Version,
		State:          s.State,
		Items:          s.Cart.Items(),
		Coupons:        s.Coupons.Applied(),
		Totals:         s.Totals,
		Messages:       s.Messages,
		ReloadCheckout: s.ReloadCheckout,
	}
}

// AddItem adds a product line and returns the item key.
func (o *Orchestrator) AddItem(ctx context.Context, sessionID string, in cart.AddInput) (string, *CartView, error) {
	var key string
	s, err := o.run(ctx, sessionID, "add_item", write, func(ctx context.Context, s *Session) error {
		k, err := s.Cart.Add(ctx, in)
		if err != nil {
			return err
		}
		key = k
		s.touch()
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return key, s.cartView(), nil
}

// SetQuantity replaces an item's quantity. Zero or negative quantities are
// rejected and the item is left unchanged.
func (o *Orchestrator) SetQuantity(ctx context.Context, sessionID, itemKey string, quantity int) (*CartView, error) {
	s, err := o.run(ctx, sessionID, "set_quantity", write, func(ctx context.Context, s *Session) error {
		if err := s.Cart.SetQuantity(itemKey, quantity); err != nil {
			return err
		}
		s.touch()
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.cartView(), nil
}

func (o *Orchestrator) RemoveItem(ctx context.Context, sessionID, itemKey string) (*CartView, error) {
	s, err := o.run(ctx, sessionID, "remove_item", write, func(ctx context.Context, s *Session) error {
		if err := s.Cart.Remove(itemKey); err != nil {
			return err
		}
		s.touch()
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.cartView(), nil
}

// ApplyCoupon validates and records a coupon code.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, sessionID, code string) (*CartView, error) {
	s, err := o.run(ctx, sessionID, "apply_coupon", write, func(ctx context.Context, s *Session) error {
		if _, err := s.Coupons.Apply(ctx, code, s.Cart.Items()); err != nil {
			return err
		}
		s.touch()
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.cartView(), nil
}

// RemoveCoupon drops a coupon. Removing a code that is not applied is a
// successful no-op and reports false.
func (o *Orchestrator) RemoveCoupon(ctx context.Context, sessionID, code string) (bool, *CartView, error) {
	var removed bool
	s, err := o.run(ctx, sessionID, "remove_coupon", refresh, func(ctx context.Context, s *Session) error {
		ok, err := s.Coupons.Remove(code)
		if err != nil {
			return err
		}
		removed = ok
		if ok {
			s.touch()
		}
		o.recalculate(ctx, s)
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return removed, s.cartView(), nil
}

// GetCart returns the cart with totals priced from the stored packages.
func (o *Orchestrator) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	s, err := o.run(ctx, sessionID, "get_cart", readOnly, func(context.Context, *Session) error {
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.cartView(), nil
}

// GetTotals returns current totals. With withShipping the full pass runs
// first; without it the stored packages are priced as they are and the
// shipping total may be unresolved.
func (o *Orchestrator) GetTotals(ctx context.Context, sessionID string, withShipping bool) (*domain.Totals, error) {
	mode := readOnly
	if withShipping {
		mode = refresh
	}
	s, err := o.run(ctx, sessionID, "get_totals", mode, func(ctx context.Context, s *Session) error {
		if withShipping {
			o.recalculate(ctx, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	totals := s.Totals
	return &totals, nil
}

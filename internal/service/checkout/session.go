package checkout

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
	"appcheckout/internal/service/coupon"
	"appcheckout/internal/service/shipping"
)

// Session is the explicit per-call checkout context: identity, address
// snapshot and the stores for one customer session.
type Session struct {
	ID            string
	Version       int
	State         domain.CheckoutState
	CreatedAt     time.Time
	Cart          *cart.Store
	Coupons       *coupon.Ledger
	Address       domain.CustomerAddress
	Packages      []domain.ShippingPackage
	Chosen        map[string]string
	PaymentMethod string
	OrderRef      string
	Totals        domain.Totals

	// Messages are non-fatal notices gathered during this call.
	Messages       []string
	ReloadCheckout bool
}

func (o *Orchestrator) open(state *domain.SessionState) *Session {
	chosen := make(map[string]string, len(state.ChosenRates))
	for k, v := range state.ChosenRates {
		chosen[k] = v
	}
	s := &Session{
		ID:            state.ID,
		Version:       state.Version,
		State:         state.State,
		CreatedAt:     state.CreatedAt,
		Cart:          cart.NewStore(o.catalog, state.Items),
		Coupons:       coupon.NewLedger(o.coupons, state.Coupons),
		Address:       state.Address,
		Packages:      clonePackages(state.Packages),
		Chosen:        chosen,
		PaymentMethod: state.PaymentMethod,
		OrderRef:      state.OrderRef,
	}
	if s.State == "" {
		s.State = domain.StateEmpty
	}
	o.price(s)
	return s
}

func (s *Session) snapshot() *domain.SessionState {
	chosen := make(map[string]string, len(s.Chosen))
	for k, v := range s.Chosen {
		chosen[k] = v
	}
	return &domain.SessionState{
		ID:            s.ID,
		Version:       s.Version,
		State:         s.State,
		Items:         s.Cart.Items(),
		Coupons:       s.Coupons.Applied(),
		Address:       s.Address,
		Packages:      clonePackages(s.Packages),
		ChosenRates:   chosen,
		PaymentMethod: s.PaymentMethod,
		OrderRef:      s.OrderRef,
		CreatedAt:     s.CreatedAt,
	}
}

// touch moves the session back to Active after a mutation, or Empty when
// nothing is left in the cart.
func (s *Session) touch() {
	if s.Cart.Len() == 0 {
		s.State = domain.StateEmpty
		return
	}
	s.State = domain.StateActive
}

// recalculate is the mandatory pass: resolve shipping for the current
// contents and destination, re-apply chosen rates, re-check coupons, then
// price. Shipping must be resolved before pricing.
func (o *Orchestrator) recalculate(ctx context.Context, s *Session) {
	ctx, span := o.tracer.Start(ctx, "checkout.recalculate", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	items := s.Cart.Items()
	s.Packages = o.resolver.Resolve(ctx, items, s.Address.Destination())
	for _, group := range shipping.ApplySelections(s.Packages, s.Chosen) {
		delete(s.Chosen, group)
		// A package that disappeared with its items needs no notice.
		if idx := shipping.IndexOf(s.Packages, group); idx >= 0 {
			s.Messages = append(s.Messages, fmt.Sprintf("The shipping method chosen for %s is no longer available.", shipping.PackageName(idx)))
			s.ReloadCheckout = true
		}
	}

	for _, msg := range s.Coupons.Revalidate(ctx, items) {
		o.logger.Warn("coupon revalidation", zap.String("session_id", s.ID), zap.String("message", msg))
		s.Messages = append(s.Messages, msg)
	}

	o.price(s)
	span.SetAttributes(
		attribute.Int("checkout.packages", len(s.Packages)),
		attribute.Bool("checkout.shipping_resolved", s.Totals.ShippingResolved),
	)
}

// price recomputes totals from the stored packages without re-quoting.
func (o *Orchestrator) price(s *Session) {
	s.Totals = o.pricing.Recompute(s.Cart.Items(), s.Coupons.Applied(), s.Packages)
}

func clonePackages(in []domain.ShippingPackage) []domain.ShippingPackage {
	if in == nil {
		return nil
	}
	out := make([]domain.ShippingPackage, len(in))
	for i, p := range in {
		p.ItemKeys = append([]string(nil), p.ItemKeys...)
		p.Rates = append([]domain.ShippingRate(nil), p.Rates...)
		out[i] = p
	}
	return out
}

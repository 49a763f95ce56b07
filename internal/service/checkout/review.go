package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/shipping"
)

// ReviewInput carries the order review form.
type ReviewInput struct {
	Address       domain.CustomerAddress
	Selections    map[int]string
	PaymentMethod string
}

// Review is the rendered order review.
type Review struct {
	SessionID      string
	State          domain.CheckoutState
	Items          []domain.CartItem
	Coupons        []domain.AppliedCoupon
	Packages       []PackageView
	Totals         domain.Totals
	Messages       []string
	ReloadCheckout bool
}

// UpdateOrderReview stores the address and selections, re-resolves shipping
// and returns the review. An empty cart means the session has expired.
func (o *Orchestrator) UpdateOrderReview(ctx context.Context, sessionID string, in ReviewInput) (*Review, error) {
	s, err := o.run(ctx, sessionID, "update_order_review", write, func(ctx context.Context, s *Session) error {
		if s.Cart.Len() == 0 {
			return domain.ErrExpiredSession
		}
		s.Address = in.Address
		packages := shipping.Partition(s.Cart.Items(), s.Address.Destination())
		for idx, id := range in.Selections {
			id = strings.TrimSpace(id)
			if id == "" || idx < 0 || idx >= len(packages) {
				continue
			}
			s.Chosen[packages[idx].GroupKey] = id
		}
		if pm := strings.TrimSpace(in.PaymentMethod); pm != "" {
			s.PaymentMethod = pm
		}
		o.recalculate(ctx, s)
		s.State = domain.StateReviewPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Review{
		SessionID:      s.ID,
		State:          s.State,
		Items:          s.Cart.Items(),
		Coupons:        s.Coupons.Applied(),
		Packages:       s.packageViews(o.pricing.Currency()),
		Totals:         s.Totals,
		Messages:       s.Messages,
		ReloadCheckout: s.ReloadCheckout,
	}, nil
}

// Finalize places the order once the cart is non-empty and every package
// has a selected rate. The session is saved as Finalizing before the order
// is placed; it moves to Completed only when placement succeeds and stays
// Finalizing otherwise so the caller can retry.
func (o *Orchestrator) Finalize(ctx context.Context, sessionID, paymentMethod string) (*domain.OrderReference, error) {
	var ref *domain.OrderReference
	_, err := o.run(ctx, sessionID, "finalize", write, func(ctx context.Context, s *Session) error {
		if s.Cart.Len() == 0 {
			return domain.State(domain.CodeEmptyCart, "cannot finalize an empty cart")
		}
		if pm := strings.TrimSpace(paymentMethod); pm != "" {
			s.PaymentMethod = pm
		}
		if s.PaymentMethod == "" {
			return domain.Validation(domain.CodeInvalidRequest, "payment method required")
		}
		o.recalculate(ctx, s)
		if !s.Totals.ShippingResolved {
			return domain.State(domain.CodeShippingUnresolved, "select a shipping method for every package")
		}
		if o.orders == nil {
			return domain.Collaborator(domain.CodePlacementFailed, "order placement unavailable", nil)
		}

		// Retries of a finalizing session keep its version, and with it the
		// idempotency key.
		if s.State != domain.StateFinalizing {
			s.State = domain.StateFinalizing
			if err := o.save(ctx, s); err != nil {
				return err
			}
		}

		placed, err := o.orders.PlaceOrder(ctx, domain.OrderRequest{
			SessionID:      s.ID,
			Items:          s.Cart.Items(),
			Coupons:        s.Coupons.Applied(),
			Packages:       clonePackages(s.Packages),
			Totals:         s.Totals,
			Address:        s.Address,
			PaymentMethod:  s.PaymentMethod,
			IdempotencyKey: fmt.Sprintf("%s:%d", s.ID, s.Version),
		})
		if err == nil && placed == nil {
			err = errors.New("order placer returned no reference")
		}
		if err != nil {
			o.logger.Warn("order placement failed", zap.String("session_id", s.ID), zap.Error(err))
			return domain.Collaborator(domain.CodePlacementFailed, "order could not be placed", err)
		}

		ref = placed
		s.OrderRef = placed.ID
		s.Cart.Clear()
		s.Coupons.Clear()
		s.Packages = nil
		s.Chosen = map[string]string{}
		s.State = domain.StateCompleted
		o.price(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

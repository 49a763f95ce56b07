package pricing

import (
	"github.com/shopspring/decimal"

	"appcheckout/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Engine derives totals from cart, coupon and shipping state.
type Engine struct {
	currency string
}

func New(currency string) *Engine {
	if currency == "" {
		currency = "USD"
	}
	return &Engine{currency: currency}
}

// Currency reports the currency totals are expressed in.
func (e *Engine) Currency() string {
	return e.currency
}

// Recompute is a pure function of its inputs. Packages must already be
// resolved for the shipping total to be final.
func (e *Engine) Recompute(items []domain.CartItem, coupons []domain.AppliedCoupon, packages []domain.ShippingPackage) domain.Totals {
	subtotal := domain.Subtotal(items)
	shipping, resolved := shippingTotal(items, packages)

	perCoupon := make(map[string]domain.Money, len(coupons))
	goods := domain.Zero
	shippingDiscount := domain.Zero
	for _, c := range coupons {
		// Each coupon is rounded on its own so the breakdown adds up to the
		// discount total.
		var amount domain.Money
		switch c.Rule.Kind {
		case domain.DiscountPercent:
			amount = domain.RoundMoney(subtotal.Mul(c.Rule.Amount).Div(hundred))
			amount = capAt(amount, subtotal.Sub(goods))
			goods = goods.Add(amount)
		case domain.DiscountFixedCart:
			amount = capAt(domain.RoundMoney(c.Rule.Amount), subtotal.Sub(goods))
			goods = goods.Add(amount)
		case domain.DiscountFreeShipping:
			amount = shipping.Sub(shippingDiscount)
			shippingDiscount = shippingDiscount.Add(amount)
		default:
			amount = domain.Zero
		}
		perCoupon[c.Code] = amount
	}

	discount := goods.Add(shippingDiscount)
	grand := domain.RoundMoney(subtotal.Sub(discount).Add(shipping))
	if grand.IsNegative() {
		grand = domain.Zero
	}

	return domain.Totals{
		Subtotal:         domain.RoundMoney(subtotal),
		DiscountTotal:    discount,
		ShippingTotal:    shipping,
		GrandTotal:       grand,
		CouponDiscounts:  perCoupon,
		ShippingResolved: resolved,
		Currency:         e.currency,
	}
}

// shippingTotal sums selected rates. Shipping is resolved when every
// package has a valid selection; an empty cart needs no shipping.
func shippingTotal(items []domain.CartItem, packages []domain.ShippingPackage) (domain.Money, bool) {
	if len(packages) == 0 {
		return domain.Zero, len(items) == 0
	}
	total := domain.Zero
	resolved := true
	for _, p := range packages {
		rate, ok := p.Selected()
		if !ok {
			resolved = false
			continue
		}
		total = total.Add(rate.Cost)
	}
	return domain.RoundMoney(total), resolved
}

func capAt(amount, limit domain.Money) domain.Money {
	if limit.IsNegative() {
		return domain.Zero
	}
	if amount.GreaterThan(limit) {
		return limit
	}
	if amount.IsNegative() {
		return domain.Zero
	}
	return amount
}

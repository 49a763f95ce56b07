package domain

import "time"

// DiscountKind describes how a coupon rule turns into a discount amount.
type DiscountKind string

const (
	DiscountPercent      DiscountKind = "percent"
	DiscountFixedCart    DiscountKind = "fixed_cart"
	DiscountFreeShipping DiscountKind = "free_shipping"
)

// DiscountRule is the validated effect of a coupon.
type DiscountRule struct {
	Kind   DiscountKind `json:"kind"`
	Amount Money        `json:"amount"`
}

// AppliedCoupon is a coupon recorded against a cart.
type AppliedCoupon struct {
	Code      string       `json:"code"`
	Rule      DiscountRule `json:"rule"`
	AppliedAt time.Time    `json:"appliedAt"`
}

// CouponDefinition is a stored coupon with its eligibility constraints.
type CouponDefinition struct {
	Code       string       `json:"code"`
	Rule       DiscountRule `json:"rule"`
	MinSpend   Money        `json:"minSpend"`
	ExpiresAt  *time.Time   `json:"expiresAt,omitempty"`
	UsageLimit int          `json:"usageLimit"`
	UsageCount int          `json:"usageCount"`
}

// Eligibility is the outcome of a coupon rule evaluation.
type Eligibility struct {
	Eligible bool
	Reason   string
	Rule     DiscountRule
}

// Evaluate checks the definition against a cart subtotal at the given time.
func (d CouponDefinition) Evaluate(subtotal Money, now time.Time) Eligibility {
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return Eligibility{Reason: "This coupon has expired."}
	}
	if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
		return Eligibility{Reason: "Coupon usage limit has been reached."}
	}
	if d.MinSpend.IsPositive() && subtotal.LessThan(d.MinSpend) {
		return Eligibility{Reason: "The minimum spend for this coupon is " + d.MinSpend.StringFixed(MoneyPlaces) + "."}
	}
	return Eligibility{Eligible: true, Rule: d.Rule}
}

// Subtotal sums line subtotals.
func Subtotal(items []CartItem) Money {
	total := Zero
	for _, it := range items {
		total = total.Add(it.LineSubtotal)
	}
	return total
}

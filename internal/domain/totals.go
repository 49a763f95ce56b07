package domain

// Totals is derived from cart, coupons and shipping packages.
type Totals struct {
	Subtotal         Money            `json:"subtotal"`
	DiscountTotal    Money            `json:"discountTotal"`
	ShippingTotal    Money            `json:"shippingTotal"`
	GrandTotal       Money            `json:"grandTotal"`
	CouponDiscounts  map[string]Money `json:"couponDiscounts,omitempty"`
	ShippingResolved bool             `json:"shippingResolved"`
	Currency         string           `json:"currency"`
}

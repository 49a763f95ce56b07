package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a session cart.
type CartItem struct {
	Key          string            `json:"key"`
	ProductID    string            `json:"productId"`
	VariationID  string            `json:"variationId,omitempty"`
	Variation    map[string]string `json:"variation,omitempty"`
	LineData     map[string]string `json:"lineData,omitempty"`
	Name         string            `json:"name"`
	VendorID     string            `json:"vendorId,omitempty"`
	Quantity     int               `json:"quantity"`
	UnitPrice    Money             `json:"unitPrice"`
	LineSubtotal Money             `json:"lineSubtotal"`
	AddedAt      time.Time         `json:"addedAt"`
}

// RecalculateLine refreshes the derived line subtotal, rounded once at line level.
func (i *CartItem) RecalculateLine() {
	i.LineSubtotal = RoundMoney(i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))))
}

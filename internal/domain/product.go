package domain

import "time"

// Product is a catalog entry as seen by the cart.
type Product struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"key"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	VendorID    string                 `json:"vendorId,omitempty"`
	PriceCents  int64                  `json:"priceCents"`
	Currency    string                 `json:"currency"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Variations  []Variation            `json:"variations,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Variation is a priced variant of a product.
type Variation struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"productId"`
	SKU        string            `json:"sku"`
	PriceCents int64             `json:"priceCents"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Vendor is a fulfilling store.
type Vendor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

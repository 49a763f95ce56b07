package httpserver

import (
	"time"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/checkout"
)

type moneyValue struct {
	Type           string `json:"type"`
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits"`
	Amount         string `json:"amount"`
}

func toMoney(m domain.Money, currency string) moneyValue {
	return moneyValue{
		Type:           "centPrecision",
		CurrencyCode:   currency,
		CentAmount:     domain.ToCents(m),
		FractionDigits: domain.MoneyPlaces,
		Amount:         domain.RoundMoney(m).StringFixed(domain.MoneyPlaces),
	}
}

type totalsResponse struct {
	Subtotal         moneyValue            `json:"subtotal"`
	DiscountTotal    moneyValue            `json:"discountTotal"`
	ShippingTotal    moneyValue            `json:"shippingTotal"`
	GrandTotal       moneyValue            `json:"grandTotal"`
	CouponDiscounts  map[string]moneyValue `json:"couponDiscounts,omitempty"`
	ShippingResolved bool                  `json:"shippingResolved"`
}

func toTotals(t domain.Totals, fallback string) totalsResponse {
	currency := t.Currency
	if currency == "" {
		currency = fallback
	}
	out := totalsResponse{
		Subtotal:         toMoney(t.Subtotal, currency),
		DiscountTotal:    toMoney(t.DiscountTotal, currency),
		ShippingTotal:    toMoney(t.ShippingTotal, currency),
		GrandTotal:       toMoney(t.GrandTotal, currency),
		ShippingResolved: t.ShippingResolved,
	}
	if len(t.CouponDiscounts) > 0 {
		out.CouponDiscounts = make(map[string]moneyValue, len(t.CouponDiscounts))
		for code, amt := range t.CouponDiscounts {
			out.CouponDiscounts[code] = toMoney(amt, currency)
		}
	}
	return out
}

type lineItemResponse struct {
	Key          string            `json:"key"`
	ProductID    string            `json:"productId"`
	VariationID  string            `json:"variationId,omitempty"`
	Variation    map[string]string `json:"variation,omitempty"`
	LineData     map[string]string `json:"lineData,omitempty"`
	Name         string            `json:"name"`
	VendorID     string            `json:"vendorId,omitempty"`
	Quantity     int               `json:"quantity"`
	UnitPrice    moneyValue        `json:"unitPrice"`
	LineSubtotal moneyValue        `json:"lineSubtotal"`
	AddedAt      time.Time         `json:"addedAt"`
}

type couponResponse struct {
	Code   string `json:"code"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

type cartResponse struct {
	SessionID      string             `json:"sessionId"`
	Version        int                `json:"version"`
	State          string             `json:"state"`
	LineItems      []lineItemResponse `json:"lineItems"`
	Coupons        []couponResponse   `json:"coupons"`
	TotalQuantity  int                `json:"totalLineItemQuantity"`
	Totals         totalsResponse     `json:"totals"`
	Messages       []string           `json:"messages,omitempty"`
	ReloadCheckout bool               `json:"reloadCheckout,omitempty"`
}

func toLineItems(items []domain.CartItem, currency string) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemResponse{
			Key:          it.Key,
			ProductID:    it.ProductID,
			VariationID:  it.VariationID,
			Variation:    it.Variation,
			LineData:     it.LineData,
			Name:         it.Name,
			VendorID:     it.VendorID,
			Quantity:     it.Quantity,
			UnitPrice:    toMoney(it.UnitPrice, currency),
			LineSubtotal: toMoney(it.LineSubtotal, currency),
			AddedAt:      it.AddedAt,
		})
	}
	return out
}

func toCoupons(coupons []domain.AppliedCoupon) []couponResponse {
	out := make([]couponResponse, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, couponResponse{
			Code:   c.Code,
			Kind:   string(c.Rule.Kind),
			Amount: c.Rule.Amount.StringFixed(domain.MoneyPlaces),
		})
	}
	return out
}

func toCart(v *checkout.CartView, currency string) cartResponse {
	qty := 0
	for _, it := range v.Items {
		qty += it.Quantity
	}
	return cartResponse{
		SessionID:      v.SessionID,
		Version:        v.Version,
		State:          string(v.State),
		LineItems:      toLineItems(v.Items, currency),
		Coupons:        toCoupons(v.Coupons),
		TotalQuantity:  qty,
		Totals:         toTotals(v.Totals, currency),
		Messages:       v.Messages,
		ReloadCheckout: v.ReloadCheckout,
	}
}

type rateResponse struct {
	ID      string     `json:"id"`
	Label   string     `json:"label"`
	Cost    moneyValue `json:"cost"`
	Display string     `json:"display"`
}

type packageResponse struct {
	Index                 int            `json:"index"`
	Name                  string         `json:"name"`
	Details               string         `json:"details,omitempty"`
	VendorID              string         `json:"vendorId"`
	Destination           string         `json:"destination"`
	Methods               []rateResponse `json:"methods"`
	Chosen                string         `json:"chosenMethod,omitempty"`
	Degraded              bool           `json:"degraded,omitempty"`
	HasCalculatedShipping bool           `json:"hasCalculatedShipping"`
}

func toPackages(pkgs []checkout.PackageView, currency string) []packageResponse {
	out := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		methods := make([]rateResponse, 0, len(p.Methods))
		for _, r := range p.Methods {
			methods = append(methods, rateResponse{
				ID:      r.ID,
				Label:   r.Label,
				Cost:    toMoney(r.Cost, currency),
				Display: r.Display,
			})
		}
		out = append(out, packageResponse{
			Index:                 p.Index,
			Name:                  p.Name,
			Details:               p.Details,
			VendorID:              p.VendorID,
			Destination:           p.Destination,
			Methods:               methods,
			Chosen:                p.Chosen,
			Degraded:              p.Degraded,
			HasCalculatedShipping: p.HasCalculatedShipping,
		})
	}
	return out
}

type rejectedResponse struct {
	Package int    `json:"package"`
	RateID  string `json:"rateId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type shippingUpdateResponse struct {
	Totals         totalsResponse     `json:"totals"`
	Rejected       []rejectedResponse `json:"rejected,omitempty"`
	ReloadCheckout bool               `json:"reloadCheckout,omitempty"`
	Messages       []string           `json:"messages,omitempty"`
}

func toShippingUpdate(u *checkout.ShippingUpdate, currency string) shippingUpdateResponse {
	out := shippingUpdateResponse{
		Totals:         toTotals(u.Totals, currency),
		ReloadCheckout: u.ReloadCheckout,
		Messages:       u.Messages,
	}
	for _, r := range u.Rejected {
		out.Rejected = append(out.Rejected, rejectedResponse{Package: r.Index, RateID: r.RateID, Code: r.Code, Message: r.Message})
	}
	return out
}

type reviewResponse struct {
	SessionID      string             `json:"sessionId"`
	State          string             `json:"state"`
	LineItems      []lineItemResponse `json:"lineItems"`
	Coupons        []couponResponse   `json:"coupons"`
	Packages       []packageResponse  `json:"packages"`
	Totals         totalsResponse     `json:"totals"`
	Messages       []string           `json:"messages,omitempty"`
	ReloadCheckout bool               `json:"reloadCheckout,omitempty"`
}

func toReview(r *checkout.Review, currency string) reviewResponse {
	return reviewResponse{
		SessionID:      r.SessionID,
		State:          string(r.State),
		LineItems:      toLineItems(r.Items, currency),
		Coupons:        toCoupons(r.Coupons),
		Packages:       toPackages(r.Packages, currency),
		Totals:         toTotals(r.Totals, currency),
		Messages:       r.Messages,
		ReloadCheckout: r.ReloadCheckout,
	}
}

type productResponse struct {
	ID         string           `json:"id"`
	Key        string           `json:"key"`
	SKU        string           `json:"sku"`
	Name       string           `json:"name"`
	VendorID   string           `json:"vendorId,omitempty"`
	Price      moneyValue       `json:"price"`
	Variations []variationEntry `json:"variations,omitempty"`
}

type variationEntry struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Price      moneyValue        `json:"price"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func toProduct(p domain.Product, fallback string) productResponse {
	currency := p.Currency
	if currency == "" {
		currency = fallback
	}
	out := productResponse{
		ID:       p.ID,
		Key:      p.Key,
		SKU:      p.SKU,
		Name:     p.Name,
		VendorID: p.VendorID,
		Price:    toMoney(domain.Cents(p.PriceCents), currency),
	}
	for _, v := range p.Variations {
		out.Variations = append(out.Variations, variationEntry{
			ID:         v.ID,
			SKU:        v.SKU,
			Price:      toMoney(domain.Cents(v.PriceCents), currency),
			Attributes: v.Attributes,
		})
	}
	return out
}

// Requests.

type addItemRequest struct {
	ProductID   string            `json:"productId" binding:"required"`
	Quantity    *int              `json:"quantity"`
	VariationID string            `json:"variationId"`
	Variation   map[string]string `json:"variation"`
	LineData    map[string]string `json:"lineData"`
}

type setQuantityRequest struct {
	Key      string `json:"key" binding:"required"`
	Quantity *int   `json:"quantity" binding:"required"`
}

type removeItemRequest struct {
	Key string `json:"key" binding:"required"`
}

type couponRequest struct {
	Code string `json:"code" binding:"required,couponcode"`
}

type updateShippingRequest struct {
	Selections map[int]string `json:"selections" binding:"required"`
}

type reviewRequest struct {
	Billing         domain.Address `json:"billing"`
	Shipping        domain.Address `json:"shipping"`
	ShipToDifferent bool           `json:"shipToDifferentAddress"`
	Selections      map[int]string `json:"selections"`
	PaymentMethod   string         `json:"paymentMethod"`
}

type finalizeRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

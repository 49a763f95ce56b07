package domain

import "strings"

// Address is a customer address snapshot.
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Formatted renders the address on one line.
func (a Address) Formatted() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	parts := []string{name, a.Company, a.Address1, a.Address2, a.City, a.State, a.Postcode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// CustomerAddress holds the session's billing and shipping snapshots.
type CustomerAddress struct {
	Billing         Address `json:"billing"`
	Shipping        Address `json:"shipping"`
	ShipToDifferent bool    `json:"shipToDifferentAddress"`
}

// Destination returns the address packages ship to.
func (c CustomerAddress) Destination() Address {
	if c.ShipToDifferent {
		return c.Shipping
	}
	return c.Billing
}

// ShippingRate is one priced shipping option for a package.
type ShippingRate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Cost  Money  `json:"cost"`
}

// ShippingPackage groups cart items quoted as a unit.
type ShippingPackage struct {
	GroupKey    string         `json:"groupKey"`
	Destination Address        `json:"destination"`
	ItemKeys    []string       `json:"itemKeys"`
	Rates       []ShippingRate `json:"rates"`
	SelectedID  string         `json:"selectedId,omitempty"`
	Degraded    bool           `json:"degraded,omitempty"`
}

// Selected returns the chosen rate if it is part of the current rate list.
func (p ShippingPackage) Selected() (ShippingRate, bool) {
	if p.SelectedID == "" {
		return ShippingRate{}, false
	}
	return p.Rate(p.SelectedID)
}

// Rate looks up a rate by id in the package's candidate list.
func (p ShippingPackage) Rate(id string) (ShippingRate, bool) {
	for _, r := range p.Rates {
		if r.ID == id {
			return r, true
		}
	}
	return ShippingRate{}, false
}

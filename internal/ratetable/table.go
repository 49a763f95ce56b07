package ratetable

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"appcheckout/internal/domain"
)

//go:embed default.yaml
var defaultTable []byte

// Wildcard matches any destination country.
const Wildcard = "*"

type fileTable struct {
	Zones []fileZone `yaml:"zones"`
}

type fileZone struct {
	Name      string       `yaml:"name"`
	Countries []string     `yaml:"countries"`
	Methods   []fileMethod `yaml:"methods"`
}

type fileMethod struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Cost      string `yaml:"cost"`
	PerItem   string `yaml:"per_item"`
	MinAmount string `yaml:"min_amount"`
}

// Method is one priced shipping method of a zone.
type Method struct {
	ID        string
	Label     string
	Cost      domain.Money
	PerItem   domain.Money
	MinAmount domain.Money
}

// Zone groups methods for a set of countries.
type Zone struct {
	Name      string
	Countries []string
	Methods   []Method
}

// Table quotes shipping from zones. Zones are matched by destination
// country in file order; a wildcard zone catches the rest.
type Table struct {
	zones   []Zone
	timeout time.Duration
}

type Option func(*Table)

// WithTimeout bounds each Quote call.
func WithTimeout(d time.Duration) Option {
	return func(t *Table) {
		t.timeout = d
	}
}

// Default returns the embedded table.
func Default(opts ...Option) (*Table, error) {
	return Parse(defaultTable, opts...)
}

// Load reads a YAML table from path, or the embedded default when path is empty.
func Load(path string, opts ...Option) (*Table, error) {
	if path == "" {
		return Default(opts...)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}
	return Parse(raw, opts...)
}

func Parse(raw []byte, opts ...Option) (*Table, error) {
	var ft fileTable
	if err := yaml.Unmarshal(raw, &ft); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}
	t := &Table{}
	for _, opt := range opts {
		opt(t)
	}
	for zi, fz := range ft.Zones {
		if len(fz.Countries) == 0 {
			return nil, fmt.Errorf("zone %d (%s): no countries", zi, fz.Name)
		}
		zone := Zone{Name: fz.Name}
		for _, c := range fz.Countries {
			zone.Countries = append(zone.Countries, strings.ToUpper(strings.TrimSpace(c)))
		}
		seen := map[string]bool{}
		for _, fm := range fz.Methods {
			if fm.ID == "" {
				return nil, fmt.Errorf("zone %s: method without id", fz.Name)
			}
			if seen[fm.ID] {
				return nil, fmt.Errorf("zone %s: duplicate method %s", fz.Name, fm.ID)
			}
			seen[fm.ID] = true
			m := Method{ID: fm.ID, Label: fm.Label}
			var err error
			if m.Cost, err = amount(fm.Cost); err != nil {
				return nil, fmt.Errorf("method %s cost: %w", fm.ID, err)
			}
			if m.PerItem, err = amount(fm.PerItem); err != nil {
				return nil, fmt.Errorf("method %s per_item: %w", fm.ID, err)
			}
			if m.MinAmount, err = amount(fm.MinAmount); err != nil {
				return nil, fmt.Errorf("method %s min_amount: %w", fm.ID, err)
			}
			if m.Label == "" {
				m.Label = m.ID
			}
			zone.Methods = append(zone.Methods, m)
		}
		t.zones = append(t.zones, zone)
	}
	return t, nil
}

func amount(v string) (domain.Money, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return domain.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return domain.Zero, err
	}
	if d.IsNegative() {
		return domain.Zero, fmt.Errorf("negative amount %s", v)
	}
	return d, nil
}

// Zones returns the parsed zones.
func (t *Table) Zones() []Zone {
	return t.zones
}

// Quote returns the methods of the zone matching the destination. A
// destination without a country has no rates yet.
func (t *Table) Quote(ctx context.Context, contents []domain.CartItem, destination domain.Address) ([]domain.ShippingRate, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	country := strings.ToUpper(strings.TrimSpace(destination.Country))
	if country == "" {
		return nil, nil
	}
	zone, ok := t.match(country)
	if !ok {
		return nil, nil
	}

	subtotal := domain.Subtotal(contents)
	quantity := 0
	for _, it := range contents {
		quantity += it.Quantity
	}

	rates := make([]domain.ShippingRate, 0, len(zone.Methods))
	for _, m := range zone.Methods {
		if m.MinAmount.IsPositive() && subtotal.LessThan(m.MinAmount) {
			continue
		}
		cost := m.Cost.Add(m.PerItem.Mul(decimal.NewFromInt(int64(quantity))))
		rates = append(rates, domain.ShippingRate{
			ID:    m.ID,
			Label: m.Label,
			Cost:  domain.RoundMoney(cost),
		})
	}
	return rates, ctx.Err()
}

func (t *Table) match(country string) (Zone, bool) {
	var fallback *Zone
	for i := range t.zones {
		for _, c := range t.zones[i].Countries {
			if c == country {
				return t.zones[i], true
			}
			if c == Wildcard && fallback == nil {
				fallback = &t.zones[i]
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Zone{}, false
}

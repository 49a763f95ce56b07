package shipping

import (
	"context"
	"errors"
	"sync"
	"testing"

	"appcheckout/internal/domain"
)

type stubQuoter struct {
	mu    sync.Mutex
	rates map[string][]domain.ShippingRate
	fail  map[string]error
	calls int
}

func (s *stubQuoter) Quote(_ context.Context, contents []domain.CartItem, _ domain.Address) ([]domain.ShippingRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	vendor := contents[0].VendorID
	if err := s.fail[vendor]; err != nil {
		return nil, err
	}
	return s.rates[vendor], nil
}

func cartItems() []domain.CartItem {
	return []domain.CartItem{
		{Key: "a", VendorID: "v2", Quantity: 1},
		{Key: "b", VendorID: "v1", Quantity: 1},
		{Key: "c", VendorID: "v2", Quantity: 2},
		{Key: "d", Quantity: 1},
	}
}

func TestPartitionFirstSeenOrder(t *testing.T) {
	dest := domain.Address{Country: "US"}
	packages := Partition(cartItems(), dest)
	if len(packages) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(packages))
	}
	if packages[0].GroupKey != "v2" || packages[1].GroupKey != "v1" || packages[2].GroupKey != DefaultGroupKey {
		t.Fatalf("unexpected order %+v", packages)
	}
	if len(packages[0].ItemKeys) != 2 || packages[0].ItemKeys[1] != "c" {
		t.Fatalf("unexpected contents %+v", packages[0].ItemKeys)
	}
	again := Partition(cartItems(), dest)
	for i := range packages {
		if packages[i].GroupKey != again[i].GroupKey || len(packages[i].ItemKeys) != len(again[i].ItemKeys) {
			t.Fatalf("partition not reproducible at %d", i)
		}
	}
}

func TestResolveDegradesFailingPackageOnly(t *testing.T) {
	quoter := &stubQuoter{
		rates: map[string][]domain.ShippingRate{
			"v1": {{ID: "flat_rate:1", Label: "Flat rate", Cost: domain.Cents(500)}},
		},
		fail: map[string]error{"v2": errors.New("carrier timeout")},
	}
	items := []domain.CartItem{
		{Key: "a", VendorID: "v1", Quantity: 1},
		{Key: "b", VendorID: "v2", Quantity: 1},
	}
	packages := NewResolver(quoter, nil).Resolve(context.Background(), items, domain.Address{Country: "US"})
	if len(packages) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(packages))
	}
	if len(packages[0].Rates) != 1 || packages[0].Degraded {
		t.Fatalf("first package should have rates: %+v", packages[0])
	}
	if len(packages[1].Rates) != 0 || !packages[1].Degraded {
		t.Fatalf("second package should be degraded: %+v", packages[1])
	}
	if quoter.calls != 2 {
		t.Fatalf("expected 2 quote calls, got %d", quoter.calls)
	}
}

func TestResolveEmptyCart(t *testing.T) {
	quoter := &stubQuoter{}
	packages := NewResolver(quoter, nil).Resolve(context.Background(), nil, domain.Address{})
	if len(packages) != 0 || quoter.calls != 0 {
		t.Fatalf("expected no packages and no quotes, got %d %d", len(packages), quoter.calls)
	}
}

func TestSelect(t *testing.T) {
	packages := []domain.ShippingPackage{
		{Rates: []domain.ShippingRate{{ID: "flat_rate:1"}}},
		{Rates: []domain.ShippingRate{{ID: "local_pickup:3"}}},
	}
	if err := Select(packages, 0, "flat_rate:1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if packages[0].SelectedID != "flat_rate:1" {
		t.Fatalf("selection not recorded")
	}
	if err := Select(packages, 0, "local_pickup:3"); !errors.Is(err, domain.ErrUnknownRate) {
		t.Fatalf("expected unknown rate for cross-package id, got %v", err)
	}
	if packages[0].SelectedID != "flat_rate:1" {
		t.Fatalf("rejected selection must not change state")
	}
	var de *domain.Error
	if err := Select(packages, 5, "flat_rate:1"); !errors.As(err, &de) || de.Kind != domain.KindNotFound {
		t.Fatalf("expected package not found, got %v", err)
	}
}

func TestApplySelectionsFallsBackWhenRateGone(t *testing.T) {
	packages := []domain.ShippingPackage{
		{GroupKey: "v1", Rates: []domain.ShippingRate{{ID: "flat_rate:1"}}},
		{GroupKey: "v2", Rates: []domain.ShippingRate{{ID: "flat_rate:1"}}},
	}
	dropped := ApplySelections(packages, map[string]string{"v1": "flat_rate:1", "v2": "free_shipping:2", "gone": "x"})
	if packages[0].SelectedID != "flat_rate:1" {
		t.Fatalf("expected first selection kept")
	}
	if packages[1].SelectedID != "" {
		t.Fatalf("expected second package unresolved")
	}
	if len(dropped) != 2 || dropped[0] != "gone" || dropped[1] != "v2" {
		t.Fatalf("unexpected dropped %v", dropped)
	}
}

func TestApplySelectionsFollowsGroupNotPosition(t *testing.T) {
	// v1 left the cart, so v2 is now the first package.
	packages := []domain.ShippingPackage{
		{GroupKey: "v2", Rates: []domain.ShippingRate{{ID: "flat_rate:1"}, {ID: "local_pickup:2"}}},
	}
	dropped := ApplySelections(packages, map[string]string{"v1": "flat_rate:1", "v2": "local_pickup:2"})
	if packages[0].SelectedID != "local_pickup:2" {
		t.Fatalf("expected v2 to keep its own choice, got %q", packages[0].SelectedID)
	}
	if len(dropped) != 1 || dropped[0] != "v1" {
		t.Fatalf("unexpected dropped %v", dropped)
	}
	if IndexOf(packages, "v1") != -1 || IndexOf(packages, "v2") != 0 {
		t.Fatalf("unexpected IndexOf results")
	}
}

func TestPackageName(t *testing.T) {
	if PackageName(0) != "Shipping" || PackageName(2) != "Shipping 3" {
		t.Fatalf("unexpected names %q %q", PackageName(0), PackageName(2))
	}
}

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
	"appcheckout/internal/service/pricing"
)

type stubSessions struct {
	mu       sync.Mutex
	data     map[string][]byte
	versions map[string]int
	getErr   error
	saveErr  error
	// failState rejects saves of sessions in that state.
	failState domain.CheckoutState
	saves     int
}

func newStubSessions() *stubSessions {
	return &stubSessions{data: map[string][]byte{}, versions: map[string]int{}}
}

func (s *stubSessions) Get(_ context.Context, id string) (*domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	raw, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var st domain.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *stubSessions) Save(_ context.Context, st *domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.failState != "" && st.State == s.failState {
		return errors.New("session store went away")
	}
	if s.versions[st.ID] != st.Version {
		return domain.ErrConflict
	}
	st.Version++
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.data[st.ID] = raw
	s.versions[st.ID] = st.Version
	s.saves++
	return nil
}

func (s *stubSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	delete(s.versions, id)
	return nil
}

func (s *stubSessions) stored(t *testing.T, id string) *domain.SessionState {
	t.Helper()
	st, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("stored session %s: %v", id, err)
	}
	return st
}

type stubProduct struct {
	price  int64
	vendor string
	name   string
}

type stubCatalog struct {
	mu       sync.Mutex
	products map[string]stubProduct
	priceErr error
}

func (c *stubCatalog) Exists(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.products[id]
	return ok, nil
}

func (c *stubCatalog) PriceOf(_ context.Context, id, _ string) (domain.Money, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.priceErr != nil {
		return domain.Zero, c.priceErr
	}
	p, ok := c.products[id]
	if !ok {
		return domain.Zero, domain.ErrNotFound
	}
	return domain.Cents(p.price), nil
}

func (c *stubCatalog) Describe(_ context.Context, id string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Product{ID: id, Name: p.name, VendorID: p.vendor}, nil
}

type stubQuoter struct {
	mu    sync.Mutex
	rates map[string][]domain.ShippingRate
	fail  map[string]bool
}

func (q *stubQuoter) Quote(_ context.Context, contents []domain.CartItem, _ domain.Address) ([]domain.ShippingRate, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	vendor := contents[0].VendorID
	if q.fail[vendor] {
		return nil, errors.New("carrier unavailable")
	}
	return append([]domain.ShippingRate(nil), q.rates[vendor]...), nil
}

func (q *stubQuoter) set(vendor string, rates ...domain.ShippingRate) {
	q.mu.Lock()
	q.rates[vendor] = rates
	q.mu.Unlock()
}

type stubEvaluator struct {
	coupons map[string]domain.CouponDefinition
	err     error
}

func (e *stubEvaluator) Validate(_ context.Context, code string, items []domain.CartItem) (domain.Eligibility, error) {
	if e.err != nil {
		return domain.Eligibility{}, e.err
	}
	def, ok := e.coupons[code]
	if !ok {
		return domain.Eligibility{Reason: "Coupon \"" + code + "\" does not exist!"}, nil
	}
	return def.Evaluate(domain.Subtotal(items), time.Now()), nil
}

type stubPlacer struct {
	err      error
	requests []domain.OrderRequest
	placed   map[string]*domain.OrderReference
}

func (p *stubPlacer) PlaceOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderReference, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if ref, ok := p.placed[req.IdempotencyKey]; ok {
		return ref, nil
	}
	if p.placed == nil {
		p.placed = map[string]*domain.OrderReference{}
	}
	ref := &domain.OrderReference{ID: fmt.Sprintf("order-%d", len(p.placed)+1), Number: "1001", PlacedAt: time.Now()}
	p.placed[req.IdempotencyKey] = ref
	return ref, nil
}

type harness struct {
	orch     *Orchestrator
	sessions *stubSessions
	catalog  *stubCatalog
	quoter   *stubQuoter
	coupons  *stubEvaluator
	placer   *stubPlacer
}

const sid = "6b1f2c1e-0000-4000-8000-000000000001"

func flatRate(cents int64) domain.ShippingRate {
	return domain.ShippingRate{ID: "flat_rate:1", Label: "Flat rate", Cost: domain.Cents(cents)}
}

func newHarness() *harness {
	h := &harness{
		sessions: newStubSessions(),
		catalog: &stubCatalog{products: map[string]stubProduct{
			"A": {price: 1000, vendor: "v1", name: "Alpha"},
			"B": {price: 250, vendor: "v2", name: "Beta"},
		}},
		quoter: &stubQuoter{
			rates: map[string][]domain.ShippingRate{
				"v1": {flatRate(500)},
				"v2": {flatRate(300), {ID: "local_pickup:2", Label: "Local pickup", Cost: domain.Zero}},
			},
			fail: map[string]bool{},
		},
		coupons: &stubEvaluator{coupons: map[string]domain.CouponDefinition{
			"save10": {Code: "save10", Rule: domain.DiscountRule{Kind: domain.DiscountPercent, Amount: decimal.NewFromInt(10)}},
			"big":    {Code: "big", Rule: domain.DiscountRule{Kind: domain.DiscountFixedCart, Amount: domain.Cents(500)}, MinSpend: domain.Cents(3000)},
		}},
		placer: &stubPlacer{},
	}
	h.orch = New(Deps{
		Sessions: h.sessions,
		Catalog:  h.catalog,
		Coupons:  h.coupons,
		Quoter:   h.quoter,
		Orders:   h.placer,
		Pricing:  pricing.New("USD"),
	})
	return h
}

func (h *harness) add(t *testing.T, product string, qty int) string {
	t.Helper()
	key, _, err := h.orch.AddItem(context.Background(), sid, cart.AddInput{ProductID: product, Quantity: qty})
	if err != nil {
		t.Fatalf("add %s: %v", product, err)
	}
	return key
}

func money(t *testing.T, label string, got domain.Money, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got.StringFixed(2))
	}
}

func errKind(t *testing.T, err error, kind domain.Kind, code string) {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %v", err)
	}
	if de.Kind != kind || de.Code != code {
		t.Fatalf("expected %s/%s, got %s/%s", kind, code, de.Kind, de.Code)
	}
}

func TestUpdateOrderReviewOnEmptyCartIsExpired(t *testing.T) {
	h := newHarness()
	_, err := h.orch.UpdateOrderReview(context.Background(), sid, ReviewInput{})
	if !errors.Is(err, domain.ErrExpiredSession) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if h.sessions.saves != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestTotalsBeforeAndAfterShippingSelection(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 2)

	totals, err := h.orch.GetTotals(ctx, sid, false)
	if err != nil {
		t.Fatalf("get totals: %v", err)
	}
	money(t, "subtotal", totals.Subtotal, "20.00")
	money(t, "shipping", totals.ShippingTotal, "0.00")
	if totals.ShippingResolved {
		t.Fatalf("shipping should be unresolved")
	}

	update, err := h.orch.UpdateShipping(ctx, sid, map[int]string{0: "flat_rate:1"})
	if err != nil {
		t.Fatalf("update shipping: %v", err)
	}
	money(t, "grand", update.Totals.GrandTotal, "25.00")
	if !update.Totals.ShippingResolved || len(update.Rejected) != 0 {
		t.Fatalf("unexpected update %+v", update)
	}

	totals, err = h.orch.GetTotals(ctx, sid, true)
	if err != nil {
		t.Fatalf("get totals: %v", err)
	}
	money(t, "grand after refresh", totals.GrandTotal, "25.00")
}

func TestApplyAndRemovePercentCoupon(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 2)

	view, err := h.orch.ApplyCoupon(ctx, sid, " SAVE10 ")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	money(t, "discount", view.Totals.DiscountTotal, "2.00")
	money(t, "grand", view.Totals.GrandTotal, "18.00")

	if _, err := h.orch.ApplyCoupon(ctx, sid, "save10"); !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("expected already applied, got %v", err)
	}

	removed, view, err := h.orch.RemoveCoupon(ctx, sid, "SAVE10")
	if err != nil || !removed {
		t.Fatalf("remove: %v %v", removed, err)
	}
	money(t, "grand after removal", view.Totals.GrandTotal, "20.00")

	removed, _, err = h.orch.RemoveCoupon(ctx, sid, "save10")
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op: %v %v", removed, err)
	}
	_, _, err = h.orch.RemoveCoupon(ctx, sid, "bad code!")
	errKind(t, err, domain.KindValidation, domain.CodeInvalidCoupon)
}

func TestApplyUnknownCouponNotStored(t *testing.T) {
	h := newHarness()
	h.add(t, "A", 1)
	before := h.sessions.stored(t, sid).Version

	_, err := h.orch.ApplyCoupon(context.Background(), sid, "nope")
	errKind(t, err, domain.KindValidation, domain.CodeInvalidCoupon)
	if st := h.sessions.stored(t, sid); st.Version != before || len(st.Coupons) != 0 {
		t.Fatalf("rejected coupon must not be stored: %+v", st)
	}
}

func TestSetQuantityZeroRejected(t *testing.T) {
	h := newHarness()
	key := h.add(t, "A", 3)

	_, err := h.orch.SetQuantity(context.Background(), sid, key, 0)
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	st := h.sessions.stored(t, sid)
	if len(st.Items) != 1 || st.Items[0].Quantity != 3 {
		t.Fatalf("quantity changed: %+v", st.Items)
	}

	_, err = h.orch.SetQuantity(context.Background(), sid, "missing", 1)
	errKind(t, err, domain.KindNotFound, domain.CodeItemNotFound)
}

func TestQuoteFailureDegradesOnlyThatPackage(t *testing.T) {
	h := newHarness()
	h.quoter.fail["v2"] = true
	h.add(t, "A", 1)
	h.add(t, "B", 1)

	views, err := h.orch.GetShippingOptions(context.Background(), sid)
	if err != nil {
		t.Fatalf("shipping options: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(views))
	}
	if len(views[0].Methods) != 1 || views[0].Degraded {
		t.Fatalf("first package should have rates: %+v", views[0])
	}
	if len(views[1].Methods) != 0 || !views[1].Degraded {
		t.Fatalf("second package should be empty and degraded: %+v", views[1])
	}
	if views[0].Name != "Shipping" || views[1].Name != "Shipping 2" || views[1].Details != "Beta ×1" {
		t.Fatalf("unexpected package labels %+v", views)
	}
}

func TestCatalogFailureRollsBackAdd(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 1)
	before := h.sessions.stored(t, sid)

	h.catalog.priceErr = errors.New("catalog down")
	_, _, err := h.orch.AddItem(ctx, sid, cart.AddInput{ProductID: "B", Quantity: 1})
	errKind(t, err, domain.KindCollaborator, domain.CodeCatalogUnavailable)

	after := h.sessions.stored(t, sid)
	if after.Version != before.Version || len(after.Items) != 1 {
		t.Fatalf("failed add must not be stored: %+v", after)
	}
}

func TestUpdateShippingPartialFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 1)
	h.add(t, "B", 1)

	update, err := h.orch.UpdateShipping(ctx, sid, map[int]string{0: "flat_rate:1", 1: "express:9"})
	if err != nil {
		t.Fatalf("partial update should succeed: %v", err)
	}
	if len(update.Rejected) != 1 || update.Rejected[0].Index != 1 || update.Rejected[0].Code != domain.CodeUnknownRate {
		t.Fatalf("unexpected rejected %+v", update.Rejected)
	}
	if !update.ReloadCheckout || update.Totals.ShippingResolved {
		t.Fatalf("expected reload and unresolved shipping: %+v", update)
	}
	money(t, "shipping", update.Totals.ShippingTotal, "5.00")

	before := h.sessions.stored(t, sid).Version
	_, err = h.orch.UpdateShipping(ctx, sid, map[int]string{1: "express:9", 4: "flat_rate:1"})
	if !errors.Is(err, domain.ErrUnknownRate) {
		t.Fatalf("expected unknown rate, got %v", err)
	}
	if h.sessions.stored(t, sid).Version != before {
		t.Fatalf("rejected update must not be stored")
	}

	update, err = h.orch.UpdateShipping(ctx, sid, map[int]string{1: "local_pickup:2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !update.Totals.ShippingResolved {
		t.Fatalf("expected resolved after merging selections")
	}
	money(t, "grand", update.Totals.GrandTotal, "17.50")
}

func TestChosenRateFallsBackWhenNoLongerOffered(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	key := h.add(t, "A", 1)
	if _, err := h.orch.UpdateShipping(ctx, sid, map[int]string{0: "flat_rate:1"}); err != nil {
		t.Fatalf("update shipping: %v", err)
	}

	h.quoter.set("v1", domain.ShippingRate{ID: "free_shipping:3", Label: "Free shipping", Cost: domain.Zero})
	view, err := h.orch.SetQuantity(ctx, sid, key, 2)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if view.Totals.ShippingResolved || !view.ReloadCheckout || len(view.Messages) != 1 {
		t.Fatalf("expected fallback to unresolved: %+v", view)
	}
	if st := h.sessions.stored(t, sid); len(st.ChosenRates) != 0 {
		t.Fatalf("stale choice kept: %+v", st.ChosenRates)
	}
}

func TestChosenRatesStayWithTheirVendorWhenPackagesShift(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	keyA := h.add(t, "A", 1)
	h.add(t, "B", 1)
	if _, err := h.orch.UpdateShipping(ctx, sid, map[int]string{0: "flat_rate:1", 1: "local_pickup:2"}); err != nil {
		t.Fatalf("update shipping: %v", err)
	}

	view, err := h.orch.RemoveItem(ctx, sid, keyA)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !view.Totals.ShippingResolved {
		t.Fatalf("expected v2 to keep local pickup: %+v", view.Totals)
	}
	money(t, "shipping", view.Totals.ShippingTotal, "0")
	money(t, "grand", view.Totals.GrandTotal, "2.50")
	if view.ReloadCheckout || len(view.Messages) != 0 {
		t.Fatalf("a vendor leaving the cart needs no notice: %+v", view)
	}
	st := h.sessions.stored(t, sid)
	if len(st.ChosenRates) != 1 || st.ChosenRates["v2"] != "local_pickup:2" {
		t.Fatalf("unexpected stored choices %+v", st.ChosenRates)
	}
}

func TestIneligibleCouponDroppedOnRecalculation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	key := h.add(t, "A", 4)
	if _, err := h.orch.ApplyCoupon(ctx, sid, "big"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	view, err := h.orch.SetQuantity(ctx, sid, key, 1)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if len(view.Coupons) != 0 || len(view.Messages) != 1 {
		t.Fatalf("expected coupon dropped with message: %+v", view)
	}
	money(t, "discount", view.Totals.DiscountTotal, "0")
}

func TestFinalizeLifecycle(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.orch.Finalize(ctx, sid, "cod")
	errKind(t, err, domain.KindState, domain.CodeEmptyCart)

	h.add(t, "A", 2)
	_, err = h.orch.Finalize(ctx, sid, "cod")
	errKind(t, err, domain.KindState, domain.CodeShippingUnresolved)

	review, err := h.orch.UpdateOrderReview(ctx, sid, ReviewInput{
		Address:       domain.CustomerAddress{Billing: domain.Address{FirstName: "Ada", Country: "US"}},
		Selections:    map[int]string{0: "flat_rate:1"},
		PaymentMethod: "cod",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.State != domain.StateReviewPending || !review.Totals.ShippingResolved {
		t.Fatalf("unexpected review %+v", review)
	}

	h.placer.err = errors.New("payment gateway down")
	_, err = h.orch.Finalize(ctx, sid, "")
	errKind(t, err, domain.KindCollaborator, domain.CodePlacementFailed)
	st := h.sessions.stored(t, sid)
	if st.State != domain.StateFinalizing || len(st.Items) != 1 {
		t.Fatalf("expected finalizing with cart intact: %+v", st)
	}

	h.placer.err = nil
	ref, err := h.orch.Finalize(ctx, sid, "")
	if err != nil {
		t.Fatalf("retry finalize: %v", err)
	}
	if ref.ID != "order-1" {
		t.Fatalf("unexpected ref %+v", ref)
	}
	st = h.sessions.stored(t, sid)
	if st.State != domain.StateCompleted || len(st.Items) != 0 || st.OrderRef != "order-1" {
		t.Fatalf("expected completed session: %+v", st)
	}
	last := h.placer.requests[len(h.placer.requests)-1]
	money(t, "placed grand", last.Totals.GrandTotal, "25.00")
	if last.PaymentMethod != "cod" {
		t.Fatalf("payment method not carried: %q", last.PaymentMethod)
	}
}

func TestFinalizeRetryAfterLostSaveDoesNotPlaceTwice(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 1)
	if _, err := h.orch.UpdateOrderReview(ctx, sid, ReviewInput{
		Address:       domain.CustomerAddress{Billing: domain.Address{Country: "US"}},
		Selections:    map[int]string{0: "flat_rate:1"},
		PaymentMethod: "cod",
	}); err != nil {
		t.Fatalf("review: %v", err)
	}

	h.sessions.failState = domain.StateCompleted
	_, err := h.orch.Finalize(ctx, sid, "")
	errKind(t, err, domain.KindCollaborator, domain.CodeSessionStoreUnavailable)
	if st := h.sessions.stored(t, sid); st.State != domain.StateFinalizing || len(st.Items) != 1 {
		t.Fatalf("expected finalizing session with cart: %+v", st)
	}

	h.sessions.failState = ""
	ref, err := h.orch.Finalize(ctx, sid, "")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(h.placer.requests) != 2 || len(h.placer.placed) != 1 {
		t.Fatalf("expected one order from two attempts, got %d requests and %d orders", len(h.placer.requests), len(h.placer.placed))
	}
	first, second := h.placer.requests[0].IdempotencyKey, h.placer.requests[1].IdempotencyKey
	if first == "" || first != second {
		t.Fatalf("idempotency keys differ: %q vs %q", first, second)
	}
	if st := h.sessions.stored(t, sid); st.State != domain.StateCompleted || st.OrderRef != ref.ID {
		t.Fatalf("expected completed session with order %s: %+v", ref.ID, st)
	}
}

func TestStateFallsBackToActiveOnMutation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 1)
	if _, err := h.orch.UpdateOrderReview(ctx, sid, ReviewInput{}); err != nil {
		t.Fatalf("review: %v", err)
	}
	_, view, err := h.orch.AddItem(ctx, sid, cart.AddInput{ProductID: "B", Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if view.State != domain.StateActive {
		t.Fatalf("expected active, got %s", view.State)
	}
	key := view.Items[0].Key
	if _, err := h.orch.RemoveItem(ctx, sid, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	view, err = h.orch.RemoveItem(ctx, sid, view.Items[1].Key)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if view.State != domain.StateEmpty || len(view.Items) != 0 {
		t.Fatalf("expected empty, got %+v", view)
	}
}

func TestSessionStoreFailures(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.sessions.getErr = errors.New("connection refused")
	_, err := h.orch.GetCart(ctx, sid)
	errKind(t, err, domain.KindCollaborator, domain.CodeSessionStoreUnavailable)

	h.sessions.getErr = nil
	h.sessions.saveErr = domain.ErrConflict
	_, _, err = h.orch.AddItem(ctx, sid, cart.AddInput{ProductID: "A", Quantity: 1})
	errKind(t, err, domain.KindState, domain.CodeConcurrentModification)

	_, err = h.orch.GetCart(ctx, " ")
	errKind(t, err, domain.KindValidation, domain.CodeInvalidRequest)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	h := newHarness()
	key := h.add(t, "A", 1)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := h.orch.AddItem(context.Background(), sid, cart.AddInput{ProductID: "A", Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent add: %v", err)
		}
	}

	view, err := h.orch.GetCart(context.Background(), sid)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Key != key || view.Items[0].Quantity != 21 {
		t.Fatalf("lost update: %+v", view.Items)
	}
	if n := h.orch.locks.size(); n != 0 {
		t.Fatalf("expected locks released, got %d", n)
	}
}

func TestClearRemovesSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.add(t, "A", 1)
	if err := h.orch.Clear(ctx, sid); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := h.orch.GetCart(ctx, sid)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 0 || view.State != domain.StateEmpty {
		t.Fatalf("expected fresh session, got %+v", view)
	}
}

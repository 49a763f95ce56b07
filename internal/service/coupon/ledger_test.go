package coupon

import (
	"context"
	"errors"
	"testing"

	"appcheckout/internal/domain"
)

type stubEvaluator struct {
	results map[string]domain.Eligibility
	err     error
	calls   int
}

func (s *stubEvaluator) Validate(_ context.Context, code string, _ []domain.CartItem) (domain.Eligibility, error) {
	s.calls++
	if s.err != nil {
		return domain.Eligibility{}, s.err
	}
	res, ok := s.results[code]
	if !ok {
		return domain.Eligibility{Reason: "Coupon does not exist."}, nil
	}
	return res, nil
}

func save10() *stubEvaluator {
	return &stubEvaluator{results: map[string]domain.Eligibility{
		"save10": {Eligible: true, Rule: domain.DiscountRule{Kind: domain.DiscountPercent, Amount: domain.Cents(1000)}},
	}}
}

func TestNormalizeCode(t *testing.T) {
	code, err := NormalizeCode("  SAVE10 ")
	if err != nil || code != "save10" {
		t.Fatalf("expected save10, got %q %v", code, err)
	}
	for _, bad := range []string{"", "   ", "save 10", "dróp", "a;b"} {
		if _, err := NormalizeCode(bad); !errors.Is(err, domain.ErrInvalidCoupon) {
			t.Fatalf("expected invalid coupon for %q, got %v", bad, err)
		}
	}
}

func TestLedgerApply(t *testing.T) {
	ledger := NewLedger(save10(), nil)
	code, err := ledger.Apply(context.Background(), "SAVE10", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if code != "save10" {
		t.Fatalf("unexpected code %q", code)
	}
	if got := ledger.AppliedCodes(); len(got) != 1 || got[0] != "save10" {
		t.Fatalf("unexpected applied codes %v", got)
	}
}

func TestLedgerApplyTwiceIsRejected(t *testing.T) {
	ev := save10()
	ledger := NewLedger(ev, nil)
	if _, err := ledger.Apply(context.Background(), "save10", nil); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := ledger.Apply(context.Background(), "Save10", nil); !errors.Is(err, domain.ErrAlreadyApplied) {
		t.Fatalf("expected already applied, got %v", err)
	}
	if len(ledger.Applied()) != 1 {
		t.Fatalf("coupon must be recorded once")
	}
	if ev.calls != 1 {
		t.Fatalf("evaluator should not be called for duplicates, calls=%d", ev.calls)
	}
}

func TestLedgerApplyIneligible(t *testing.T) {
	ledger := NewLedger(save10(), nil)
	_, err := ledger.Apply(context.Background(), "nope", nil)
	var de *domain.Error
	if !errors.As(err, &de) || de.Code != domain.CodeInvalidCoupon || de.Message != "Coupon does not exist." {
		t.Fatalf("expected invalid coupon with reason, got %v", err)
	}
	if len(ledger.Applied()) != 0 {
		t.Fatalf("ineligible coupon must not be recorded")
	}
}

func TestLedgerApplyEvaluatorFailure(t *testing.T) {
	ledger := NewLedger(&stubEvaluator{err: errors.New("db down")}, nil)
	_, err := ledger.Apply(context.Background(), "save10", nil)
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindCollaborator {
		t.Fatalf("expected collaborator error, got %v", err)
	}
}

func TestLedgerRemoveIsIdempotent(t *testing.T) {
	ledger := NewLedger(save10(), nil)
	_, _ = ledger.Apply(context.Background(), "save10", nil)

	removed, err := ledger.Remove("SAVE10")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = ledger.Remove("save10")
	if err != nil || removed {
		t.Fatalf("expected no-op success, got %v %v", removed, err)
	}
	if _, err := ledger.Remove("bad code!"); !errors.Is(err, domain.ErrInvalidCoupon) {
		t.Fatalf("expected malformed code error, got %v", err)
	}
}

func TestLedgerRevalidate(t *testing.T) {
	ev := save10()
	ev.results["big"] = domain.Eligibility{Eligible: true, Rule: domain.DiscountRule{Kind: domain.DiscountFixedCart, Amount: domain.Cents(500)}}
	ledger := NewLedger(ev, nil)
	_, _ = ledger.Apply(context.Background(), "save10", nil)
	_, _ = ledger.Apply(context.Background(), "big", nil)

	ev.results["big"] = domain.Eligibility{Reason: "The minimum spend for this coupon is 50.00."}
	msgs := ledger.Revalidate(context.Background(), nil)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %v", msgs)
	}
	if got := ledger.AppliedCodes(); len(got) != 1 || got[0] != "save10" {
		t.Fatalf("expected only save10 kept, got %v", got)
	}

	ev.err = errors.New("timeout")
	msgs = ledger.Revalidate(context.Background(), nil)
	if len(msgs) != 1 || len(ledger.Applied()) != 1 {
		t.Fatalf("evaluator failure must keep coupons, got %v %v", msgs, ledger.AppliedCodes())
	}
}

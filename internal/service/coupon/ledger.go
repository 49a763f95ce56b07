package coupon

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"appcheckout/internal/domain"
)

var codePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Evaluator decides whether a coupon code is eligible for a cart.
type Evaluator interface {
	Validate(ctx context.Context, code string, items []domain.CartItem) (domain.Eligibility, error)
}

// Ledger tracks coupons applied to one session cart.
type Ledger struct {
	evaluator Evaluator
	applied   []domain.AppliedCoupon
	now       func() time.Time
}

func NewLedger(evaluator Evaluator, applied []domain.AppliedCoupon) *Ledger {
	return &Ledger{
		evaluator: evaluator,
		applied:   append([]domain.AppliedCoupon(nil), applied...),
		now:       time.Now,
	}
}

// NormalizeCode trims and lowercases a code and checks its format.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", domain.Validation(domain.CodeInvalidCoupon, "coupon code is malformed")
	}
	return code, nil
}

// Apply validates a code with the evaluator and records it.
func (l *Ledger) Apply(ctx context.Context, raw string, items []domain.CartItem) (string, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return "", err
	}
	if l.Has(code) {
		return code, domain.ErrAlreadyApplied
	}
	if l.evaluator == nil {
		return code, domain.Collaborator(domain.CodeCouponRulesUnavailable, "coupon rules unavailable", nil)
	}
	res, err := l.evaluator.Validate(ctx, code, items)
	if err != nil {
		return code, domain.Collaborator(domain.CodeCouponRulesUnavailable, "coupon rules unavailable", err)
	}
	if !res.Eligible {
		msg := res.Reason
		if msg == "" {
			msg = fmt.Sprintf("Coupon %q is not valid.", code)
		}
		return code, domain.Validation(domain.CodeInvalidCoupon, msg)
	}
	l.applied = append(l.applied, domain.AppliedCoupon{
		Code:      code,
		Rule:      res.Rule,
		AppliedAt: l.now().UTC(),
	})
	return code, nil
}

// Remove drops a code. Removing a code that is not applied succeeds and
// reports false.
func (l *Ledger) Remove(raw string) (bool, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return false, err
	}
	for i, c := range l.applied {
		if c.Code == code {
			l.applied = append(l.applied[:i], l.applied[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Has reports whether a normalized code is applied.
func (l *Ledger) Has(code string) bool {
	for _, c := range l.applied {
		if c.Code == code {
			return true
		}
	}
	return false
}

// AppliedCodes lists codes in application order.
func (l *Ledger) AppliedCodes() []string {
	out := make([]string, 0, len(l.applied))
	for _, c := range l.applied {
		out = append(out, c.Code)
	}
	return out
}

// Applied returns a copy of the applied coupons.
func (l *Ledger) Applied() []domain.AppliedCoupon {
	return append([]domain.AppliedCoupon(nil), l.applied...)
}

// Clear removes every coupon.
func (l *Ledger) Clear() {
	l.applied = nil
}

// Revalidate re-checks applied coupons against the current items. Coupons the
// evaluator now rejects are dropped; evaluator failures keep the coupon.
// The returned messages describe what happened.
func (l *Ledger) Revalidate(ctx context.Context, items []domain.CartItem) []string {
	if l.evaluator == nil || len(l.applied) == 0 {
		return nil
	}
	var messages []string
	kept := l.applied[:0]
	for _, c := range l.applied {
		res, err := l.evaluator.Validate(ctx, c.Code, items)
		switch {
		case err != nil:
			messages = append(messages, fmt.Sprintf("Coupon %q could not be re-checked.", c.Code))
			kept = append(kept, c)
		case !res.Eligible:
			reason := res.Reason
			if reason == "" {
				reason = "it is no longer valid"
			}
			messages = append(messages, fmt.Sprintf("Coupon %q was removed: %s", c.Code, reason))
		default:
			c.Rule = res.Rule
			kept = append(kept, c)
		}
	}
	l.applied = kept
	return messages
}

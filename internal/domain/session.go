package domain

import "time"

// CheckoutState is the per-session checkout progression.
type CheckoutState string

const (
	StateEmpty         CheckoutState = "empty"
	StateActive        CheckoutState = "active"
	StateReviewPending CheckoutState = "review_pending"
	StateFinalizing    CheckoutState = "finalizing"
	StateCompleted     CheckoutState = "completed"
)

// SessionState is the durable snapshot of one customer session.
type SessionState struct {
	ID            string            `json:"id"`
	Version       int               `json:"version"`
	State         CheckoutState     `json:"state"`
	Items         []CartItem        `json:"items"`
	Coupons       []AppliedCoupon   `json:"coupons"`
	Address       CustomerAddress   `json:"address"`
	Packages      []ShippingPackage `json:"packages"`
	ChosenRates   map[string]string `json:"chosenRates"` // package group key -> rate id
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	OrderRef      string            `json:"orderRef,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewSessionState returns an empty session snapshot.
func NewSessionState(id string, now time.Time) *SessionState {
	return &SessionState{
		ID:          id,
		State:       StateEmpty,
		ChosenRates: map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OrderReference identifies a placed order.
type OrderReference struct {
	ID       string    `json:"id"`
	Number   string    `json:"number"`
	PlacedAt time.Time `json:"placedAt"`
}

// OrderRequest is the payload handed to the order-placement collaborator.
type OrderRequest struct {
	SessionID     string
	Items         []CartItem
	Coupons       []AppliedCoupon
	Packages      []ShippingPackage
	Totals        Totals
	Address       CustomerAddress
	PaymentMethod string
	// IdempotencyKey is stable across retries of the same finalize attempt.
	IdempotencyKey string
}

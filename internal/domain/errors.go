package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a stale write against a newer stored version.
	ErrConflict = errors.New("version conflict")
)

// Kind classifies failures returned across the checkout boundary.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindCollaborator Kind = "collaborator"
	KindState        Kind = "state"
)

// Error codes.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidQuantity         = "invalid_quantity"
	CodeInvalidCoupon           = "invalid_coupon"
	CodeAlreadyApplied          = "already_applied"
	CodeUnknownRate             = "unknown_rate"
	CodeItemNotFound            = "item_not_found"
	CodeProductNotFound         = "product_not_found"
	CodePackageNotFound         = "package_not_found"
	CodeCatalogUnavailable      = "catalog_unavailable"
	CodeCouponRulesUnavailable  = "coupon_rules_unavailable"
	CodePlacementFailed         = "placement_failed"
	CodeSessionStoreUnavailable = "session_store_unavailable"
	CodeExpiredSession          = "expired_session"
	CodeEmptyCart               = "empty_cart"
	CodeShippingUnresolved      = "shipping_unresolved"
	CodeConcurrentModification  = "concurrent_modification"
)

// Error is the structured failure surfaced by checkout operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Collaborator(code, message string, err error) *Error {
	return &Error{Kind: KindCollaborator, Code: code, Message: message, Err: err}
}

func State(code, message string) *Error {
	return &Error{Kind: KindState, Code: code, Message: message}
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidQuantity = Validation(CodeInvalidQuantity, "quantity must be positive")
	ErrInvalidCoupon   = Validation(CodeInvalidCoupon, "coupon is not valid")
	ErrAlreadyApplied  = Validation(CodeAlreadyApplied, "coupon already applied")
	ErrUnknownRate     = Validation(CodeUnknownRate, "shipping rate not available for package")
	ErrItemNotFound    = NotFound(CodeItemNotFound, "cart item not found")
	ErrExpiredSession  = State(CodeExpiredSession, "session has expired")
)

// AsError converts any error into the structured taxonomy. Unclassified
// errors are treated as session store failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, ErrConflict) {
		return &Error{Kind: KindState, Code: CodeConcurrentModification, Message: "session was modified concurrently", Err: err}
	}
	return Collaborator(CodeSessionStoreUnavailable, "session store unavailable", err)
}

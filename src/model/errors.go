package model

import (
	"errors"
	"fmt"
)

var (
	ErrAmountPercentBoth = errors.New("amount and percent cannot be set at the same time")
	ErrFreeAmountNone    = errors.New("free amount unavailable")
	ErrPositionNone      = errors.New("position unavailable")
	ErrSymbolNotFound    = errors.New("symbol not found")
)

// Error kinds, stored in the journal and the exception store.
const (
	ErrorKindAmountPercentBoth = "amount_percent_both"
	ErrorKindFreeAmountNone    = "free_amount_none"
	ErrorKindPositionNone      = "position_none"
	ErrorKindSymbolNotFound    = "symbol_not_found"
	ErrorKindOrder             = "order"
	ErrorKindValidation        = "validation"
	ErrorKindUnknown           = "unknown"
)

// OrderError is returned when order submission failed after retries.
type OrderError struct {
	Cause error
	Order *MarketOrder
}

func (e *OrderError) Error() string {
	if e.Order == nil {
		return fmt.Sprintf("order failed: %v", e.Cause)
	}
	return fmt.Sprintf("order failed for %s %s %s: %v", e.Order.Exchange, e.Order.UnifiedSymbol, e.Order.Side, e.Cause)
}

func (e *OrderError) Unwrap() error { return e.Cause }

// ValidationError reports a malformed order request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorKind classifies err into one of the ErrorKind* names. The outermost
// typed error wins, so an OrderError wrapping a sentinel reports "order".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var orderErr *OrderError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &orderErr):
		return ErrorKindOrder
	case errors.As(err, &validationErr):
		return ErrorKindValidation
	case errors.Is(err, ErrAmountPercentBoth):
		return ErrorKindAmountPercentBoth
	case errors.Is(err, ErrFreeAmountNone):
		return ErrorKindFreeAmountNone
	case errors.Is(err, ErrPositionNone):
		return ErrorKindPositionNone
	case errors.Is(err, ErrSymbolNotFound):
		return ErrorKindSymbolNotFound
	default:
		return ErrorKindUnknown
	}
}

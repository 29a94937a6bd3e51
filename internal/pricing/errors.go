package pricing

// ============================================================================
// PRICING ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeEmpty = "empty"
)

// ============================================================================
// PRICING ERROR TYPE
// ============================================================================

// PricingError represents a pricing-specific error with a code and message.
// It implements the domain error interface pattern for consistent HTTP status mapping.
type PricingError struct {
	Code    string
	Message string
}

func (e *PricingError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *PricingError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *PricingError) ErrorMessage() string {
	return e.Message
}

func newPricingError(code, message string) *PricingError {
	return &PricingError{Code: code, Message: message}
}

// ============================================================================
// PRICING DOMAIN ERRORS
// ============================================================================

var (
	// ErrEmptyResult is returned when no line item survives empty-row
	// filtering. It is an expected outcome, not a failure: callers should
	// show a warning instead of a zero total.
	ErrEmptyResult = newPricingError(codeEmpty, "Enter at least one item with a non-zero quantity, price, shipping or weight")
)

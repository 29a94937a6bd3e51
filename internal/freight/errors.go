package freight

// ============================================================================
// FREIGHT ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInvalid = "invalid"
)

// ============================================================================
// FREIGHT ERROR TYPE
// ============================================================================

// TariffError represents a tariff-table error with a code and message.
type TariffError struct {
	Code    string
	Message string
}

func (e *TariffError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *TariffError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *TariffError) ErrorMessage() string {
	return e.Message
}

func newTariffError(code, message string) *TariffError {
	return &TariffError{Code: code, Message: message}
}

// ============================================================================
// FREIGHT DOMAIN ERRORS
// ============================================================================

var (
	// ErrNoTiers is returned when a tariff is built without any weight tier.
	ErrNoTiers = newTariffError(codeInvalid, "At least one weight tier is required")

	// ErrTiersNotAscending is returned when tier thresholds do not strictly increase.
	ErrTiersNotAscending = newTariffError(codeInvalid, "Weight tier thresholds must be strictly ascending")

	// ErrNegativeThreshold is returned when a tier threshold is below zero.
	ErrNegativeThreshold = newTariffError(codeInvalid, "Weight tier thresholds must not be negative")

	// ErrNegativeRate is returned when a per-kg rate is below zero.
	ErrNegativeRate = newTariffError(codeInvalid, "Freight rates must not be negative")
)

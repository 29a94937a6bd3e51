package worksheet

// WorksheetError represents a worksheet operation error.
type WorksheetError struct {
	Code    string
	Message string
}

func (e *WorksheetError) Error() string {
	return e.Message
}

// ErrorCode returns the machine-readable error code.
func (e *WorksheetError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing error message.
func (e *WorksheetError) ErrorMessage() string {
	return e.Message
}

// =============================================================================
// ERROR CODES
// =============================================================================

var (
	// ErrRowOutOfRange is returned when a row index does not exist in the draft.
	ErrRowOutOfRange = &WorksheetError{
		Code:    "invalid",
		Message: "Row does not exist",
	}
)

package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// ErrorCode represents a dogfacts error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 400 (kept at 400 for API compatibility)
	ErrDuplicateFact    ErrorCode = "DUPLICATE_FACT"    // 400
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrUnprocessable    ErrorCode = "UNPROCESSABLE"     // 422
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
)

// Messages that clients match on. Do not reword.
const (
	MsgUnauthorized  = "X-Token header invalid"
	MsgDuplicateFact = "Fact already existed"
)

// FactsError represents a structured error with code, status, and details.
type FactsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *FactsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *FactsError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FactsError {
	return &FactsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewCountOutOfRange creates a 400 error for a fact count outside [1, size].
func NewCountOutOfRange(size, requested int) *FactsError {
	err := NewCountOutOfRangeText(size, strconv.Itoa(requested))
	err.Details["requested"] = requested
	return err
}

// NewCountOutOfRangeText is NewCountOutOfRange for a requested count that
// does not fit in an int. requested is echoed as given.
func NewCountOutOfRangeText(size int, requested string) *FactsError {
	return &FactsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("Number of facts should be in range of 1 to %d. You requested %s", size, requested),
		Details: map[string]any{"min": 1, "max": size, "requested": requested},
	}
}

// NewUnauthorized creates an error for a missing or mismatched write token.
func NewUnauthorized() *FactsError {
	return &FactsError{
		Code:    ErrUnauthorized,
		Status:  400,
		Message: MsgUnauthorized,
	}
}

// NewDuplicateFact creates a 400 error when a fact already exists (case-insensitive).
func NewDuplicateFact(description string) *FactsError {
	return &FactsError{
		Code:    ErrDuplicateFact,
		Status:  400,
		Message: MsgDuplicateFact,
		Details: map[string]any{"description": description},
	}
}

// NewFileNotFound creates a 404 error when an import file doesn't exist.
func NewFileNotFound(path string) *FactsError {
	return &FactsError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewUnprocessable creates a 422 error for bodies or parameters that cannot be decoded.
func NewUnprocessable(msg string) *FactsError {
	return &FactsError{
		Code:    ErrUnprocessable,
		Status:  422,
		Message: msg,
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by the caller.
func NewCancelled(op string) *FactsError {
	return &FactsError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewStoreUnavailable creates a 503 error when the fact store cannot be read or written.
// The cause is kept for logging but never shown to clients.
func NewStoreUnavailable(err error) *FactsError {
	return &FactsError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: "fact store unavailable",
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FactsError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FactsError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a FactsError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FactsError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}

// As returns the FactsError in err's chain, or wraps err as INTERNAL.
func As(err error) *FactsError {
	var fErr *FactsError
	if stderrors.As(err, &fErr) {
		return fErr
	}
	return NewInternal(err)
}

// Package errors provides standardized error handling for the quotation pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Local validation failures: raised synchronously, never retried.
	ErrCodeInvalidQuantity   ErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidRate       ErrorCode = "INVALID_RATE"
	ErrCodeInvalidDiscount   ErrorCode = "INVALID_DISCOUNT"
	ErrCodeIncompatibleUnits ErrorCode = "INCOMPATIBLE_UNITS"
	ErrCodeUnknownJobType    ErrorCode = "UNKNOWN_JOB_TYPE"
	ErrCodePrecondition      ErrorCode = "PRECONDITION_FAILED"
	ErrCodeIncompleteQuote   ErrorCode = "INCOMPLETE_QUOTE"
	ErrCodeInvalidCommand    ErrorCode = "INVALID_COMMAND"

	// Infrastructure failures.
	ErrCodeBOMConnectionFailed    ErrorCode = "BOM_CONNECTION_FAILED"
	ErrCodeMaterialLookupFailed   ErrorCode = "MATERIAL_LOOKUP_FAILED"
	ErrCodeTemplateRenderFailed   ErrorCode = "TEMPLATE_RENDER_FAILED"
	ErrCodeDatabaseConnectionFail ErrorCode = "DATABASE_CONNECTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidQuantityError creates a non-retryable quantity validation error.
func NewInvalidQuantityError(quantity int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuantity,
		Message:   "Quantity must be a positive integer",
		Details:   fmt.Sprintf("quantity: %d", quantity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRateError creates a non-retryable calculator construction error.
func NewInvalidRateError(field string, value float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRate,
		Message:   fmt.Sprintf("Invalid %s", field),
		Details:   fmt.Sprintf("%s: %g", field, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDiscountError creates a non-retryable discount validation error.
func NewInvalidDiscountError(discountPct float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDiscount,
		Message:   "Discount must be between 0 and 1",
		Details:   fmt.Sprintf("discount_pct: %g", discountPct),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncompatibleUnitsError creates a non-retryable unit conversion error.
func NewIncompatibleUnitsError(fromUnit, toUnit string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIncompatibleUnits,
		Message:   fmt.Sprintf("Cannot convert from '%s' to '%s'", fromUnit, toUnit),
		Details:   "units belong to different families or are unrecognized",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownJobTypeError creates a non-retryable job type error naming the known types.
func NewUnknownJobTypeError(jobType string, knownTypes []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownJobType,
		Message:   fmt.Sprintf("Unknown job type '%s'", jobType),
		Details:   fmt.Sprintf("known job types: %s", strings.Join(knownTypes, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreconditionError creates a non-retryable ordering violation, naming the
// pipeline step that has to run first.
func NewPreconditionError(operation, missingStep string) *StandardError {
	return &StandardError{
		Code:      ErrCodePrecondition,
		Message:   fmt.Sprintf("Cannot run %s yet", operation),
		Details:   fmt.Sprintf("missing prerequisite step: %s", missingStep),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncompleteQuoteError creates a non-retryable assembly error naming every
// missing mandatory field at once.
func NewIncompleteQuoteError(missingFields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIncompleteQuote,
		Message:   "Quote record is missing mandatory fields",
		Details:   fmt.Sprintf("missing fields: %s", strings.Join(missingFields, ", ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing_fields": missingFields},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCommandError creates a non-retryable command validation error.
func NewInvalidCommandError(command, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCommand,
		Message:   fmt.Sprintf("Invalid payload for command '%s'", command),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBOMConnectionError creates a retryable BOM estimator transport error.
func NewBOMConnectionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBOMConnectionFailed,
		Message:   "Cannot reach BOM estimation service",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMaterialLookupFailedError creates a retryable cost-source error.
func NewMaterialLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMaterialLookupFailed,
		Message:   "Material cost lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateRenderFailedError creates a non-retryable rendering error.
func NewTemplateRenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateRenderFailed,
		Message:   "Quote rendering failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFail,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the bounded retry count for an error code. Only
// transport-level failures are retried; validation failures surface verbatim.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBOMConnectionFailed,
		ErrCodeMaterialLookupFailed,
		ErrCodeDatabaseConnectionFail:
		return 3
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard normalizes any error to a *StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "INCOMPLETE") ||
		strings.Contains(codeStr, "INCOMPATIBLE") || strings.Contains(codeStr, "PRECONDITION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BOM"):
		return "BOM"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "LOOKUP"):
		return "DATABASE"
	case strings.Contains(codeStr, "TEMPLATE"):
		return "RENDERING"
	default:
		return "OTHER"
	}
}

package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeForbidden is used when the caller may not act on the resource
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Collaborator error codes
const (
	// ErrCodeCollaboratorUnavailable is used when an external subsystem cannot answer
	ErrCodeCollaboratorUnavailable = "ERR_COLLABORATOR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation and input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeForbidden:     http.StatusForbidden,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Collaborator outages -> 503 Service Unavailable
	ErrCodeCollaboratorUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized codes.
// Domain code strings stay in the response body unchanged; this mapping only
// picks the HTTP status bucket.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":       ErrCodeNotFound,
	"ORDER_NOT_FOUND": ErrCodeNotFound,

	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"ADVANCE_ALREADY_EXISTS": ErrCodeAlreadyExists,
	"NO_CAPITAL_AVAILABLE":   ErrCodeConflict,

	"ORDER_OWNERSHIP_MISMATCH": ErrCodeForbidden,

	"INVALID_TRANSITION":        ErrCodeInvalidState,
	"INVALID_STATUS":            ErrCodeInvalidState,
	"NOT_APPROVED":              ErrCodeInvalidState,
	"NOT_REPAYABLE":             ErrCodeInvalidState,
	"NOT_DEFAULTABLE":           ErrCodeInvalidState,
	"ADVANCE_NOT_ELIGIBLE":      ErrCodeBusinessRule,
	"CAPITAL_ALLOCATION_FAILED": ErrCodeBusinessRule,

	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"INVALID_REASON":          ErrCodeInvalidInput,
	"INVALID_CONTRACT_NUMBER": ErrCodeInvalidInput,
	"INVALID_TERMS":           ErrCodeInvalidInput,
	"INVALID_CURRENCY":        ErrCodeInvalidInput,
	"UNKNOWN_RISK_TIER":       ErrCodeBusinessRule,

	"CREDIT_UNAVAILABLE": ErrCodeCollaboratorUnavailable,

	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode maps a domain error code to its standardized status
// bucket. Unknown codes are returned as-is and resolve to 500.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

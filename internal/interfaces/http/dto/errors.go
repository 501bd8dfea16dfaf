package dto

import (
	"net/http"

	"github.com/nyos/apr/internal/domain/shared"
)

// StatusClientClosedRequest is the non-standard status for a request whose
// client went away or whose run was cancelled.
const StatusClientClosedRequest = 499

// Error code constants
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	ErrCodeIntegrity     = "ERR_INTEGRITY"
	ErrCodeCancelled     = "ERR_CANCELLED"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON   = "ERR_INVALID_JSON"
	ErrCodeRateLimited   = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeConfiguration: http.StatusInternalServerError,
	ErrCodeIntegrity:     http.StatusUnprocessableEntity,
	ErrCodeCancelled:     StatusClientClosedRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[NormalizeErrorCode(code)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes maps shared.DomainError codes to API codes
var domainCodes = map[string]string{
	shared.CodeValidation:    ErrCodeValidation,
	shared.CodeConfiguration: ErrCodeConfiguration,
	shared.CodeIntegrity:     ErrCodeIntegrity,
	shared.CodeCancelled:     ErrCodeCancelled,
	shared.CodeNotFound:      ErrCodeNotFound,
}

// NormalizeErrorCode converts a domain error code to its API form.
// Codes already in API form, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}

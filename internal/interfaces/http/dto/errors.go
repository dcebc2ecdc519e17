package dto

import (
	"net/http"

	"github.com/retailerp/chitledger/internal/domain/shared"
)

// Error codes. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"

	// ErrCodeDuplicatePeriod is returned when a period of a chit is already paid
	ErrCodeDuplicatePeriod = "ERR_DUPLICATE_PERIOD"
	// ErrCodeRequestInProgress is returned when an Idempotency-Key is still being processed
	ErrCodeRequestInProgress = "ERR_REQUEST_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeTooLarge:          http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeTokenExpired:      http.StatusUnauthorized,
	ErrCodeTokenInvalid:      http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeDuplicatePeriod:   http.StatusConflict,
	ErrCodeRequestInProgress: http.StatusConflict,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// kindCodes gives the envelope code for each domain error kind
var kindCodes = map[shared.ErrorKind]string{
	shared.KindValidation:      ErrCodeValidation,
	shared.KindNotFound:        ErrCodeNotFound,
	shared.KindDuplicatePeriod: ErrCodeDuplicatePeriod,
	shared.KindAuthorization:   ErrCodeForbidden,
	shared.KindConflict:        ErrCodeConflict,
}

// CodeForKind returns the envelope code for a domain error kind
func CodeForKind(kind shared.ErrorKind) string {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return ErrCodeInternal
}

// DomainErrorResponse builds the status and body for a domain error. The
// domain code travels as reason, e.g. INVALID_PERIOD under ERR_VALIDATION.
func DomainErrorResponse(err *shared.DomainError, requestID string) (int, Response) {
	code := CodeForKind(err.Kind)
	resp := NewErrorResponseWithRequestID(code, err.Message, requestID)
	resp.Error.Reason = err.Code
	resp.Error.Retryable = err.Retryable
	return GetHTTPStatus(code), resp
}

package dto

import (
	"errors"
	"net/http"

	"github.com/catalogsync/indexer/internal/domain/shared"
)

// Error code constants
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	ErrCodeData          = "ERR_DATA"
	ErrCodeUpstream      = "ERR_UPSTREAM"
	ErrCodeTooLarge      = "ERR_PAYLOAD_TOO_LARGE"
)

const internalMessage = "An unexpected error occurred"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeConfiguration: http.StatusInternalServerError,
	ErrCodeData:          http.StatusUnprocessableEntity,
	ErrCodeUpstream:      http.StatusBadGateway,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,
}

// domainErrorCodes maps domain error codes to API error codes
var domainErrorCodes = map[string]string{
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeInvalidInput:  ErrCodeValidation,
	shared.CodeConfiguration: ErrCodeConfiguration,
	shared.CodeData:          ErrCodeData,
	shared.CodeCollaborator:  ErrCodeUpstream,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode converts a domain error code to the API error code
func FromDomainCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return ErrCodeInternal
}

// Classify maps an error to its API status, code and message. Errors
// without a domain code are internal and their message is withheld.
func Classify(err error) (status int, code, message string) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, ErrCodeInternal, internalMessage
	}
	code = FromDomainCode(domainErr.Code)
	return GetHTTPStatus(code), code, err.Error()
}

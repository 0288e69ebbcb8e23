package errors

import "net/http"

// Error codes returned in the error_code field of API responses.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeTopicNotFound       = "TOPIC_NOT_FOUND"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeProviderTimeout     = "PROVIDER_TIMEOUT"
	CodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	CodeInternalError       = "INTERNAL_ERROR"
)

type Error struct {
	Code       string `json:"error_code"`
	Message    string `json:"error"`
	Cause      error  // the underlying error
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func NewError(code string, message string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: statusCodeFor(code),
	}
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) WithStatusCode(statusCode int) *Error {
	e.StatusCode = statusCode
	return e
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) GetCode() string {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) GetDetails() any {
	return e.Details
}

func (e *Error) GetStatusCode() int {
	return e.StatusCode
}

func statusCodeFor(code string) int {
	switch code {
	case CodeValidationError:
		return http.StatusBadRequest
	case CodeTopicNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeProviderUnavailable, CodeProviderTimeout:
		return http.StatusServiceUnavailable
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

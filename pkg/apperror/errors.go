package apperror

import (
	"errors"
	"net/http"
)

// AppError is an error with the HTTP status the operator should see
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// FieldError reports a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

var (
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrTooManyRequests    = &AppError{Code: http.StatusTooManyRequests, Message: "Too many requests"}
	ErrMissingTerminal    = &AppError{Code: http.StatusBadRequest, Message: "X-Terminal-ID header is required"}
	ErrSubmissionInFlight = &AppError{Code: http.StatusConflict, Message: "A submission for this session is already in progress"}
	ErrHeldOrderOpen      = &AppError{Code: http.StatusConflict, Message: "Held order is already open in another session"}
	ErrRequestInFlight    = &AppError{Code: http.StatusConflict, Message: "A request with this Idempotency-Key is still in progress"}
)

// Wrap gives err an HTTP status. The message is err's and errors.Is still
// reaches the original.
func Wrap(code int, err error) *AppError {
	return &AppError{Code: code, Message: err.Error(), cause: err}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: resource + " not found"}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

// NewUnprocessableError is a business-rule rejection, shown to the operator as is
func NewUnprocessableError(message string) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: message}
}

// NewFieldError reports a single invalid field
func NewFieldError(field, message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  []FieldError{{Field: field, Message: message}},
	}
}

// From finds the AppError in err's chain.
func From(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf returns the status err maps to, 500 when it carries none
func StatusOf(err error) int {
	if appErr, ok := From(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies the failures a feed client can observe
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDuplicatePage ErrorType = "duplicate_page"
	ErrorTypeAutomation    ErrorType = "automation"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Client facing messages
const (
	MsgIdentityRequired = "Username parameter is required"
	MsgInvalidIdentity  = "Invalid username parameter"
	MsgPageServed       = "Page already served"
	MsgLoadFailed       = "Failed to load profile"
)

// Error carries a client-safe message, the HTTP status it maps to and the
// underlying cause, which is kept for logs only.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so errors.Is(err, ErrPageServed)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

var (
	// ErrPageServed is the sentinel for duplicate page requests
	ErrPageServed = &Error{Type: ErrorTypeDuplicatePage, Message: MsgPageServed, Code: http.StatusBadRequest}
	// ErrLoadFailed is the sentinel for any scrape failure
	ErrLoadFailed = &Error{Type: ErrorTypeAutomation, Message: MsgLoadFailed, Code: http.StatusInternalServerError}
)

// NewValidation returns a validation error with the given client message
func NewValidation(message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// NewDuplicatePage returns the error for a page already served from the live entry
func NewDuplicatePage(page int) *Error {
	return &Error{
		Type:    ErrorTypeDuplicatePage,
		Message: MsgPageServed,
		Code:    http.StatusBadRequest,
		Err:     fmt.Errorf("page %d", page),
	}
}

// NewAutomation wraps a browser or extraction failure behind the opaque
// load-failed message.
func NewAutomation(err error) *Error {
	return &Error{
		Type:    ErrorTypeAutomation,
		Message: MsgLoadFailed,
		Code:    http.StatusInternalServerError,
		Err:     err,
	}
}

// TypeOf returns the error type of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// HTTPStatus maps err to a response status code
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}

// ClientMessage returns the message safe to show to a client
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgLoadFailed
}

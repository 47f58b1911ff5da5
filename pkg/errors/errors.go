package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Sentinel kinds shared by every package in the server
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
	ErrUnavailable   = errors.New("service unavailable")
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrNotInitialized marks a programmer error: an audio component used
	// before Initialize or after Dispose.
	ErrNotInitialized     = errors.New("component not initialized")
	ErrAlreadyInitialized = errors.New("component already initialized")
	ErrSessionNotFound    = errors.New("conversation session not found")
	ErrUnknownNode        = errors.New("unknown audio graph node")
	ErrPublishFailed      = errors.New("event publish failed")
	ErrCircuitOpen        = errors.New("circuit breaker open")
)

// Codes attached by the typed constructors
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeUnavailable        = "UNAVAILABLE"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeNotInitialized     = "NOT_INITIALIZED"
	CodeAlreadyInitialized = "ALREADY_INITIALIZED"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeUnknownNode        = "UNKNOWN_NODE"
	CodePublishFailed      = "PUBLISH_FAILED"
	CodeCircuitOpen        = "CIRCUIT_OPEN"
)

// Error is a structured error carrying a kind, a code, context fields and
// the location it was created at.
type Error struct {
	original error
	message  string
	fields   map[string]interface{}

	file string
	line int

	// Code is an optional error code for categorization
	Code string
}

func newAt(skip int, original error, message, code string, fields []map[string]interface{}) *Error {
	_, file, line, _ := runtime.Caller(skip + 1)

	fieldMap := make(map[string]interface{})
	if len(fields) > 0 && fields[0] != nil {
		for k, v := range fields[0] {
			fieldMap[k] = v
		}
	}

	return &Error{
		original: original,
		message:  message,
		fields:   fieldMap,
		file:     file,
		line:     line,
		Code:     code,
	}
}

// New creates a new structured error with the given message
func New(message string, fields ...map[string]interface{}) *Error {
	return newAt(1, errors.New(message), message, "", fields)
}

// Wrap wraps an existing error with additional context. Wrapping nil returns nil.
func Wrap(err error, message string, fields ...map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	return newAt(1, err, message, GetErrorCode(err), fields)
}

func (e *Error) clone(extra int) *Error {
	out := *e
	out.fields = make(map[string]interface{}, len(e.fields)+extra)
	for k, v := range e.fields {
		out.fields[k] = v
	}
	return &out
}

// WithField returns a copy of the error with one more context field
func (e *Error) WithField(key string, value interface{}) *Error {
	if e == nil {
		return nil
	}
	out := e.clone(1)
	out.fields[key] = value
	return out
}

// WithFields returns a copy of the error with the given fields merged in
func (e *Error) WithFields(fields map[string]interface{}) *Error {
	if e == nil {
		return nil
	}
	out := e.clone(len(fields))
	for k, v := range fields {
		out.fields[k] = v
	}
	return out
}

// WithCode returns a copy of the error carrying code
func (e *Error) WithCode(code string) *Error {
	if e == nil {
		return nil
	}
	out := e.clone(0)
	out.Code = code
	return out
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil || e.original == nil {
		return ""
	}
	if e.message == "" || e.message == e.original.Error() {
		return e.original.Error()
	}
	return fmt.Sprintf("%s: %v", e.message, e.original)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.original
}

// Is reports whether the wrapped error matches target
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	if errors.Is(e.original, target) {
		return true
	}
	return e == target
}

// Location returns the file:line where the error was created
func (e *Error) Location() string {
	if e == nil {
		return ""
	}
	parts := strings.Split(e.file, "/")
	return fmt.Sprintf("%s:%d", parts[len(parts)-1], e.line)
}

// GetFields returns the error's context fields
func (e *Error) GetFields() map[string]interface{} {
	if e == nil {
		return nil
	}
	return e.fields
}

// GetCode returns the error's code
func (e *Error) GetCode() string {
	if e == nil {
		return ""
	}
	return e.Code
}

// AsJSON returns the error in JSON-friendly map format
func (e *Error) AsJSON() map[string]interface{} {
	if e == nil {
		return nil
	}

	result := map[string]interface{}{
		"error":    e.Error(),
		"location": e.Location(),
	}
	if e.Code != "" {
		result["code"] = e.Code
	}
	if len(e.fields) > 0 {
		result["context"] = e.fields
	}
	return result
}

// NewNotFound creates an ErrNotFound error
func NewNotFound(message string, fields ...map[string]interface{}) *Error {
	return newAt(1, ErrNotFound, message, CodeNotFound, fields)
}

// NewInvalidInput creates an ErrInvalidInput error
func NewInvalidInput(message string, fields ...map[string]interface{}) *Error {
	return newAt(1, ErrInvalidInput, message, CodeInvalidInput, fields)
}

// NewInternalError creates an ErrInternalError error
func NewInternalError(message string, fields ...map[string]interface{}) *Error {
	return newAt(1, ErrInternalError, message, CodeInternalError, fields)
}

// NewLimitExceeded creates an ErrLimitExceeded error
func NewLimitExceeded(message string, fields ...map[string]interface{}) *Error {
	return newAt(1, ErrLimitExceeded, message, CodeLimitExceeded, fields)
}

// NewNotInitialized reports that component was used before Initialize or
// after Dispose.
func NewNotInitialized(component string, fields ...map[string]interface{}) *Error {
	err := newAt(1, ErrNotInitialized, fmt.Sprintf("%s not initialized", component), CodeNotInitialized, fields)
	err.fields["component"] = component
	return err
}

// NewAlreadyInitialized reports a second Initialize on component
func NewAlreadyInitialized(component string, fields ...map[string]interface{}) *Error {
	err := newAt(1, ErrAlreadyInitialized, fmt.Sprintf("%s already initialized", component), CodeAlreadyInitialized, fields)
	err.fields["component"] = component
	return err
}

// NewSessionNotFound creates an ErrSessionNotFound error for sessionID
func NewSessionNotFound(sessionID string, fields ...map[string]interface{}) *Error {
	err := newAt(1, ErrSessionNotFound, fmt.Sprintf("conversation session not found: %s", sessionID), CodeSessionNotFound, fields)
	err.fields["session_id"] = sessionID
	return err
}

// NewUnknownNode reports an audio graph handle the graph does not own
func NewUnknownNode(node interface{}, fields ...map[string]interface{}) *Error {
	err := newAt(1, ErrUnknownNode, fmt.Sprintf("unknown audio graph node: %v", node), CodeUnknownNode, fields)
	err.fields["node"] = node
	return err
}

// NewPublishFailed wraps a broker failure for an outgoing event
func NewPublishFailed(cause error, routingKey string) *Error {
	err := newAt(1, ErrPublishFailed, fmt.Sprintf("publish to %s failed: %v", routingKey, cause), CodePublishFailed, nil)
	err.fields["routing_key"] = routingKey
	return err
}

// NewCircuitOpen reports a call refused by the named breaker
func NewCircuitOpen(name string, state string) *Error {
	err := newAt(1, ErrCircuitOpen, fmt.Sprintf("circuit breaker '%s' is %s, request rejected", name, state), CodeCircuitOpen, nil)
	err.fields["circuit"] = name
	return err
}

// IsErrorType checks if an error is of a specific error type
func IsErrorType(err, target error) bool {
	return errors.Is(err, target)
}

// GetErrorCode extracts the error code from an error if it's a structured error
func GetErrorCode(err error) string {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.GetCode()
	}
	return ""
}

// GetErrorFields extracts fields from an error if it's a structured error
func GetErrorFields(err error) map[string]interface{} {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.GetFields()
	}
	return nil
}

package relay

import (
	"errors"
	"fmt"

	"github.com/mihaimyh/subrelay/pkg/telegram"
)

// AuthError is returned when the bearer credential is missing, malformed or
// wrong. It is the only failure answered with a non-200 status.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	// ErrMissingAuthorization is returned when the Authorization header is
	// absent or does not start with "Bearer ".
	ErrMissingAuthorization = &AuthError{Message: "Missing Authorization header"}

	// ErrInvalidToken is returned when the bearer token does not match the
	// configured secret.
	ErrInvalidToken = &AuthError{Message: "Invalid authorization token"}
)

// ParseError wraps a failure to read or decode the webhook body.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// panicError carries a panic recovered inside the pipeline.
type panicError struct {
	value interface{}
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("%v", e.value)
}

// errorType classifies a pipeline failure for metrics.
func errorType(err error) string {
	var parseErr *ParseError
	var deliveryErr *telegram.DeliveryError
	switch {
	case errors.As(err, &parseErr):
		return ErrorTypeInvalidPayload
	case errors.As(err, &deliveryErr):
		return ErrorTypeDeliveryFailed
	default:
		return ErrorTypeProcessingError
	}
}

// stackTrace renders the trace reported in the error body.
func stackTrace(err error) string {
	var p *panicError
	if errors.As(err, &p) {
		return "panic: " + p.Error() + "\n" + string(p.stack)
	}
	return fmt.Sprintf("%+v", err)
}

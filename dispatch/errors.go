package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/slighter12/sysprop-go/schema"
)

// Kind classifies the failures the dispatcher handles itself. Handler and
// render failures are not wrapped in an Error.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindBadPayload      Kind = "bad_payload"
	KindValidation      Kind = "validation"
	KindNotAcceptable   Kind = "not_acceptable"
)

// Error is a locally handled dispatch failure.
type Error struct {
	Kind    Kind
	Tool    string
	Message string

	// Fields lists per-field failures for KindValidation.
	Fields []schema.FieldError
	// Input is the decoded payload, kept so a form can be re-rendered.
	Input schema.Payload

	Err error
}

func (e *Error) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("dispatch %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("dispatch %s %s: %s", e.Tool, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindBadPayload, KindValidation:
		return http.StatusBadRequest
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if the error is an unknown tool error
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsPayloadTooLarge checks if the error is a body size error
func IsPayloadTooLarge(err error) bool {
	return IsKind(err, KindPayloadTooLarge)
}

// IsBadPayload checks if the error is a malformed body error
func IsBadPayload(err error) bool {
	return IsKind(err, KindBadPayload)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return IsKind(err, KindValidation)
}

// IsNotAcceptable checks if the error is a negotiation error
func IsNotAcceptable(err error) bool {
	return IsKind(err, KindNotAcceptable)
}

// IsKind checks if the error is a dispatch error of the given kind
func IsKind(err error, kind Kind) bool {
	if e, ok := errors.AsType[*Error](err); ok {
		return e.Kind == kind
	}
	return false
}

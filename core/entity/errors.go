package entity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies collaborator failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindValidation
	KindNetwork
)

// String returns the lowercase name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrNotFound is a sentinel collaborators may wrap instead of building an Error.
var ErrNotFound = errors.New("entity not found")

// Error is a classified collaborator or engine error.
type Error struct {
	Kind    ErrorKind
	Op      string
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.ID != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.ID, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewNotFound reports that id does not exist.
func NewNotFound(op, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, ID: id, Message: "not found", Err: ErrNotFound}
}

// NewValidation reports malformed input.
func NewValidation(op, id, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, ID: id, Message: message}
}

// Validationf formats a validation error without an operation.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with kind. A nil err stays nil.
func Wrap(kind ErrorKind, op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

// KindOf returns the kind of err. Unclassified network failures and deadlines
// count as KindNetwork.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

// IsNotFound reports whether err is classified as KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is classified as KindValidation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// HTTPStatus maps err to the status code the HTTP surface answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

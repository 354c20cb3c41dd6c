// Package apperr holds the error kinds shared by the stores, services and
// handlers. Every failure a service reports is an *Error carrying exactly one
// Kind; HTTPStatus turns that kind into a response code at the transport edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	Internal Kind = iota
	InvalidIdentifier
	EntityNotFound
	AccessDenied
	RelatedEntityMissing
	EntityNotUpdated
	EntityNotDeleted
	DuplicateKey
	MissingField
	ValidationFailed
	InvalidCredentials
	Unauthenticated
)

var kindNames = map[Kind]string{
	Internal:             "INTERNAL_SERVER_ERROR",
	InvalidIdentifier:    "INVALID_IDENTIFIER",
	EntityNotFound:       "ENTITY_NOT_FOUND",
	AccessDenied:         "ACCESS_DENIED",
	RelatedEntityMissing: "RELATED_ENTITY_MISSING",
	EntityNotUpdated:     "ENTITY_NOT_UPDATED",
	EntityNotDeleted:     "ENTITY_NOT_DELETED",
	DuplicateKey:         "DUPLICATE_KEY",
	MissingField:         "MISSING_FIELD",
	ValidationFailed:     "VALIDATION_FAILED",
	InvalidCredentials:   "INVALID_CREDENTIALS",
	Unauthenticated:      "UNAUTHENTICATED",
}

var defaultMessages = map[Kind]string{
	Internal:             "Internal Server Error",
	InvalidIdentifier:    "Invalid ID",
	EntityNotFound:       "Entity Not Found",
	AccessDenied:         "Access Denied",
	RelatedEntityMissing: "The provided reference is not exists",
	EntityNotUpdated:     "Entity Not Updated",
	EntityNotDeleted:     "Entity Not Deleted",
	DuplicateKey:         "Duplicate Key",
	MissingField:         "Required Field Is Missing",
	ValidationFailed:     "Validation Failed",
	InvalidCredentials:   "Password Is Wrong",
	Unauthenticated:      "User Is Not Logged In",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Error is the single error type returned by the data-access layer.
type Error struct {
	Kind    Kind
	Message string
	// Fields names the offending input fields, if any.
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with its default message.
func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: defaultMessages[kind]}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to a lower level error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: defaultMessages[kind], Err: err}
}

// MissingRelation reports a task reference (listID, tagID) that resolves to nothing.
func MissingRelation(field string) *Error {
	return &Error{
		Kind:    RelatedEntityMissing,
		Message: fmt.Sprintf("The provided %s is not exists", field),
		Fields:  []string{field},
	}
}

// Duplicate reports a unique index violation on the given fields.
func Duplicate(fields ...string) *Error {
	return &Error{
		Kind:    DuplicateKey,
		Message: fmt.Sprintf("The fields [%s] are already in use.", strings.Join(fields, ",")),
		Fields:  fields,
	}
}

// KindOf extracts the kind of err. Errors that carry no kind are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidIdentifier, DuplicateKey, MissingField, InvalidCredentials:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case EntityNotFound, RelatedEntityMissing, EntityNotUpdated, EntityNotDeleted, ValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

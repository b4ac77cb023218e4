package estate

import (
	"errors"
	"fmt"

	"estate/server/internal/database"
)

// Kind classifies business errors so callers can map them to a response status
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a business rule violation carrying a user-facing message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// notFound turns a missing database record into a KindNotFound error naming what
func notFound(err error, what string) error {
	if errors.Is(err, database.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: what + " not found"}
	}
	return err
}

// Package apperr is the error taxonomy shared by every layer. Repositories
// return sentinels built here, services wrap them with context, and the HTTP
// layer maps a Kind to a status code.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvariant
	KindTimeout
	KindConflict
	KindForbidden
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant_violation"
	case KindTimeout:
		return "timeout"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error carries a Kind, a message that is safe to show to clients and an
// optional cause kept for server-side logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Invariant(format string, args ...any) *Error {
	return New(KindInvariant, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func Timeout(format string, args ...any) *Error {
	return New(KindTimeout, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, args...))
}

func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the client-facing message of err. Unknown errors get a
// generic text so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnknown {
		return e.Message
	}
	return "internal server error"
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvariant:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether resubmitting the whole request may succeed.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindConflict
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// MySQL server error numbers translated by FromDB.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlNoReferencedRow = 1452
)

// FromDB translates driver and gorm errors into the taxonomy. Errors that
// already carry a Kind pass through untouched.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(KindConflict, "record already exists", err)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindTimeout, "database transaction timed out, please retry", err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return Wrap(KindConflict, "record already exists", err)
		case mysqlLockWaitTimeout:
			return Wrap(KindTimeout, "database lock wait timed out, please retry", err)
		case mysqlDeadlock:
			return Wrap(KindConflict, "concurrent update detected, please retry", err)
		case mysqlNoReferencedRow:
			return Wrap(KindNotFound, "referenced record not found", err)
		}
	}

	// sqlite reports contention only through its message text.
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return Wrap(KindConflict, "database is busy, please retry", err)
	}
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return Wrap(KindConflict, "record already exists", err)
	}

	return Wrap(KindUnknown, "internal server error", err)
}

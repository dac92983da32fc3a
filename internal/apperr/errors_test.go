package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: Validation("total is required"), want: http.StatusBadRequest},
		{name: "invariant", err: Invariant("would make balance negative"), want: http.StatusBadRequest},
		{name: "not found", err: NotFound("item not found"), want: http.StatusNotFound},
		{name: "timeout", err: Timeout("timed out"), want: http.StatusRequestTimeout},
		{name: "conflict", err: Conflict("stale"), want: http.StatusConflict},
		{name: "forbidden", err: Forbidden("no"), want: http.StatusForbidden},
		{name: "unauthenticated", err: Unauthenticated("login"), want: http.StatusUnauthorized},
		{name: "wrapped", err: fmt.Errorf("load item: %w", NotFound("item not found")), want: http.StatusNotFound},
		{name: "plain", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessage_HidesUnknownDetail(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("dial tcp 10.0.0.1: refused")))
	assert.Equal(t, "internal server error", Message(FromDB(errors.New("syntax error near SELECT"))))
	assert.Equal(t, "item not found", Message(NotFound("item not found")))
}

func TestFromDB(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, want: KindNotFound},
		{name: "duplicated key", err: gorm.ErrDuplicatedKey, want: KindConflict},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}, want: KindConflict},
		{name: "mysql lock wait", err: &mysql.MySQLError{Number: 1205}, want: KindTimeout},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}, want: KindConflict},
		{name: "sqlite busy", err: errors.New("database is locked"), want: KindConflict},
		{name: "passthrough", err: Invariant("would make balance negative"), want: KindInvariant},
		{name: "other", err: errors.New("bad connection"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(FromDB(tt.err)))
		})
	}
	assert.NoError(t, FromDB(nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Timeout("x")))
	assert.True(t, IsRetryable(FromDB(&mysql.MySQLError{Number: 1213})))
	assert.False(t, IsRetryable(Validation("x")))
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := NotFound("party not found")
	wrapped := fmt.Errorf("resolve party: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, NotFound("party not found")))
}

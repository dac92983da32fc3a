package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", 7, RoleAccountant, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, RoleAccountant, claims.Role)
}

func TestToken_Rejects(t *testing.T) {
	tok, err := GenerateToken("s3cret", 7, RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 7,
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseToken("s3cret", expired)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseToken("s3cret", "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGate_Allow(t *testing.T) {
	gate := NewGate(DefaultRules())

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   bool
	}{
		{name: "owner bypasses", method: http.MethodDelete, path: "/api/sale-purchase", role: RoleOwner, want: true},
		{name: "listed role", method: http.MethodPost, path: "/api/sale-purchase", role: RoleSalesman, want: true},
		{name: "unlisted role", method: http.MethodDelete, path: "/api/sale-purchase", role: RoleSalesman, want: false},
		{name: "sub path uses parent rule", method: http.MethodPut, path: "/api/sale-purchase/update", role: RoleSalesman, want: false},
		{name: "longest prefix wins", method: http.MethodGet, path: "/api/transactions/export", role: RoleAccountant, want: false},
		{name: "shorter prefix still applies", method: http.MethodGet, path: "/api/transactions", role: RoleAccountant, want: true},
		{name: "segment boundary", method: http.MethodDelete, path: "/api/party-report", role: RoleSalesman, want: true},
		{name: "unmatched route allowed", method: http.MethodDelete, path: "/api/unknown", role: RoleSalesman, want: true},
		{name: "unlisted method allowed", method: http.MethodPatch, path: "/api/expense", role: RoleSalesman, want: true},
		{name: "empty role denied on listed method", method: http.MethodGet, path: "/api/expense", role: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.Allow(tt.method, tt.path, tt.role))
		})
	}
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, secret string) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{Secret: secret, Issuer: "fiducialend", Expiration: time.Hour})
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Expiration: time.Hour})
	assert.Error(t, err)

	_, err = NewJWTService(JWTConfig{Secret: "s"})
	assert.Error(t, err)
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(t, "test-secret")

	token, err := svc.GenerateToken("user-42", "user42@example.com", []string{RoleBorrower, RoleApprover})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID())
	assert.Equal(t, "user42@example.com", claims.Email)
	assert.True(t, claims.HasRole(RoleApprover))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestService(t, "test-secret")

	other := newTestService(t, "other-secret")
	foreign, err := other.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	expiredSvc := newTestService(t, "test-secret")
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "someone-else", Expiration: time.Hour})
	require.NoError(t, err)
	misissued, err := wrongIssuer.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"wrong issuer": misissued,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestGenerateToken_RequiresSubject(t *testing.T) {
	svc := newTestService(t, "test-secret")
	_, err := svc.GenerateToken("", "", nil)
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	claims := &Claims{Roles: []string{RoleAdmin}}
	claims.Subject = "user-7"
	ctx := ContextWithClaims(context.Background(), claims)

	got, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-7", got.UserID())
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", "u@example.com", []string{domain.RoleAdmin, domain.RoleBuyer}, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "buyer"}, claims.Roles)
}

func TestJWTIssuer_RequiresSubject(t *testing.T) {
	_, err := NewJWTIssuer("s").Issue("", "", nil, time.Hour)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	valid, err := NewJWTIssuer(secret).Issue("user-1", "a@b.com", []string{domain.RoleBuyer}, time.Hour)
	require.NoError(t, err)

	past := &jwtIssuer{secret: []byte(secret), now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expired, err := past.Issue("user-1", "a@b.com", nil, time.Hour)
	require.NoError(t, err)

	otherKey, err := NewJWTIssuer("other-secret").Issue("user-1", "", nil, time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantErr   bool
		wantUser  string
		wantRoles []string
	}{
		{name: "valid", token: valid, wantUser: "user-1", wantRoles: []string{domain.RoleBuyer}},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong key", token: otherKey, wantErr: true},
		{name: "alg none", token: noneAlg, wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}

	verifier := NewJWTVerifier(secret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, p.UserID)
			assert.Equal(t, tt.wantRoles, p.Roles)
			assert.True(t, p.HasRole(domain.RoleBuyer))
			assert.False(t, p.HasRole(domain.RoleAdmin))
		})
	}
}

package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// signForeign подписывает тестовым секретом токен с чужими iss и aud.
func signForeign(t *testing.T, now time.Time, issuer, audience string) string {
	t.Helper()
	claims := AdminClaims{
		AdminID: "admin-1",
		Role:    "owner",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  gojwt.ClaimStrings{audience},
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	maker := NewJWTMaker(testSecret, 0)

	tests := []struct {
		name    string
		adminID string
		role    string
	}{
		{name: "admin with role", adminID: "0d7f3c1e-7a43-4a43-9d2c-6b5a1f9b2e11", role: "owner"},
		{name: "admin without role", adminID: "a1", role: ""},
		{name: "support operator", adminID: "support-1", role: "support"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.adminID, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.adminID, claims.AdminID)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, Issuer, claims.Issuer)
			assert.Equal(t, gojwt.ClaimStrings{Audience}, claims.Audience)
			assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_Rejections(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	maker := NewJWTMaker(testSecret, time.Hour, WithClock(fixedClock(now)))

	valid, err := maker.GenerateToken("admin-1", "owner")
	require.NoError(t, err)

	issue := func(t *testing.T, m *MakerImpl) string {
		token, err := m.GenerateToken("admin-1", "owner")
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "malformed token",
			token:   "invalid.token.here",
			wantErr: gojwt.ErrTokenMalformed,
		},
		{
			name:    "expired token",
			token:   issue(t, NewJWTMaker(testSecret, time.Hour, WithClock(fixedClock(now.Add(-2*time.Hour))))),
			wantErr: gojwt.ErrTokenExpired,
		},
		{
			name:    "wrong secret",
			token:   issue(t, NewJWTMaker("wrong_secret_key", time.Hour, WithClock(fixedClock(now)))),
			wantErr: gojwt.ErrTokenSignatureInvalid,
		},
		{
			name:    "wrong issuer",
			token:   signForeign(t, now, "someone-else", Audience),
			wantErr: gojwt.ErrTokenInvalidIssuer,
		},
		{
			name:    "wrong audience",
			token:   signForeign(t, now, Issuer, "skiniq-miniapp"),
			wantErr: gojwt.ErrTokenInvalidAudience,
		},
		{
			name:    "tampered token",
			token:   valid + "tampered",
			wantErr: gojwt.ErrTokenSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_NoSecret(t *testing.T) {
	maker := NewJWTMaker("", time.Hour)

	_, err := maker.GenerateToken("admin-1", "")
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = maker.ParseToken("a.b.c")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestJWTMaker_TokenExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	maker := NewJWTMaker(testSecret, time.Minute, WithClock(func() time.Time { return clock }))

	token, err := maker.GenerateToken("admin-1", "")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

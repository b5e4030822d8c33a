package secrets

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardia-io/guardia/internal/config"
)

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       "test-secret-key",
		TokenExpiration: time.Hour,
	}
}

func newTestService() *Service {
	return NewService(newTestConfig())
}

func TestService_RandomText(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{
			name:   "2fa code length",
			length: 5,
		},
		{
			name:   "temporary password length",
			length: 10,
		},
		{
			name:    "zero length",
			length:  0,
			wantErr: true,
		},
		{
			name:    "negative length",
			length:  -3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := svc.RandomText(tt.length)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Len(t, text, tt.length)
			for _, c := range text {
				assert.True(t, strings.ContainsRune(randomCharset, c),
					"character %q outside charset", c)
			}
		})
	}
}

func TestService_RandomText_Distinct(t *testing.T) {
	svc := newTestService()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		text, err := svc.RandomText(10)
		require.NoError(t, err)
		assert.False(t, seen[text], "generated the same secret twice: %s", text)
		seen[text] = true
	}
}

func TestService_HashPassword(t *testing.T) {
	svc := newTestService()

	hash, err := svc.HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotContains(t, hash, "testpassword123")

	assert.True(t, svc.CheckPassword("testpassword123", hash))
	assert.False(t, svc.CheckPassword("wrongpassword", hash))
	assert.False(t, svc.CheckPassword("", hash))
}

func TestService_IssueToken_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueToken("Ada Lovelace", "role-1", "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, "role-1", claims.RoleID)
	assert.Equal(t, "ada@example.com", claims.Email)

	roleID, err := svc.RoleFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "role-1", roleID)
}

func TestService_VerifyToken(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name       string
		setupToken func(t *testing.T) string
	}{
		{
			name: "malformed token",
			setupToken: func(t *testing.T) string {
				return "invalid.token.here"
			},
		},
		{
			name: "tampered token",
			setupToken: func(t *testing.T) string {
				token, err := svc.IssueToken("Ada", "role-1", "ada@example.com")
				require.NoError(t, err)
				return token[:len(token)-2] + "xx"
			},
		},
		{
			name: "wrong secret",
			setupToken: func(t *testing.T) string {
				other := NewService(&config.AuthConfig{
					JWTSecret:       "another-secret",
					TokenExpiration: time.Hour,
				})
				token, err := other.IssueToken("Ada", "role-1", "ada@example.com")
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "expired token",
			setupToken: func(t *testing.T) string {
				expired := NewService(&config.AuthConfig{
					JWTSecret:       "test-secret-key",
					TokenExpiration: -time.Hour,
				})
				token, err := expired.IssueToken("Ada", "role-1", "ada@example.com")
				require.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyToken(tt.setupToken(t))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

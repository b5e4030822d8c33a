package login

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guardia-io/guardia/internal/config"
	"github.com/guardia-io/guardia/internal/secrets"
)

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:          "test-secret-key",
		TokenExpiration:    time.Hour,
		CodeLength:         5,
		CodeExpiration:     10 * time.Minute,
		TempPasswordLength: 10,
		MaxFailedLogins:    5,
		LockoutDuration:    15 * time.Minute,
	}
}

type testEnv struct {
	service  *Service
	users    *mockUserRepository
	attempts *mockAttemptRepository
	sender   *mockSender
	secrets  *secrets.Service
}

func newTestEnv(t *testing.T) *testEnv {
	cfg := newTestAuthConfig()
	users := newMockUserRepository()
	attempts := newMockAttemptRepository()
	sender := newMockSender()
	sec := secrets.NewService(cfg)

	return &testEnv{
		service:  NewService(cfg, newTestLogger(t), users, attempts, sec, sender),
		users:    users,
		attempts: attempts,
		sender:   sender,
		secrets:  sec,
	}
}

// seedUser creates a user with a known password and returns it.
func (e *testEnv) seedUser(t *testing.T, email, password, roleID string) *User {
	hash, err := e.secrets.HashPassword(password)
	require.NoError(t, err)

	user := &User{
		ID:           uuid.NewString(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	require.NoError(t, e.users.CreateUser(context.Background(), user))
	return user
}

// latestCode digs the generated 2FA code out of the attempt store.
func (e *testEnv) latestCode(t *testing.T, userID string) string {
	attempts := e.attempts.byUser(userID)
	require.NotEmpty(t, attempts, "no login attempt recorded for user %s", userID)

	latest := attempts[0]
	for _, a := range attempts[1:] {
		if a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	return latest.Code
}

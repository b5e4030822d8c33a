package login

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Identify(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a login attempt and mail the code", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		user, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
		assert.Empty(t, user.PasswordHash, "password material must not leave the boundary")

		attempts := env.attempts.byUser(seeded.ID)
		require.Len(t, attempts, 1)
		assert.False(t, attempts[0].CodeConsumed)
		assert.False(t, attempts[0].TokenActive)
		assert.Empty(t, attempts[0].Token)
		assert.Len(t, attempts[0].Code, 5)

		sent := env.sender.sentTo("a@x.com")
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].HTMLBody, attempts[0].Code)
	})

	t.Run("wrong password creates no attempt", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, err := env.service.Identify(ctx, "a@x.com", "battery-staple")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, env.attempts.byUser(seeded.ID))
		assert.Empty(t, env.sender.sentTo("a@x.com"))
	})

	t.Run("unknown email reports the same failure as a wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, wrongPass := env.service.Identify(ctx, "a@x.com", "battery-staple")
		_, wrongEmail := env.service.Identify(ctx, "nobody@x.com", "correct-horse")

		assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
		assert.ErrorIs(t, wrongEmail, ErrInvalidCredentials)
		assert.Equal(t, wrongPass.Error(), wrongEmail.Error())
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		for i := 0; i < 5; i++ {
			_, err := env.service.Identify(ctx, "a@x.com", "battery-staple")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		assert.ErrorIs(t, err, ErrAccountLocked)

		locked, err := env.users.GetUserByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.True(t, locked.Locked)
	})

	t.Run("expired lock unlocks on next identify", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")
		require.NoError(t, env.users.LockAccount(ctx, seeded.ID, -time.Minute))

		user, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})
}

func TestService_VerifyCode(t *testing.T) {
	ctx := context.Background()

	t.Run("scenario: wrong code, then success, then reuse", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		code := env.latestCode(t, seeded.ID)

		_, err = env.service.VerifyCode(ctx, seeded.ID, "not-the-code")
		assert.ErrorIs(t, err, ErrInvalidCode)

		result, err := env.service.VerifyCode(ctx, seeded.ID, code)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, seeded.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)

		claims, err := env.secrets.VerifyToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "R1", claims.RoleID)
		assert.Equal(t, "a@x.com", claims.Email)

		// The consumed attempt records the issued token.
		attempts := env.attempts.byUser(seeded.ID)
		require.Len(t, attempts, 1)
		assert.True(t, attempts[0].CodeConsumed)
		assert.True(t, attempts[0].TokenActive)
		assert.Equal(t, result.Token, attempts[0].Token)

		_, err = env.service.VerifyCode(ctx, seeded.ID, code)
		assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
	})

	t.Run("expired code is invalid", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		code := env.latestCode(t, seeded.ID)

		// Age the attempt past the expiry window.
		env.attempts.mu.Lock()
		for _, a := range env.attempts.attempts {
			a.CreatedAt = time.Now().Add(-time.Hour)
		}
		env.attempts.mu.Unlock()

		_, err = env.service.VerifyCode(ctx, seeded.ID, code)
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("concurrent verification consumes the code exactly once", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		code := env.latestCode(t, seeded.ID)

		const callers = 2
		var wg sync.WaitGroup
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.service.VerifyCode(ctx, seeded.ID, code)
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, ErrCodeAlreadyUsed)
			}
		}
		assert.Equal(t, 1, successes, "exactly one verification may win")
	})

	t.Run("persistence failure withholds the token", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "correct-horse", "R1")

		_, err := env.service.Identify(ctx, "a@x.com", "correct-horse")
		require.NoError(t, err)
		code := env.latestCode(t, seeded.ID)

		env.attempts.consumeErr = storageError("consume login attempt", assert.AnError)

		result, err := env.service.VerifyCode(ctx, seeded.ID, code)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.Nil(t, result, "no token may be issued when the consumption cannot be recorded")
	})
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with generated password and mails it", func(t *testing.T) {
		env := newTestEnv(t)

		user, err := env.service.Register(ctx, "Grace", "Hopper", "grace@x.com", "R2")
		require.NoError(t, err)
		assert.Empty(t, user.PasswordHash)
		assert.Equal(t, "R2", user.RoleID)

		stored, err := env.users.GetUserByEmail(ctx, "grace@x.com")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordHash)

		sent := env.sender.sentTo("grace@x.com")
		require.Len(t, sent, 1)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "grace@x.com", "pw", "R2")

		_, err := env.service.Register(ctx, "Grace", "Hopper", "grace@x.com", "R2")
		assert.ErrorIs(t, err, ErrUserExists)
	})
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the password and mails the new one", func(t *testing.T) {
		env := newTestEnv(t)
		seeded := env.seedUser(t, "a@x.com", "old-password", "R1")
		oldHash := seeded.PasswordHash

		require.NoError(t, env.service.ResetPassword(ctx, "a@x.com"))

		updated, err := env.users.GetUserByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.NotEqual(t, oldHash, updated.PasswordHash)
		require.Len(t, env.sender.sentTo("a@x.com"), 1)

		// Old password no longer works.
		_, err = env.service.Identify(ctx, "a@x.com", "old-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is silently accepted", func(t *testing.T) {
		env := newTestEnv(t)
		assert.NoError(t, env.service.ResetPassword(ctx, "nobody@x.com"))
		assert.Empty(t, env.sender.sent)
	})
}

func TestService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "a@x.com", "pw1", "R1")
	env.seedUser(t, "b@x.com", "pw2", "R2")

	users, err := env.service.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

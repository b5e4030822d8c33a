package login

import (
	"context"
	"sync"
	"time"

	"github.com/guardia-io/guardia/internal/notify"
)

type mockUserRepository struct {
	users        map[string]*User
	usersByEmail map[string]*User
	mu           sync.RWMutex
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:        make(map[string]*User),
		usersByEmail: make(map[string]*User),
	}
}

func (r *mockUserRepository) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return ErrUserExists
	}

	// Clone the user to prevent external modifications
	newUser := *user
	newUser.CreatedAt = time.Now()
	r.users[newUser.ID] = &newUser
	r.usersByEmail[newUser.Email] = &newUser
	return nil
}

func (r *mockUserRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockUserRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *mockUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *mockUserRepository) UpdateLoginAttempts(_ context.Context, userID string, failed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	now := time.Now()
	user.LastLoginAttempt = &now
	if failed {
		user.FailedLoginCount++
	} else {
		user.FailedLoginCount = 0
	}
	return nil
}

func (r *mockUserRepository) LockAccount(_ context.Context, userID string, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	user.Locked = true
	lockUntil := time.Now().Add(duration)
	user.LockUntil = &lockUntil
	return nil
}

func (r *mockUserRepository) UnlockAccount(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	user.Locked = false
	user.LockUntil = nil
	user.FailedLoginCount = 0
	return nil
}

type mockAttemptRepository struct {
	attempts map[string]*LoginAttempt
	mu       sync.Mutex

	consumeErr error
}

func newMockAttemptRepository() *mockAttemptRepository {
	return &mockAttemptRepository{
		attempts: make(map[string]*LoginAttempt),
	}
}

func (r *mockAttemptRepository) CreateAttempt(_ context.Context, attempt *LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *attempt
	clone.CreatedAt = time.Now()
	r.attempts[clone.ID] = &clone
	return nil
}

func (r *mockAttemptRepository) FindActiveByUserAndCode(_ context.Context, userID, code string, notBefore time.Time) (*LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sawConsumed := false
	for _, a := range r.attempts {
		if a.UserID != userID || a.Code != code {
			continue
		}
		if a.CodeConsumed {
			sawConsumed = true
			continue
		}
		if a.CreatedAt.Before(notBefore) {
			continue
		}
		clone := *a
		return &clone, nil
	}

	if sawConsumed {
		return nil, ErrCodeAlreadyUsed
	}
	return nil, ErrInvalidCode
}

// MarkConsumedAndSetToken mirrors the conditional-update semantics of the
// real store: the flip succeeds only while the attempt is unconsumed.
func (r *mockAttemptRepository) MarkConsumedAndSetToken(_ context.Context, attemptID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumeErr != nil {
		return r.consumeErr
	}

	attempt, exists := r.attempts[attemptID]
	if !exists || attempt.CodeConsumed {
		return ErrCodeAlreadyUsed
	}

	attempt.CodeConsumed = true
	attempt.Token = token
	attempt.TokenActive = true
	return nil
}

func (r *mockAttemptRepository) byUser(userID string) []LoginAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []LoginAttempt
	for _, a := range r.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out
}

type mockSender struct {
	sent []notify.Email
	mu   sync.Mutex
}

func newMockSender() *mockSender {
	return &mockSender{}
}

func (s *mockSender) Send(_ context.Context, email notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, email)
	return nil
}

func (s *mockSender) sentTo(email string) []notify.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []notify.Email
	for _, e := range s.sent {
		if e.To == email {
			out = append(out, e)
		}
	}
	return out
}

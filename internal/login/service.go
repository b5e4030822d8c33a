package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guardia-io/guardia/internal/config"
	"github.com/guardia-io/guardia/internal/notify"
	"github.com/guardia-io/guardia/internal/secrets"
)

const (
	defaultCodeLength         = 5
	defaultCodeExpiration     = 10 * time.Minute
	defaultTempPasswordLength = 10
	defaultMaxFailedLogins    = 5
	defaultLockoutDuration    = 15 * time.Minute
)

// Service orchestrates the two-step login flow: identify validates primary
// credentials and opens a login attempt; VerifyCode consumes the attempt's
// 2FA code and issues the bearer token.
type Service struct {
	config   *config.AuthConfig
	log      *zap.Logger
	users    UserRepository
	attempts AttemptRepository
	secrets  *secrets.Service
	sender   notify.Sender
}

// LoginResult is the outcome of a completed handshake.
type LoginResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	users UserRepository,
	attempts AttemptRepository,
	secrets *secrets.Service,
	sender notify.Sender,
) *Service {
	return &Service{
		config:   config,
		log:      log,
		users:    users,
		attempts: attempts,
		secrets:  secrets,
		sender:   sender,
	}
}

// Identify validates email and password. On success it opens a LoginAttempt
// with a fresh 2FA code and mails the code to the user. The response never
// reveals whether the email or the password was wrong.
func (s *Service) Identify(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a comparison so unknown emails take as long as bad passwords.
			_, _ = s.secrets.HashPassword("dummy")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Locked {
		if user.LockUntil != nil && time.Now().After(*user.LockUntil) {
			if err := s.users.UnlockAccount(ctx, user.ID); err != nil {
				return nil, err
			}
		} else {
			return nil, ErrAccountLocked
		}
	}

	if !s.secrets.CheckPassword(password, user.PasswordHash) {
		if err := s.users.UpdateLoginAttempts(ctx, user.ID, true); err != nil {
			s.log.Error("failed to update login attempts", zap.Error(err))
		}

		if user.FailedLoginCount+1 >= s.maxFailedLogins() {
			if err := s.users.LockAccount(ctx, user.ID, s.lockoutDuration()); err != nil {
				s.log.Error("failed to lock account", zap.Error(err))
			}
		}

		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLoginAttempts(ctx, user.ID, false); err != nil {
		s.log.Error("failed to reset login attempts", zap.Error(err))
	}

	code, err := s.secrets.RandomText(s.codeLength())
	if err != nil {
		return nil, fmt.Errorf("failed to generate 2fa code: %w", err)
	}

	attempt := &LoginAttempt{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Code:         code,
		CodeConsumed: false,
		Token:        "",
		TokenActive:  false,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	s.dispatchMail(ctx, user, "Código de verificación",
		fmt.Sprintf("<p>Su código de segundo factor es: <strong>%s</strong></p>", code))

	return user.Sanitized(), nil
}

// VerifyCode completes the handshake. The matched attempt is consumed with a
// conditional update; token issuance is conditional on that update landing,
// so a token is never handed out for an attempt the store does not record as
// consumed.
func (s *Service) VerifyCode(ctx context.Context, userID, code string) (*LoginResult, error) {
	notBefore := time.Now().Add(-s.codeExpiration())
	attempt, err := s.attempts.FindActiveByUserAndCode(ctx, userID, code, notBefore)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, attempt.UserID)
	if err != nil {
		return nil, err
	}

	token, err := s.secrets.IssueToken(user.DisplayName(), user.RoleID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.attempts.MarkConsumedAndSetToken(ctx, attempt.ID, token); err != nil {
		// The race loser lands here with ErrCodeAlreadyUsed; a storage fault
		// propagates so the caller can retry, and no token leaves the flow.
		return nil, err
	}

	return &LoginResult{
		User:  user.Sanitized(),
		Token: token,
	}, nil
}

// Register creates a user with a generated temporary password and mails the
// credentials to the new account's address.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, roleID string) (*User, error) {
	password, err := s.secrets.RandomText(s.tempPasswordLength())
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}

	hash, err := s.secrets.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.dispatchMail(ctx, user, "Bienvenido",
		fmt.Sprintf("<p>Su cuenta ha sido creada. Clave temporal: <strong>%s</strong></p>", password))

	return user.Sanitized(), nil
}

// ResetPassword replaces the user's password with a generated one and mails
// it. The response is identical whether or not the email exists.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	password, err := s.secrets.RandomText(s.tempPasswordLength())
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	hash, err := s.secrets.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.dispatchMail(ctx, user, "Nueva clave",
		fmt.Sprintf("<p>Su nueva clave es: <strong>%s</strong></p>", password))

	return nil
}

// ListUsers returns all users with credential material blanked.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	sanitized := make([]User, 0, len(users))
	for i := range users {
		sanitized = append(sanitized, *users[i].Sanitized())
	}
	return sanitized, nil
}

// dispatchMail sends account email fire-and-forget: a send failure is logged
// and never fails the calling flow.
func (s *Service) dispatchMail(ctx context.Context, user *User, subject, htmlBody string) {
	err := s.sender.Send(ctx, notify.Email{
		To:       user.Email,
		ToName:   user.DisplayName(),
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	if err != nil {
		s.log.Error("failed to send notification email",
			zap.String("to", user.Email),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

func (s *Service) codeLength() int {
	if s.config.CodeLength > 0 {
		return s.config.CodeLength
	}
	return defaultCodeLength
}

func (s *Service) codeExpiration() time.Duration {
	if s.config.CodeExpiration > 0 {
		return s.config.CodeExpiration
	}
	return defaultCodeExpiration
}

func (s *Service) tempPasswordLength() int {
	if s.config.TempPasswordLength > 0 {
		return s.config.TempPasswordLength
	}
	return defaultTempPasswordLength
}

func (s *Service) maxFailedLogins() int {
	if s.config.MaxFailedLogins > 0 {
		return s.config.MaxFailedLogins
	}
	return defaultMaxFailedLogins
}

func (s *Service) lockoutDuration() time.Duration {
	if s.config.LockoutDuration > 0 {
		return s.config.LockoutDuration
	}
	return defaultLockoutDuration
}

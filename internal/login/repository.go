package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidCode        = errors.New("invalid code")
	ErrCodeAlreadyUsed    = errors.New("code already used")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// UserRepository is the credential gateway's user side.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateLoginAttempts(ctx context.Context, userID string, failed bool) error
	LockAccount(ctx context.Context, userID string, duration time.Duration) error
	UnlockAccount(ctx context.Context, userID string) error
}

// AttemptRepository is the credential gateway's login-attempt side. The
// consume operation is a conditional update so that a given code can be
// consumed at most once even under concurrent verification calls.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *LoginAttempt) error
	FindActiveByUserAndCode(ctx context.Context, userID, code string, notBefore time.Time) (*LoginAttempt, error)
	MarkConsumedAndSetToken(ctx context.Context, attemptID, token string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *User) error {
	var existing User
	err := r.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return storageError("check existing user", err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return storageError("create user", err)
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("get user by id", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return storageError("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateLoginAttempts(ctx context.Context, userID string, failed bool) error {
	updates := map[string]interface{}{
		"last_login_attempt": time.Now(),
	}
	if failed {
		updates["failed_login_count"] = gorm.Expr("failed_login_count + 1")
	} else {
		updates["failed_login_count"] = 0
	}

	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return storageError("update login attempts", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) LockAccount(ctx context.Context, userID string, duration time.Duration) error {
	lockUntil := time.Now().Add(duration)
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"locked":     true,
		"lock_until": lockUntil,
	})
	if res.Error != nil {
		return storageError("lock account", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UnlockAccount(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"locked":             false,
		"lock_until":         nil,
		"failed_login_count": 0,
	})
	if res.Error != nil {
		return storageError("unlock account", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateAttempt(ctx context.Context, attempt *LoginAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return storageError("create login attempt", err)
	}
	return nil
}

func (r *attemptRepository) FindActiveByUserAndCode(ctx context.Context, userID, code string, notBefore time.Time) (*LoginAttempt, error) {
	var attempt LoginAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND code_consumed = ? AND created_at >= ?",
			userID, code, false, notBefore).
		Order("created_at DESC").
		First(&attempt).Error
	if err == nil {
		return &attempt, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageError("find login attempt", err)
	}

	// Distinguish a spent code from a wrong one so the second presentation of
	// a valid code reports the right failure.
	var consumed int64
	countErr := r.db.WithContext(ctx).Model(&LoginAttempt{}).
		Where("user_id = ? AND code = ? AND code_consumed = ?", userID, code, true).
		Count(&consumed).Error
	if countErr != nil {
		return nil, storageError("check consumed attempts", countErr)
	}
	if consumed > 0 {
		return nil, ErrCodeAlreadyUsed
	}
	return nil, ErrInvalidCode
}

// MarkConsumedAndSetToken flips the attempt to consumed and stores the issued
// token, but only while the attempt is still unconsumed. Under a race between
// two verifications of the same code, exactly one update matches; the loser
// sees ErrCodeAlreadyUsed.
func (r *attemptRepository) MarkConsumedAndSetToken(ctx context.Context, attemptID, token string) error {
	res := r.db.WithContext(ctx).Model(&LoginAttempt{}).
		Where("id = ? AND code_consumed = ?", attemptID, false).
		Updates(map[string]interface{}{
			"code_consumed": true,
			"token":         token,
			"token_active":  true,
		})
	if res.Error != nil {
		return storageError("consume login attempt", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCodeAlreadyUsed
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

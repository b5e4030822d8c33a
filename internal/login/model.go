package login

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	FirstName    string `gorm:"not null" json:"firstName"`
	LastName     string `gorm:"not null" json:"lastName"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	RoleID       string `gorm:"index;not null" json:"roleId"`

	FailedLoginCount int        `gorm:"default:0" json:"-"`
	Locked           bool       `gorm:"default:false" json:"-"`
	LockUntil        *time.Time `json:"-"`
	LastLoginAttempt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName is the name carried in issued tokens.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Sanitized returns a copy with the credential material blanked. Every user
// record that leaves the package boundary goes through this.
func (u *User) Sanitized() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// LoginAttempt is one authentication handshake. Created when credentials
// check out, mutated exactly once when the 2FA code is consumed. Attempts are
// never deleted here; retention is an external concern.
type LoginAttempt struct {
	ID           string `gorm:"primaryKey" json:"id"`
	UserID       string `gorm:"index;not null" json:"userId"`
	Code         string `gorm:"not null" json:"-"`
	CodeConsumed bool   `gorm:"default:false" json:"codeConsumed"`
	Token        string `gorm:"default:''" json:"-"`
	TokenActive  bool   `gorm:"default:false" json:"tokenActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (LoginAttempt) TableName() string {
	return "login_attempts"
}

package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	// MaxFailedLoginAttempts consecutive wrong passwords lock the account
	MaxFailedLoginAttempts = 3
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// User owns transactions, expenses and linked bank items.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Username            string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"type:varchar(255);not null" json:"-"`
	Role                string         `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	FailedLoginAttempts int            `gorm:"default:0" json:"-"`
	LockedAt            *time.Time     `gorm:"index" json:"locked_at,omitempty"`
	LastLoginAt         *time.Time     `gorm:"index" json:"last_login_at,omitempty"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	RefreshTokens     []RefreshToken     `gorm:"foreignKey:UserID" json:"-"`
	BlacklistedTokens []BlacklistedToken `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	return u.Validate()
}

// BeforeUpdate skips validation for column-map updates, which do not carry
// the whole row
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if _, partial := tx.Statement.Dest.(map[string]interface{}); partial {
		return nil
	}
	return u.Validate()
}

func (u *User) Validate() error {
	checks := []struct {
		ok  bool
		err error
	}{
		{u.Username != "", errors.New("username is required")},
		{usernamePattern.MatchString(u.Username), errors.New("invalid username format")},
		{u.Email != "", errors.New("email is required")},
		{emailPattern.MatchString(u.Email), errors.New("invalid email format")},
		{u.Role == RoleCustomer || u.Role == RoleAdmin, fmt.Errorf("invalid role: %s", u.Role)},
	}

	for _, check := range checks {
		if !check.ok {
			return check.err
		}
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsLocked() bool {
	return u.LockedAt != nil
}

// IncrementFailedAttempts counts a wrong password and locks the account once
// MaxFailedLoginAttempts is reached
func (u *User) IncrementFailedAttempts() {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts && u.LockedAt == nil {
		lockedAt := time.Now()
		u.LockedAt = &lockedAt
	}
}

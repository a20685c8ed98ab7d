package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims is the JWT payload of both token kinds. TokenType keeps a
// refresh token from being accepted where an access token is expected.
type CustomClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}

// Owner parses the user the token was issued to
func (c *CustomClaims) Owner() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed user_id claim: %w", err)
	}
	return id, nil
}

// RefreshToken is one login session. Only the sha256 of the token is kept.
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(255);not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (*RefreshToken) TableName() string { return "refresh_tokens" }

func (rt *RefreshToken) BeforeCreate(*gorm.DB) error {
	assignID(&rt.ID)
	return nil
}

// IsValid reports whether the session can still be rotated at now
func (rt *RefreshToken) IsValid(now time.Time) bool {
	if rt.RevokedAt != nil {
		return false
	}
	return now.Before(rt.ExpiresAt)
}

// BlacklistedToken is an access token jti revoked before its natural expiry.
// Rows are pruned once ExpiresAt passes.
type BlacklistedToken struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	JTI           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"jti"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	BlacklistedAt time.Time `gorm:"not null" json:"blacklisted_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (*BlacklistedToken) TableName() string { return "blacklisted_tokens" }

func (bt *BlacklistedToken) BeforeCreate(*gorm.DB) error {
	assignID(&bt.ID)
	if bt.BlacklistedAt.IsZero() {
		bt.BlacklistedAt = time.Now()
	}
	return nil
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

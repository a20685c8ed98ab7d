package services

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BCryptCost = 12

	DefaultMinPasswordLength = 8
	MaxPasswordLength        = 72 // bcrypt ignores bytes past 72
)

var (
	ErrPasswordEmpty       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrPasswordTooLong     = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	ErrPasswordNoUppercase = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLowercase = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber    = errors.New("password must contain at least one number")
)

type PasswordService struct {
	cost      int
	minLength int
}

type PasswordOption func(*PasswordService)

// WithBCryptCost overrides BCryptCost. Costs outside bcrypt's range are ignored.
func WithBCryptCost(cost int) PasswordOption {
	return func(ps *PasswordService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			ps.cost = cost
		}
	}
}

// NewPasswordService creates a password service. A non-positive minLength
// falls back to DefaultMinPasswordLength.
func NewPasswordService(minLength int, opts ...PasswordOption) PasswordServiceInterface {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	ps := &PasswordService{
		cost:      BCryptCost,
		minLength: min(minLength, MaxPasswordLength),
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// charClasses records which kinds of characters a password uses
type charClasses struct {
	upper, lower, digit, symbol bool
	distinct                    int
}

func classify(password string) charClasses {
	var classes charClasses
	seen := make(map[rune]struct{}, len(password))

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			classes.upper = true
		case unicode.IsLower(r):
			classes.lower = true
		case unicode.IsDigit(r):
			classes.digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			classes.symbol = true
		}
		seen[r] = struct{}{}
	}

	classes.distinct = len(seen)
	return classes
}

func (ps *PasswordService) ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrPasswordEmpty
	case len(password) < ps.minLength:
		return fmt.Errorf("%w: minimum is %d characters", ErrPasswordTooShort, ps.minLength)
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}

	classes := classify(password)
	switch {
	case !classes.upper:
		return ErrPasswordNoUppercase
	case !classes.lower:
		return ErrPasswordNoLowercase
	case !classes.digit:
		return ErrPasswordNoNumber
	}
	return nil
}

// HashPassword validates then hashes with bcrypt
func (ps *PasswordService) HashPassword(password string) (string, error) {
	if err := ps.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password validation failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), ps.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (ps *PasswordService) ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PasswordStrength scores 0-100. Length earns up to 40, each character
// class 15, and variety up to 10. A password that passes the policy never
// scores below 80.
func (ps *PasswordService) PasswordStrength(password string) int {
	if password == "" {
		return 0
	}

	score := 0
	for _, threshold := range []int{DefaultMinPasswordLength, 12, 16, 20} {
		if len(password) >= threshold {
			score += 10
		}
	}

	classes := classify(password)
	for _, present := range []bool{classes.upper, classes.lower, classes.digit, classes.symbol} {
		if present {
			score += 15
		}
	}

	switch {
	case classes.distinct*4 > len(password)*3:
		score += 10
	case classes.distinct*2 > len(password):
		score += 5
	}

	if ps.ValidatePassword(password) == nil {
		score = max(score, 80)
	}
	return min(score, 100)
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type PasswordServiceTestSuite struct {
	suite.Suite
	service PasswordServiceInterface
}

func (s *PasswordServiceTestSuite) SetupTest() {
	s.service = NewPasswordService(DefaultMinPasswordLength, WithBCryptCost(bcrypt.MinCost))
}

func TestPasswordServiceSuite(t *testing.T) {
	suite.Run(t, new(PasswordServiceTestSuite))
}

func (s *PasswordServiceTestSuite) TestValidatePassword() {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid", password: "Budget2024"},
		{name: "minimum length", password: "Aa1Aa1Aa"},
		{name: "with spaces", password: "Save More 1"},
		{name: "complex", password: "C0mpl3x!P@ssw0rd#2024"},
		{name: "empty", password: "", wantErr: ErrPasswordEmpty},
		{name: "too short", password: "Aa1", wantErr: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("Aa1", 25), wantErr: ErrPasswordTooLong},
		{name: "missing uppercase", password: "budget2024", wantErr: ErrPasswordNoUppercase},
		{name: "missing lowercase", password: "BUDGET2024", wantErr: ErrPasswordNoLowercase},
		{name: "missing number", password: "BudgetPlan", wantErr: ErrPasswordNoNumber},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.ValidatePassword(tt.password)
			if tt.wantErr == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tt.wantErr)
		})
	}
}

func (s *PasswordServiceTestSuite) TestValidatePassword_TooShortNamesMinimum() {
	err := s.service.ValidatePassword("Short1")
	s.Error(err)
	s.Contains(err.Error(), "minimum is 8 characters")
}

func (s *PasswordServiceTestSuite) TestHashPassword_ValidPassword() {
	hash, err := s.service.HashPassword("Budget2024")
	s.NoError(err)
	s.NotEqual("Budget2024", hash)
	s.True(strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$"))
}

func (s *PasswordServiceTestSuite) TestHashPassword_InvalidPassword() {
	hash, err := s.service.HashPassword("short")
	s.ErrorIs(err, ErrPasswordTooShort)
	s.Empty(hash)

	hash, err = s.service.HashPassword("")
	s.ErrorIs(err, ErrPasswordEmpty)
	s.Empty(hash)
}

func (s *PasswordServiceTestSuite) TestHashPassword_NearBcryptLimit() {
	password := strings.Repeat("Aa1!", 17) // 68 characters
	hash, err := s.service.HashPassword(password)
	s.NoError(err)
	s.True(s.service.ComparePassword(password, hash))
}

func (s *PasswordServiceTestSuite) TestComparePassword() {
	password := "Budget2024"
	hash, err := s.service.HashPassword(password)
	s.Require().NoError(err)

	s.True(s.service.ComparePassword(password, hash))
	s.False(s.service.ComparePassword("budget2024", hash))
	s.False(s.service.ComparePassword("", hash))
	s.False(s.service.ComparePassword(password, "invalid-hash"))
	s.False(s.service.ComparePassword(password, ""))
}

func (s *PasswordServiceTestSuite) TestHashUniqueness() {
	password := "Budget2024"

	hash1, err := s.service.HashPassword(password)
	s.Require().NoError(err)
	hash2, err := s.service.HashPassword(password)
	s.Require().NoError(err)

	s.NotEqual(hash1, hash2)
	s.True(s.service.ComparePassword(password, hash1))
	s.True(s.service.ComparePassword(password, hash2))
}

func (s *PasswordServiceTestSuite) TestPasswordStrength() {
	s.Equal(0, s.service.PasswordStrength(""))

	weak := s.service.PasswordStrength("password")
	s.Less(weak, 80)

	s.GreaterOrEqual(s.service.PasswordStrength("Budget2024"), 80)

	strong := s.service.PasswordStrength("VerySecure$Pass123!WithManyChars")
	s.GreaterOrEqual(strong, 85)
	s.LessOrEqual(strong, 100)
}

func TestNewPasswordService_MinimumLength(t *testing.T) {
	strict := NewPasswordService(12)
	assert.ErrorIs(t, strict.ValidatePassword("Budget2024"), ErrPasswordTooShort)
	assert.NoError(t, strict.ValidatePassword("Budget2024ok"))

	fallback := NewPasswordService(0)
	assert.NoError(t, fallback.ValidatePassword("Aa1Aa1Aa"))
	assert.ErrorIs(t, fallback.ValidatePassword("Aa1Aa1A"), ErrPasswordTooShort)
}

func TestWithBCryptCost(t *testing.T) {
	hash, err := NewPasswordService(0, WithBCryptCost(5)).HashPassword("Budget2024")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)

	ps := NewPasswordService(0, WithBCryptCost(99)).(*PasswordService)
	assert.Equal(t, BCryptCost, ps.cost)
}

func BenchmarkPasswordService_ComparePassword(b *testing.B) {
	service := NewPasswordService(DefaultMinPasswordLength)
	hash, err := service.HashPassword("Budget2024")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		service.ComparePassword("Budget2024", hash)
	}
}

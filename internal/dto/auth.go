package dto

import "time"

// Auth Request DTOs

// RegisterRequest contains user registration data
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest contains login credentials. Identifier is a username or email.
type LoginRequest struct {
	Identifier string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// RefreshTokenRequest contains refresh token for renewal
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Auth Response DTOs

// TokenResponse contains authentication tokens
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account holder
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordStrengthRequest carries a candidate password for scoring
type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

// PasswordStrengthResponse reports a 0-100 score and any policy violations
type PasswordStrengthResponse struct {
	Score      int      `json:"score"`
	Acceptable bool     `json:"acceptable"`
	Problems   []string `json:"problems,omitempty"`
}

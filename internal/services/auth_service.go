package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spendwise/internal/dto"
	"spendwise/internal/models"
	"spendwise/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountLocked       = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists   = errors.New("user with this username or email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// client identifies the caller of an auth operation for the audit trail
type client struct {
	ip        string
	userAgent string
}

// authEvent is one row of the auth audit trail
type authEvent struct {
	action   string
	userID   *uuid.UUID
	resource string
	reason   string
	extra    map[string]interface{}
}

func userEvent(action string, userID uuid.UUID) authEvent {
	return authEvent{action: action, userID: &userID, resource: "user"}
}

type AuthService struct {
	users     repositories.UserRepositoryInterface
	sessions  repositories.RefreshTokenRepositoryInterface
	audit     repositories.AuditLogRepositoryInterface
	revoked   repositories.BlacklistedTokenRepositoryInterface
	passwords PasswordServiceInterface
	tokens    TokenServiceInterface
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	users repositories.UserRepositoryInterface,
	sessions repositories.RefreshTokenRepositoryInterface,
	audit repositories.AuditLogRepositoryInterface,
	revoked repositories.BlacklistedTokenRepositoryInterface,
	passwords PasswordServiceInterface,
	tokens TokenServiceInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		audit:     audit,
		revoked:   revoked,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a customer account. Username and email must both be unused.
func (s *AuthService) Register(req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error) {
	from := client{ipAddress, userAgent}
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.identityTaken(username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		s.record(from, authEvent{
			action:   models.AuditActionRegister,
			resource: "user",
			reason:   "identity_already_exists",
			extra:    map[string]interface{}{"email": email},
		})
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.record(from, userEvent(models.AuditActionRegister, user.ID))
	return user, nil
}

// Login authenticates by username or email and issues a token pair.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	from := client{ipAddress, userAgent}
	failed := func(reason string) {
		s.record(from, authEvent{
			action:   models.AuditActionFailedLogin,
			resource: "user",
			reason:   reason,
			extra:    map[string]interface{}{"identifier": req.Identifier},
		})
	}

	user, err := s.findByIdentifier(req.Identifier)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		failed("user_not_found")
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked() {
		failed("account_locked")
		return nil, ErrAccountLocked
	}

	if !s.passwords.ComparePassword(req.Password, user.PasswordHash) {
		s.registerFailedAttempt(user, from)
		failed("invalid_password")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record login", "error", err, "user_id", user.ID)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.record(from, userEvent(models.AuditActionLogin, user.ID))
	return pair, nil
}

func (s *AuthService) registerFailedAttempt(user *models.User, from client) {
	user.IncrementFailedAttempts()
	if err := s.users.UpdateFailedLoginAttempts(user); err != nil {
		s.logger.Error("failed to update login attempts", "error", err, "user_id", user.ID)
	}
	if user.IsLocked() {
		s.record(from, userEvent(models.AuditActionAccountLocked, user.ID))
	}
}

// RefreshTokens rotates a refresh token: the presented token is revoked and
// a new pair is issued.
func (s *AuthService) RefreshTokens(refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	from := client{ipAddress, userAgent}
	rejected := func(userID *uuid.UUID, reason string) (*dto.TokenResponse, error) {
		s.record(from, authEvent{
			action:   models.AuditActionTokenRefresh,
			userID:   userID,
			resource: "token",
			reason:   reason,
		})
		return nil, ErrInvalidRefreshToken
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return rejected(nil, "invalid_token")
	}

	userID, err := claims.Owner()
	if err != nil {
		return nil, err
	}

	stored, err := s.sessions.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		return rejected(&userID, "token_not_found")
	}
	if !stored.IsValid(s.now()) {
		return rejected(&userID, "token_expired_or_revoked")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if stored.UserID != userID {
		return rejected(&userID, "token_user_mismatch")
	}

	if err := s.sessions.Revoke(stored.ID); err != nil {
		s.logger.Warn("failed to revoke rotated refresh token", "error", err, "user_id", user.ID, "token_id", stored.ID)
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	s.record(from, userEvent(models.AuditActionTokenRefresh, user.ID))
	return pair, nil
}

// Logout blacklists the access token and revokes every refresh token of
// its owner. Tokens that no longer validate are ignored.
func (s *AuthService) Logout(accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil
	}
	userID, err := claims.Owner()
	if err != nil {
		return nil
	}

	expiresAt, _ := s.tokens.GetTokenExpiry(accessToken)
	if err := s.revoked.Create(&models.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}); err != nil {
		s.logger.Error("failed to blacklist token", "error", err, "jti", claims.ID, "user_id", userID)
	}

	if err := s.sessions.RevokeAllForUser(userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", "error", err, "user_id", userID)
	}

	s.record(client{ipAddress, userAgent}, userEvent(models.AuditActionLogout, userID))
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*dto.TokenResponse, error) {
	access, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, refreshExpiresAt, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.sessions.Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// findByIdentifier treats identifiers containing '@' as emails
func (s *AuthService) findByIdentifier(identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.users.GetByEmail(strings.ToLower(identifier))
	}
	return s.users.GetByUsername(identifier)
}

func (s *AuthService) identityTaken(username, email string) (bool, error) {
	lookups := []func() (*models.User, error){
		func() (*models.User, error) { return s.users.GetByUsername(username) },
		func() (*models.User, error) { return s.users.GetByEmail(email) },
	}

	for _, lookup := range lookups {
		_, err := lookup()
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return false, fmt.Errorf("failed to check existing user: %w", err)
		}
	}
	return false, nil
}

// hashToken is the storage key for refresh tokens
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// record writes an audit row. Failures are logged and never block the caller.
func (s *AuthService) record(from client, ev authEvent) {
	entry := &models.AuditLog{
		UserID:    ev.userID,
		Action:    ev.action,
		Resource:  ev.resource,
		IPAddress: from.ip,
		UserAgent: from.userAgent,
	}
	if ev.userID != nil && ev.resource == "user" {
		entry.ResourceID = ev.userID.String()
	}

	for k, v := range ev.extra {
		entry.SetMetadata(k, v)
	}
	if ev.reason != "" {
		entry.SetMetadata("reason", ev.reason)
	}

	if err := s.audit.Create(entry); err != nil {
		s.logger.Error("failed to create audit log", "error", err, "action", ev.action, "resource", ev.resource)
	}
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token is expired")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// TokenService signs access and refresh tokens with RS256. Both carry a
// random jti so a single token can be revoked.
type TokenService struct {
	cfg    config.JWTConfig
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(jwtConfig *config.JWTConfig) TokenServiceInterface {
	ts := &TokenService{cfg: *jwtConfig, now: time.Now}
	ts.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(jwtConfig.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return ts.now() }),
	)
	return ts
}

func (ts *TokenService) GenerateAccessToken(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("user cannot be nil")
	}

	claims, expiresAt := ts.claims(user.ID, models.TokenTypeAccess, ts.cfg.AccessTokenDuration)
	claims.Username = user.Username
	claims.Email = user.Email
	claims.Role = user.Role

	return ts.sign(claims, expiresAt)
}

func (ts *TokenService) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("user ID cannot be nil")
	}

	claims, expiresAt := ts.claims(userID, models.TokenTypeRefresh, ts.cfg.RefreshTokenDuration)
	return ts.sign(claims, expiresAt)
}

func (ts *TokenService) ValidateAccessToken(tokenString string) (*models.CustomClaims, error) {
	return ts.validate(tokenString, models.TokenTypeAccess)
}

func (ts *TokenService) ValidateRefreshToken(tokenString string) (*models.CustomClaims, error) {
	return ts.validate(tokenString, models.TokenTypeRefresh)
}

// ExtractTokenFromHeader strips a case-insensitive "Bearer " prefix
func (ts *TokenService) ExtractTokenFromHeader(authHeader string) (string, error) {
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", ErrInvalidAuthHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

// GetJTI reads the jti without checking the signature. Only call it on a
// token that has already been validated.
func (ts *TokenService) GetJTI(tokenString string) (string, error) {
	claims, err := ts.unverified(tokenString)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// GetTokenExpiry reads exp without checking the signature
func (ts *TokenService) GetTokenExpiry(tokenString string) (time.Time, error) {
	claims, err := ts.unverified(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}

func (ts *TokenService) claims(userID uuid.UUID, tokenType string, lifetime time.Duration) (models.CustomClaims, time.Time) {
	issuedAt := ts.now()
	expiresAt := issuedAt.Add(lifetime)

	return models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.Issuer,
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID.String(),
		TokenType: tokenType,
	}, expiresAt
}

func (ts *TokenService) sign(claims models.CustomClaims, expiresAt time.Time) (string, time.Time, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.cfg.PrivateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", claims.TokenType, err)
	}
	return signed, expiresAt, nil
}

func (ts *TokenService) validate(tokenString, tokenType string) (*models.CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	_, err := ts.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ts.cfg.PublicKey, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, ErrInvalidIssuer
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != tokenType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

func (ts *TokenService) unverified(tokenString string) (*models.CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &models.CustomClaims{}
	if _, _, err := ts.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

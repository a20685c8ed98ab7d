package middleware

import (
	stderrors "errors"

	"spendwise/internal/errors"
	"spendwise/internal/handlers"
	"spendwise/internal/models"
	"spendwise/internal/repositories"
	"spendwise/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Keys RequireAuth stores on the echo context
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "user_role"
	ContextIsAdmin  = "is_admin"
	ContextTokenJTI = "token_jti"
)

// RequireAuth admits requests carrying a valid, unrevoked access token and
// records the caller's identity on the context. When the revocation list
// cannot be read the request is refused.
func RequireAuth(tokenService services.TokenServiceInterface, blacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			token, err := tokenService.ExtractTokenFromHeader(header)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			switch {
			case stderrors.Is(err, services.ErrExpiredToken):
				return handlers.SendError(c, errors.AuthExpiredToken)
			case err != nil:
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			revoked, err := blacklistedTokenRepo.IsBlacklisted(claims.ID)
			if err != nil {
				return handlers.SendError(c, errors.SystemServiceUnavailable)
			}
			if revoked {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Token has been revoked"))
			}

			userID, err := claims.Owner()
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid user ID in token"))
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUsername, claims.Username)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextIsAdmin, claims.Role == models.RoleAdmin)
			c.Set(ContextTokenJTI, claims.ID)

			return next(c)
		}
	}
}

// RequireRole admits callers holding any of roles. Must run after RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(string)
			if !ok {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("User role not found in token"))
			}
			if !allowed[role] {
				return handlers.SendError(c, errors.AuthInsufficientPermission)
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireSelfOrAdmin rejects requests whose path parameter names another user,
// unless the caller is an admin. Must run after RequireAuth.
func RequireSelfOrAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			targetID, err := uuid.Parse(c.Param(param))
			if err != nil {
				return handlers.SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("Invalid user ID format"))
			}

			if isAdmin, _ := c.Get(ContextIsAdmin).(bool); isAdmin {
				return next(c)
			}

			if userID, ok := c.Get(ContextUserID).(uuid.UUID); !ok || userID != targetID {
				return handlers.SendError(c, errors.AuthInsufficientPermission)
			}
			return next(c)
		}
	}
}

package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"spendwise/internal/dto"
	"spendwise/internal/errors"
	"spendwise/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves registration, login and the session lifecycle
type AuthHandler struct {
	authService     services.AuthServiceInterface
	passwordService services.PasswordServiceInterface
	logger          *slog.Logger
}

func NewAuthHandler(authService services.AuthServiceInterface, passwordService services.PasswordServiceInterface, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		passwordService: passwordService,
		logger:          logger,
	}
}

// authFailures maps auth service errors onto client error codes. Anything
// not listed is a system error.
var authFailures = []struct {
	err  error
	code errors.ErrorCode
}{
	{services.ErrUserAlreadyExists, errors.AuthUserAlreadyExists},
	{services.ErrAccountLocked, errors.AuthAccountLocked},
	{services.ErrInvalidCredentials, errors.AuthInvalidCredentials},
	{services.ErrInvalidRefreshToken, errors.AuthInvalidTokenFormat},
}

var passwordRules = []error{
	services.ErrPasswordEmpty,
	services.ErrPasswordTooShort,
	services.ErrPasswordTooLong,
	services.ErrPasswordNoUppercase,
	services.ErrPasswordNoLowercase,
	services.ErrPasswordNoNumber,
}

func (h *AuthHandler) fail(c echo.Context, op string, err error) error {
	for _, f := range authFailures {
		if stderrors.Is(err, f.err) {
			return SendError(c, f.code)
		}
	}
	for _, rule := range passwordRules {
		if stderrors.Is(err, rule) {
			return SendError(c, errors.ValidationGeneral, errors.WithDetails("password: "+rule.Error()))
		}
	}

	h.logger.ErrorContext(c.Request().Context(), op+" failed", "error", err, "trace_id", getTraceID(c))
	return SendSystemError(c, err)
}

func invalidBody(c echo.Context) error {
	return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
}

// Register godoc
// @Summary Register a new user
// @Description Create a customer account with a unique username and email
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 201 {object} SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 409 {object} errors.ErrorResponse "AUTH_007 - username or email taken"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.Register(&req, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return h.fail(c, "registration", err)
	}

	return c.JSON(http.StatusCreated, SuccessResponse{
		Data: dto.UserResponse{
			ID:        user.ID.String(),
			Username:  user.Username,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Message: "User registered successfully",
	})
}

// Login godoc
// @Summary Login
// @Description Authenticate with username or email and receive an access and refresh token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - invalid credentials"
// @Failure 403 {object} errors.ErrorResponse "AUTH_006 - account locked"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.Login(&req, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return h.fail(c, "login", err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// RefreshToken godoc
// @Summary Rotate tokens
// @Description Exchange a refresh token for a new pair. The presented token is revoked.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} errors.ErrorResponse "AUTH_004 - invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.RefreshTokens(req.RefreshToken, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return h.fail(c, "token refresh", err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout godoc
// @Summary Logout
// @Description Revoke the bearer token and every refresh token of its owner
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{message=string}
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 or AUTH_004"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return SendError(c, errors.AuthMissingToken)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	// success is reported either way so the response does not reveal token state
	if err := h.authService.Logout(token, c.RealIP(), c.Request().UserAgent()); err != nil {
		h.logger.WarnContext(c.Request().Context(), "logout failed", "error", err, "trace_id", getTraceID(c))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Logout successful"})
}

// PasswordStrength godoc
// @Summary Password strength
// @Description Score a candidate password against the policy without storing it
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} dto.PasswordStrengthResponse
// @Router /auth/password-strength [post]
func (h *AuthHandler) PasswordStrength(c echo.Context) error {
	var req dto.PasswordStrengthRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	response := dto.PasswordStrengthResponse{
		Score:    h.passwordService.PasswordStrength(req.Password),
		Problems: []string{},
	}
	if err := h.passwordService.ValidatePassword(req.Password); err != nil {
		response.Problems = append(response.Problems, err.Error())
	}
	response.Acceptable = len(response.Problems) == 0

	return c.JSON(http.StatusOK, response)
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/models"
	"spendwise/internal/repositories/repository_mocks"
	"spendwise/internal/services"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

func TestAuthMiddleware(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

type AuthMiddlewareSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	tokens       services.TokenServiceInterface
	blacklist    *repository_mocks.MockBlacklistedTokenRepositoryInterface
	e            *echo.Echo
	customer     *models.User
	customerAuth string
}

func newTokenService(t *testing.T, lifetime time.Duration) (services.TokenServiceInterface, error) {
	t.Helper()
	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	if err != nil {
		return nil, err
	}
	return services.NewTokenService(&config.JWTConfig{
		PrivateKey:           privateKey,
		PublicKey:            publicKey,
		Issuer:               "spendwise-test",
		AccessTokenDuration:  lifetime,
		RefreshTokenDuration: 24 * time.Hour,
	}), nil
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.blacklist = repository_mocks.NewMockBlacklistedTokenRepositoryInterface(s.ctrl)
	s.e = echo.New()

	var err error
	s.tokens, err = newTokenService(s.T(), time.Hour)
	s.Require().NoError(err)

	s.customer = &models.User{ID: uuid.New(), Username: "ledger-owner", Email: "owner@example.com", Role: models.RoleCustomer}
	token, _, err := s.tokens.GenerateAccessToken(s.customer)
	s.Require().NoError(err)
	s.customerAuth = "Bearer " + token
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthMiddlewareSuite) serve(mw echo.MiddlewareFunc, authorization string, inner echo.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/x", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)

	if inner == nil {
		inner = func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	}
	s.Require().NoError(mw(inner)(c))
	return rec
}

func (s *AuthMiddlewareSuite) TestValidTokenPopulatesContext() {
	s.blacklist.EXPECT().IsBlacklisted(gomock.Any()).Return(false, nil)

	rec := s.serve(RequireAuth(s.tokens, s.blacklist), s.customerAuth, func(c echo.Context) error {
		s.Equal(s.customer.ID, c.Get(ContextUserID))
		s.Equal("ledger-owner", c.Get(ContextUsername))
		s.Equal(models.RoleCustomer, c.Get(ContextRole))
		s.Equal(false, c.Get(ContextIsAdmin))
		s.NotEmpty(c.Get(ContextTokenJTI))
		return c.NoContent(http.StatusNoContent)
	})
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *AuthMiddlewareSuite) TestAdminFlag() {
	admin := &models.User{ID: uuid.New(), Username: "ops", Email: "ops@example.com", Role: models.RoleAdmin}
	token, _, err := s.tokens.GenerateAccessToken(admin)
	s.Require().NoError(err)
	s.blacklist.EXPECT().IsBlacklisted(gomock.Any()).Return(false, nil)

	rec := s.serve(RequireAuth(s.tokens, s.blacklist), "Bearer "+token, func(c echo.Context) error {
		s.Equal(true, c.Get(ContextIsAdmin))
		return c.NoContent(http.StatusNoContent)
	})
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *AuthMiddlewareSuite) TestRejectedTokens() {
	foreignTokens, err := newTokenService(s.T(), time.Hour)
	s.Require().NoError(err)
	foreign, _, err := foreignTokens.GenerateAccessToken(s.customer)
	s.Require().NoError(err)

	cases := []struct {
		name          string
		authorization string
		code          string
	}{
		{"missing header", "", "AUTH_002"},
		{"not a bearer header", "Token abc", "AUTH_004"},
		{"malformed jwt", "Bearer not.a.jwt", "AUTH_004"},
		{"signed by another key", "Bearer " + foreign, "AUTH_004"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := s.serve(RequireAuth(s.tokens, s.blacklist), tc.authorization, nil)
			s.Equal(http.StatusUnauthorized, rec.Code)
			s.Contains(rec.Body.String(), tc.code)
		})
	}
}

func (s *AuthMiddlewareSuite) TestExpiredToken() {
	shortLived, err := newTokenService(s.T(), time.Millisecond)
	s.Require().NoError(err)
	token, _, err := shortLived.GenerateAccessToken(s.customer)
	s.Require().NoError(err)
	time.Sleep(1100 * time.Millisecond)

	rec := s.serve(RequireAuth(shortLived, s.blacklist), "Bearer "+token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "AUTH_003")
}

func (s *AuthMiddlewareSuite) TestRevokedToken() {
	s.blacklist.EXPECT().IsBlacklisted(gomock.Any()).Return(true, nil)

	rec := s.serve(RequireAuth(s.tokens, s.blacklist), s.customerAuth, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "Token has been revoked")
}

func (s *AuthMiddlewareSuite) TestRevocationListUnavailable() {
	s.blacklist.EXPECT().IsBlacklisted(gomock.Any()).Return(false, errors.New("database is locked"))

	rec := s.serve(RequireAuth(s.tokens, s.blacklist), s.customerAuth, nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.NotContains(rec.Body.String(), "database is locked")
}

func (s *AuthMiddlewareSuite) TestRequireRole() {
	cases := []struct {
		name   string
		role   interface{}
		roles  []string
		status int
	}{
		{"admin passes admin gate", models.RoleAdmin, []string{models.RoleAdmin}, http.StatusNoContent},
		{"customer blocked", models.RoleCustomer, []string{models.RoleAdmin}, http.StatusForbidden},
		{"any of several", models.RoleCustomer, []string{models.RoleAdmin, models.RoleCustomer}, http.StatusNoContent},
		{"no role on context", nil, []string{models.RoleAdmin}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := httptest.NewRecorder()
			c := s.e.NewContext(httptest.NewRequest(http.MethodPost, "/admin/forecast/train", nil), rec)
			if tc.role != nil {
				c.Set(ContextRole, tc.role)
			}

			err := RequireRole(tc.roles...)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
			s.NoError(err)
			s.Equal(tc.status, rec.Code)
		})
	}
}

func (s *AuthMiddlewareSuite) TestRequireSelfOrAdmin() {
	callerID := uuid.New()
	handler := RequireSelfOrAdmin("userId")(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	cases := []struct {
		name    string
		target  string
		isAdmin bool
		status  int
	}{
		{"own ledger", callerID.String(), false, http.StatusNoContent},
		{"another user's ledger", uuid.NewString(), false, http.StatusForbidden},
		{"admin reads another ledger", uuid.NewString(), true, http.StatusNoContent},
		{"malformed id", "42", false, http.StatusBadRequest},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := httptest.NewRecorder()
			c := s.e.NewContext(httptest.NewRequest(http.MethodGet, "/analysis/monthly-summary/"+tc.target, nil), rec)
			c.SetParamNames("userId")
			c.SetParamValues(tc.target)
			c.Set(ContextUserID, callerID)
			c.Set(ContextIsAdmin, tc.isAdmin)

			s.NoError(handler(c))
			s.Equal(tc.status, rec.Code)
		})
	}
}

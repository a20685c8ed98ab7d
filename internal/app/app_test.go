package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestApp(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

type AppSuite struct {
	suite.Suite
	app *App
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	if err != nil {
		t.Fatalf("failed to generate keys: %v", err)
	}

	return &config.Config{
		Server: config.ServerConfig{
			Environment:      "testing",
			CORSAllowOrigins: []string{"*"},
			ShutdownTimeout:  time.Second,
		},
		JWT: config.JWTConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: time.Hour,
			PrivateKey:           privateKey,
			PublicKey:            publicKey,
			Issuer:               "spendwise-test",
		},
		Security: config.SecurityConfig{
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
			PasswordMinLength:  8,
			BCryptCost:         4,
			AuditRetention:     24 * time.Hour,
		},
		Analysis: config.AnalysisConfig{
			Seed:           42,
			LookbackDays:   90,
			MaxClusters:    5,
			MinClusterSize: 3,
			SavingsRate:    0.30,
		},
		Policy: config.PolicyConfig{
			OptionalThreshold: 100,
			WastefulThreshold: 200,
		},
		Plaid: config.PlaidConfig{
			Environment:  "sandbox",
			LookbackDays: 90,
		},
		Forecast: config.ForecastConfig{
			ModelPath: filepath.Join(t.TempDir(), "expense_forecast.json"),
		},
	}
}

func (s *AppSuite) SetupTest() {
	db := database.SetupTestDB(s.T())
	app, err := NewWithDB(testConfig(s.T()), db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.app = app
}

func (s *AppSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *AppSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *AppSuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *AppSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.decode(rec, &resp)
	return resp.Error.Code
}

// registerAndLogin returns the new user's id and an access token
func (s *AppSuite) registerAndLogin(username string) (string, string) {
	rec := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "SecurePass123",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	s.decode(rec, &registered)

	return registered.Data.ID, s.login(username)
}

func (s *AppSuite) login(username string) string {
	rec := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "SecurePass123",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(rec, &tokens)
	return tokens.AccessToken
}

func (s *AppSuite) TestHealthReportsOptionalComponents() {
	rec := s.do(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	var body map[string]string
	s.decode(rec, &body)
	s.Equal("healthy", body["status"])
	s.Equal("not_loaded", body["forecast_model"])
	s.Equal("not_configured", body["bank_provider"])
	s.NotEmpty(rec.Header().Get("X-Trace-ID"))
}

func (s *AppSuite) TestMetricsEndpoint() {
	rec := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AppSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/nowhere", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("SYSTEM_007", s.errorCode(rec))
}

func (s *AppSuite) TestLedgerAndAnalysisFlow() {
	userID, token := s.registerAndLogin("alice")
	today := time.Now().UTC()

	for _, tx := range []map[string]string{
		{"amount": "120.00", "category": "essential", "description": "Groceries"},
		{"amount": "250.00", "category": "misc", "description": "Concert tickets"},
		{"amount": "15.50", "category": "entertainment", "description": "Cinema", "importance": "wasteful"},
	} {
		tx["date"] = today.Format(time.RFC3339)
		rec := s.do(http.MethodPost, "/api/v1/transactions", token, tx)
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/v1/analysis/spending-patterns/"+userID, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var patterns struct {
		CategoryTotals map[string]float64 `json:"category_totals"`
		CategoryCounts map[string]int     `json:"category_counts"`
	}
	s.decode(rec, &patterns)
	s.InDelta(120.0, patterns.CategoryTotals["essential"], 0.001)
	s.Equal(1, patterns.CategoryCounts["misc"])
	s.NotContains(patterns.CategoryTotals, "shopping")

	// misc above the wasteful threshold is derived as wasteful
	rec = s.do(http.MethodGet, "/api/v1/analysis/wasteful-spending/"+userID, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var wasteful []models.WastefulRecord
	s.decode(rec, &wasteful)
	s.Len(wasteful, 2)

	rec = s.do(http.MethodGet, "/api/v1/analysis/monthly-summary/"+userID, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary models.MonthlySummary
	s.decode(rec, &summary)
	s.InDelta(385.5, summary.TotalSpent, 0.001)
	s.InDelta(120.0, summary.EssentialExpenses, 0.001)
	s.InDelta(265.5, summary.WastefulSpending, 0.001)

	rec = s.do(http.MethodGet, "/api/v1/analysis/savings-opportunities/"+userID, token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/transactions/"+userID+"?importance=wasteful", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var listed struct {
		Total int `json:"total"`
	}
	s.decode(rec, &listed)
	s.Equal(2, listed.Total)
}

func (s *AppSuite) TestUsersCannotReadEachOther() {
	aliceID, _ := s.registerAndLogin("alice")
	_, bobToken := s.registerAndLogin("bob")

	rec := s.do(http.MethodGet, "/api/v1/analysis/monthly-summary/"+aliceID, bobToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("AUTH_005", s.errorCode(rec))

	rec = s.do(http.MethodGet, "/api/v1/analysis/monthly-summary/"+aliceID, "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AppSuite) TestRevokedTokenIsRejected() {
	userID, token := s.registerAndLogin("carol")

	rec := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/bank-accounts/"+userID, token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AppSuite) TestBankProviderNotConfigured() {
	_, token := s.registerAndLogin("dave")

	rec := s.do(http.MethodPost, "/api/v1/plaid/fetch_transactions", token, nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("PLAID_001", s.errorCode(rec))
}

func (s *AppSuite) TestForecastLifecycle() {
	_, token := s.registerAndLogin("erin")

	rec := s.do(http.MethodPost, "/api/v1/predict", token, map[string]int{"month": 6})
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("FORECAST_001", s.errorCode(rec))

	rec = s.do(http.MethodPost, "/api/v1/admin/forecast/train", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	s.Require().NoError(s.app.DB.Model(&models.User{}).
		Where("username = ?", "erin").
		Update("role", models.RoleAdmin).Error)
	adminToken := s.login("erin")

	rec = s.do(http.MethodPost, "/api/v1/admin/forecast/train", adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.FileExists(s.app.Config.Forecast.ModelPath)

	rec = s.do(http.MethodPost, "/api/v1/predict", token, map[string]int{"month": 6})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var prediction struct {
		PredictedExpense float64 `json:"predicted_expense"`
	}
	s.decode(rec, &prediction)
	// Baseline fit over [1..5] -> [1000,1200,1100,1300,1400]
	s.InDelta(1470.0, prediction.PredictedExpense, 0.001)

	rec = s.do(http.MethodPost, "/api/v1/predict", token, map[string]int{"month": 13})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("FORECAST_002", s.errorCode(rec))
}

func (s *AppSuite) TestPruneRemovesExpiredRows() {
	userID, _ := s.registerAndLogin("frank")
	uid, err := uuid.Parse(userID)
	s.Require().NoError(err)

	past := time.Now().Add(-48 * time.Hour)
	s.Require().NoError(s.app.DB.Create(&models.RefreshToken{UserID: uid, TokenHash: "stale", ExpiresAt: past}).Error)
	s.Require().NoError(s.app.DB.Create(&models.BlacklistedToken{JTI: "stale-jti", UserID: uid, ExpiresAt: past}).Error)
	s.Require().NoError(s.app.DB.Create(&models.AuditLog{Action: models.AuditActionLogin, Resource: "user", CreatedAt: past}).Error)

	result, err := s.app.Prune()
	s.Require().NoError(err)
	s.Equal(int64(1), result.RefreshTokens)
	s.Equal(int64(1), result.RevokedTokens)
	s.Equal(int64(1), result.AuditLogs)

	// the login session and its audit rows are recent and survive
	var remaining int64
	s.Require().NoError(s.app.DB.Model(&models.AuditLog{}).Count(&remaining).Error)
	s.Equal(int64(2), remaining)
}

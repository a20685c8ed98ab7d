package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/handlers"
	"spendwise/internal/middleware"
	"spendwise/internal/repositories"
	"spendwise/internal/services"
	"spendwise/internal/validation"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pruneInterval = time.Hour

// App is the process context. It owns every long-lived dependency; nothing
// below it keeps package level state.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.DB
	Echo   *echo.Echo

	// Registry holds the App's collectors; /metrics also serves the default one
	Registry *prometheus.Registry

	Metrics     services.MetricsRecorderInterface
	AuditLogger services.AuditLoggerInterface
	Policy      services.CategorizationPolicyInterface

	// Plaid is nil when no provider credentials are configured
	Plaid    services.PlaidClientInterface
	Forecast services.ForecastServiceInterface

	Users        repositories.UserRepositoryInterface
	Transactions repositories.TransactionRepositoryInterface
	Expenses     repositories.ExpenseRepositoryInterface

	refreshTokens repositories.RefreshTokenRepositoryInterface
	revokedTokens repositories.BlacklistedTokenRepositoryInterface
	auditLogs     repositories.AuditLogRepositoryInterface

	rateLimiter *middleware.RateLimiter
}

// New connects to the configured database, applies migrations and builds the
// App around it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Initialize(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	a, err := NewWithDB(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// NewWithDB builds the App on an already migrated database
func NewWithDB(cfg *config.Config, db *database.DB, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = services.NewPrometheusMetricsWithRegistry(a.Registry)
	a.AuditLogger = services.NewAuditLogger(logger)

	policyConfig, err := services.NewPolicyConfig(&cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization policy: %w", err)
	}
	a.Policy = services.NewCategorizationPolicy(policyConfig)

	a.Users = repositories.NewUserRepository(db.DB)
	a.Transactions = repositories.NewTransactionRepository(db.DB)
	a.Expenses = repositories.NewExpenseRepository(db.DB)
	a.refreshTokens = repositories.NewRefreshTokenRepository(db.DB)
	a.revokedTokens = repositories.NewBlacklistedTokenRepository(db.DB)
	a.auditLogs = repositories.NewAuditLogRepository(db.DB)

	a.Forecast = services.NewForecastService(a.Transactions, a.Expenses, a.Metrics, a.AuditLogger)
	a.loadForecastModel()

	breaker := services.NewCircuitBreaker("plaid", services.DefaultCircuitBreakerConfig(), a.onBreakerStateChange)
	a.Plaid, err = services.NewPlaidClient(&cfg.Plaid, breaker, a.Metrics, a.AuditLogger)
	switch {
	case errors.Is(err, services.ErrPlaidNotConfigured):
		logger.Info("bank data provider not configured, import endpoints will answer 503")
	case err != nil:
		return nil, fmt.Errorf("failed to create plaid client: %w", err)
	}

	a.rateLimiter = middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)
	a.Echo = a.newEcho()

	return a, nil
}

func (a *App) loadForecastModel() {
	path := a.Config.Forecast.ModelPath
	if path == "" {
		return
	}

	err := a.Forecast.Load(path)
	switch {
	case err == nil:
		a.Logger.Info("forecast model loaded", "path", path)
	case errors.Is(err, os.ErrNotExist):
		a.Logger.Warn("forecast model file not found, predictions disabled until trained", "path", path)
	default:
		a.Logger.Warn("failed to load forecast model", "path", path, "error", err)
	}
}

func (a *App) onBreakerStateChange(name string, from, to services.CircuitBreakerState) {
	a.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	a.Metrics.IncrementCounter("circuit_breaker."+to.String(), map[string]string{"service": name})
	a.AuditLogger.LogCircuitBreakerStateChange(context.Background(), name, from.String(), to.String())
}

func (a *App) newEcho() *echo.Echo {
	cfg := a.Config
	db := a.DB.DB

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewValidator()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(a.Logger, a.Metrics)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(a.Logger, a.Metrics))
	e.Use(middleware.PanicRecovery(a.Logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.TraceIDHeader},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(a.rateLimiter.Middleware())

	bankAccountRepo := repositories.NewBankAccountRepository(db)
	linkedItemRepo := repositories.NewLinkedItemRepository(db)

	// Services
	auditService := services.NewAuditService(a.auditLogs)
	passwordService := services.NewPasswordService(cfg.Security.PasswordMinLength, services.WithBCryptCost(cfg.Security.BCryptCost))
	tokenService := services.NewTokenService(&cfg.JWT)
	authService := services.NewAuthService(a.Users, a.refreshTokens, a.auditLogs, a.revokedTokens, passwordService, tokenService, a.Logger)
	analysisService := services.NewAnalysisService(a.Transactions, services.NewKMeansClusterer(), a.Metrics, a.AuditLogger, services.NewAnalysisConfig(&cfg.Analysis))
	transactionService := services.NewTransactionService(a.Transactions, bankAccountRepo, a.Policy, auditService, a.Metrics, a.Logger)
	bankAccountService := services.NewBankAccountService(bankAccountRepo, auditService, a.Metrics, a.Logger)
	expenseService := services.NewExpenseService(a.Expenses, auditService, a.Metrics, a.Logger)
	bankSyncService := services.NewBankSyncService(
		a.Plaid,
		linkedItemRepo,
		bankAccountRepo,
		a.Transactions,
		a.Policy,
		auditService,
		a.AuditLogger,
		a.Metrics,
		a.Logger,
		services.BankSyncConfig{LookbackDays: cfg.Plaid.LookbackDays},
	)

	// Handlers
	healthHandler := handlers.NewHealthCheckHandler(a.DB, a.Forecast, a.Plaid != nil)
	authHandler := handlers.NewAuthHandler(authService, passwordService, a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, a.Logger)
	bankAccountHandler := handlers.NewBankAccountHandler(bankAccountService, a.Logger)
	transactionHandler := handlers.NewTransactionHandler(transactionService, a.Logger)
	plaidHandler := handlers.NewPlaidHandler(bankSyncService, a.Logger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, a.Logger)
	forecastHandler := handlers.NewForecastHandler(a.Forecast, cfg.Forecast.ModelPath, a.Logger)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		prometheus.Gatherers{a.Registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))

	api := e.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/password-strength", authHandler.PasswordStrength)

	protected := api.Group("", middleware.RequireAuth(tokenService, a.revokedTokens))
	self := middleware.RequireSelfOrAdmin("userId")

	analysis := protected.Group("/analysis")
	analysis.GET("/spending-patterns/:userId", analysisHandler.SpendingPatterns, self)
	analysis.GET("/wasteful-spending/:userId", analysisHandler.WastefulSpending, self)
	analysis.GET("/savings-opportunities/:userId", analysisHandler.SavingsOpportunities, self)
	analysis.GET("/monthly-summary/:userId", analysisHandler.MonthlySummary, self)

	protected.POST("/bank-accounts", bankAccountHandler.CreateBankAccount)
	protected.GET("/bank-accounts/:userId", bankAccountHandler.ListBankAccounts, self)

	protected.POST("/transactions", transactionHandler.CreateTransaction)
	protected.GET("/transactions/:userId", transactionHandler.ListTransactions, self)
	protected.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	protected.POST("/plaid/exchange_token", plaidHandler.ExchangeToken)
	protected.POST("/plaid/fetch_transactions", plaidHandler.FetchTransactions)

	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.GET("/expenses/:id", expenseHandler.GetExpense)
	protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

	protected.POST("/predict", forecastHandler.Predict)

	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.POST("/forecast/train", forecastHandler.Train)

	return e
}

// NewTransactionGenerator returns a demo data generator seeded from the
// analysis seed, so two runs with the same config produce the same ledger.
func (a *App) NewTransactionGenerator() services.TransactionGeneratorInterface {
	return services.NewTransactionGenerator(uint64(a.Config.Analysis.Seed), a.Policy)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config.Server

	go a.rateLimiter.Run(ctx)
	go a.pruneLoop(ctx)

	a.Echo.Server.ReadTimeout = cfg.ReadTimeout
	a.Echo.Server.WriteTimeout = cfg.WriteTimeout

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("starting server", "addr", addr, "environment", cfg.Environment)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (a *App) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Prune(); err != nil {
				a.Logger.Warn("prune failed", "error", err)
			}
		}
	}
}

// PruneResult counts the rows removed by Prune
type PruneResult struct {
	RefreshTokens int64
	RevokedTokens int64
	AuditLogs     int64
}

// Prune deletes expired refresh tokens and blacklist entries, and audit logs
// older than the configured retention. Every step runs even if an earlier
// one fails.
func (a *App) Prune() (PruneResult, error) {
	var result PruneResult
	var errs []error

	steps := []struct {
		name  string
		count *int64
		run   func() (int64, error)
	}{
		{"refresh_tokens", &result.RefreshTokens, a.refreshTokens.DeleteExpired},
		{"blacklisted_tokens", &result.RevokedTokens, a.revokedTokens.DeleteExpired},
		{"audit_logs", &result.AuditLogs, func() (int64, error) {
			return a.auditLogs.DeleteOlderThan(a.Config.Security.AuditRetention)
		}},
	}
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		*step.count = n
		a.Metrics.RecordGauge("prune.deleted", float64(n), map[string]string{"table": step.name})
	}

	a.Logger.Info("pruned expired rows",
		"refresh_tokens", result.RefreshTokens,
		"blacklisted_tokens", result.RevokedTokens,
		"audit_logs", result.AuditLogs)
	return result, errors.Join(errs...)
}

// Close releases the database connection
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	Analysis AnalysisConfig
	Policy   PolicyConfig
	Plaid    PlaidConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	LogLevel         string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SeedDatabase    bool
	MigrationsPath  string
	SeedsPath       string
}

type JWTConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	PrivateKey           *rsa.PrivateKey
	PublicKey            *rsa.PublicKey
	Issuer               string
}

type SecurityConfig struct {
	BCryptCost         int
	RateLimitPerSecond int
	RateLimitBurst     int
	PasswordMinLength  int
	AuditRetention     time.Duration
}

// AnalysisConfig tunes the savings-opportunity clustering.
type AnalysisConfig struct {
	Seed           int64
	LookbackDays   int
	MaxClusters    int
	MinClusterSize int
	SavingsRate    float64
}

// PolicyConfig holds the importance thresholds applied at ingestion.
// File, when set, points to a YAML policy that overrides these values.
type PolicyConfig struct {
	OptionalThreshold float64
	WastefulThreshold float64
	File              string
}

type PlaidConfig struct {
	Environment  string
	BaseURL      string
	ClientID     string
	Secret       string
	Timeout      time.Duration
	LookbackDays int
}

type ForecastConfig struct {
	ModelPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
// Malformed values are reported rather than replaced by defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	env := &envReader{}
	config := &Config{
		Server: ServerConfig{
			Port:             env.str("SERVER_PORT", "8080"),
			Host:             env.str("SERVER_HOST", "localhost"),
			Environment:      env.str("APP_ENV", "development"),
			LogLevel:         env.str("LOG_LEVEL", "info"),
			ReadTimeout:      env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:     env.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout:  env.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowOrigins: env.list("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:            env.str("DB_HOST", "localhost"),
			Port:            env.str("DB_PORT", "5432"),
			User:            env.str("DB_USER", "spendwise"),
			Password:        env.str("DB_PASSWORD", "spendwise"),
			Name:            env.str("DB_NAME", "spendwise"),
			SSLMode:         env.str("DB_SSL_MODE", "disable"),
			MaxConnections:  env.integer("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    env.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     env.boolean("AUTO_MIGRATE", false),
			SeedDatabase:    env.boolean("SEED_DATABASE", false),
			MigrationsPath:  env.str("DB_MIGRATIONS_PATH", "db/migrations"),
			SeedsPath:       env.str("DB_SEEDS_PATH", "db/seeds"),
		},
		Security: SecurityConfig{
			BCryptCost:         env.integer("BCRYPT_COST", 12),
			RateLimitPerSecond: env.integer("RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     env.integer("RATE_LIMIT_BURST", 20),
			PasswordMinLength:  env.integer("PASSWORD_MIN_LENGTH", 8),
			AuditRetention:     env.duration("AUDIT_RETENTION", 90*24*time.Hour),
		},
		JWT: JWTConfig{
			AccessTokenDuration:  env.duration("JWT_ACCESS_TOKEN_DURATION", 30*time.Minute),
			RefreshTokenDuration: env.duration("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			Issuer:               env.str("JWT_ISSUER", "spendwise"),
		},
		Analysis: AnalysisConfig{
			Seed:           int64(env.integer("ANALYSIS_SEED", 42)),
			LookbackDays:   env.integer("ANALYSIS_LOOKBACK_DAYS", 90),
			MaxClusters:    env.integer("ANALYSIS_MAX_CLUSTERS", 5),
			MinClusterSize: env.integer("ANALYSIS_MIN_CLUSTER_SIZE", 3),
			SavingsRate:    env.float("ANALYSIS_SAVINGS_RATE", 0.30),
		},
		Policy: PolicyConfig{
			OptionalThreshold: env.float("POLICY_OPTIONAL_THRESHOLD", 100),
			WastefulThreshold: env.float("POLICY_WASTEFUL_THRESHOLD", 200),
			File:              env.str("POLICY_FILE", ""),
		},
		Plaid: PlaidConfig{
			Environment:  env.str("PLAID_ENV", "sandbox"),
			BaseURL:      env.str("PLAID_BASE_URL", ""),
			ClientID:     env.str("PLAID_CLIENT_ID", ""),
			Secret:       env.str("PLAID_SECRET", ""),
			Timeout:      env.duration("PLAID_TIMEOUT", 30*time.Second),
			LookbackDays: env.integer("PLAID_LOOKBACK_DAYS", 90),
		},
		Forecast: ForecastConfig{
			ModelPath: env.str("FORECAST_MODEL_PATH", "expense_forecast.json"),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.IsProduction() && os.Getenv("CORS_ALLOW_ORIGINS") == "" {
		slog.Warn("CORS_ALLOW_ORIGINS not set in production, allowing all origins")
	}

	var err error
	config.JWT.PrivateKey, config.JWT.PublicKey, err = config.loadJWTKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to load RSA keys: %w", err)
	}

	return config, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Analysis.MaxClusters < 1 {
		return fmt.Errorf("ANALYSIS_MAX_CLUSTERS must be at least 1, got %d", c.Analysis.MaxClusters)
	}
	if c.Analysis.MinClusterSize < 1 {
		return fmt.Errorf("ANALYSIS_MIN_CLUSTER_SIZE must be at least 1, got %d", c.Analysis.MinClusterSize)
	}
	if c.Analysis.LookbackDays < 1 {
		return fmt.Errorf("ANALYSIS_LOOKBACK_DAYS must be positive, got %d", c.Analysis.LookbackDays)
	}
	if c.Analysis.SavingsRate < 0 || c.Analysis.SavingsRate > 1 {
		return fmt.Errorf("ANALYSIS_SAVINGS_RATE must be within [0,1], got %v", c.Analysis.SavingsRate)
	}
	if c.Security.BCryptCost < 4 || c.Security.BCryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be within [4,31], got %d", c.Security.BCryptCost)
	}
	if c.Security.AuditRetention <= 0 {
		return fmt.Errorf("AUDIT_RETENTION must be positive, got %s", c.Security.AuditRetention)
	}
	if c.Policy.OptionalThreshold < 0 || c.Policy.WastefulThreshold < 0 {
		return errors.New("policy thresholds must not be negative")
	}
	switch c.Plaid.Environment {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("PLAID_ENV must be sandbox, development or production, got %q", c.Plaid.Environment)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres connection URL used by the migration CLI path
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsTesting() bool {
	return c.Server.Environment == "testing"
}

// envReader reads typed variables and collects parse failures so Load can
// report every malformed value at once.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func (r *envReader) list(key string, fallback []string) []string {
	raw := r.str(key, "")
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

func parsed[T any](r *envReader, key string, fallback T, parse func(string) (T, error)) T {
	raw := r.str(key, "")
	if raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return fallback
	}
	return value
}

func (r *envReader) integer(key string, fallback int) int {
	return parsed(r, key, fallback, strconv.Atoi)
}

func (r *envReader) float(key string, fallback float64) float64 {
	return parsed(r, key, fallback, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (r *envReader) boolean(key string, fallback bool) bool {
	return parsed(r, key, fallback, strconv.ParseBool)
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	return parsed(r, key, fallback, time.ParseDuration)
}

// loadJWTKeys prefers base64 PEM keys from JWT_PRIVATE_KEY/JWT_PUBLIC_KEY.
// Outside production a fresh keypair is generated when they are missing.
func (c *Config) loadJWTKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateB64, publicB64 := os.Getenv("JWT_PRIVATE_KEY"), os.Getenv("JWT_PUBLIC_KEY")
	if privateB64 == "" || publicB64 == "" {
		if c.IsProduction() {
			return nil, nil, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set in production")
		}
		slog.Warn("generating ephemeral RSA keypair for JWT; issued tokens will not survive a restart")
		return GenerateRSAKeyPair()
	}

	privateBlock, err := decodePEM("JWT_PRIVATE_KEY", privateB64)
	if err != nil {
		return nil, nil, err
	}
	publicBlock, err := decodePEM("JWT_PUBLIC_KEY", publicB64)
	if err != nil {
		return nil, nil, err
	}

	privateKey, err := parsePrivateKey(privateBlock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	publicKey, err := parsePublicKey(publicBlock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return privateKey, publicKey, nil
}

func decodePEM(name, b64 string) (*pem.Block, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s does not contain a PEM block", name)
	}
	return block, nil
}

// GenerateRSAKeyPair generates a new 2048-bit RSA key pair
func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, &privateKey.PublicKey, nil
}

// parsePrivateKey accepts PKCS1 and PKCS8 encodings
func parsePrivateKey(block *pem.Block) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected an RSA private key, got %T", key)
	}
	return rsaKey, nil
}

func parsePublicKey(block *pem.Block) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected an RSA public key, got %T", key)
	}
	return rsaKey, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB      DatabaseConfig
	Redis   RedisConfig
	Pricing PricingConfig
	Copper  CopperConfig
	GitHub  GitHubConfig
	Worker  WorkerConfig
	Export  ExportConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PricingConfig contains the default fee policy applied to new sessions.
// Values are strings so decimal parsing happens once, at the pricing boundary.
type PricingConfig struct {
	CardFeeRate        string
	FeeWaiverThreshold string
	SessionTTL         time.Duration
}

// CopperConfig contains credentials for the Copper CRM REST API.
type CopperConfig struct {
	BaseURL     string
	AccessToken string
	UserEmail   string
	ActivityTypeID int
}

// GitHubConfig contains the repository target for catalog publishing.
type GitHubConfig struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Path    string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	CatalogSyncInterval   time.Duration
	ActivityRetryInterval time.Duration
	ActivityMaxAttempts   int
}

// ExportConfig contains settings for document/PDF generation.
type ExportConfig struct {
	CompanyName  string
	CompanyEmail string
	ChromePath   string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Pricing defaults
	cfg.Pricing = PricingConfig{
		CardFeeRate:        getEnv("CARD_FEE_RATE", "0.03"),
		FeeWaiverThreshold: getEnv("FEE_WAIVER_THRESHOLD", "10000"),
	}

	// Copper CRM
	cfg.Copper = CopperConfig{
		BaseURL:        getEnv("COPPER_BASE_URL", "https://api.copper.com/developer_api/v1"),
		AccessToken:    getEnv("COPPER_ACCESS_TOKEN", ""),
		UserEmail:      getEnv("COPPER_USER_EMAIL", ""),
		ActivityTypeID: getEnvInt("COPPER_ACTIVITY_TYPE_ID", 0),
	}

	// GitHub catalog publishing
	cfg.GitHub = GitHubConfig{
		BaseURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
		Token:   getEnv("GITHUB_TOKEN", ""),
		Owner:   getEnv("GITHUB_OWNER", ""),
		Repo:    getEnv("GITHUB_REPO", ""),
		Branch:  getEnv("GITHUB_BRANCH", "main"),
		Path:    getEnv("GITHUB_CATALOG_PATH", "data/catalog.json"),
	}

	// Export
	cfg.Export = ExportConfig{
		CompanyName:  getEnv("COMPANY_NAME", "Verdant Leaf Botanicals"),
		CompanyEmail: getEnv("COMPANY_EMAIL", "sales@verdantleaf.example"),
		ChromePath:   getEnv("CHROME_PATH", ""),
	}

	// Workers (durations)
	var err error
	if cfg.Worker.CatalogSyncInterval, err = parseDurationEnv("CATALOG_SYNC_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.ActivityRetryInterval, err = parseDurationEnv("ACTIVITY_RETRY_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid ACTIVITY_RETRY_INTERVAL: %w", err)
	}
	cfg.Worker.ActivityMaxAttempts = getEnvInt("ACTIVITY_MAX_ATTEMPTS", 5)

	if cfg.Pricing.SessionTTL, err = parseDurationEnv("SESSION_TTL", "72h"); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: persistence is skipped when URL is empty)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data
	Yahoo YahooConfig

	// Signal engine
	Engine EngineConfig

	// Scheduler
	ScanSchedule string
	RunRetention time.Duration // stored runs older than this are pruned

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds Yahoo Finance endpoint and throttling settings
type YahooConfig struct {
	BaseURL           string
	ScreenerURL       string
	RequestsPerSecond float64
	MaxConcurrent     int
	Timeout           time.Duration
}

// EngineConfig holds signal engine settings
type EngineConfig struct {
	AccountValue       float64 // notional account used for position sizing
	Workers            int     // 0 means one per CPU
	StrategyFile       string  // optional risk/strategy YAML; defaults apply when empty
	MaxStocksToAnalyze int
	Watchlist          []string // overrides the built-in watchlist when set
	UniverseSource     string   // watchlist, most_active
	OutputDir          string
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Market data
		Yahoo: YahooConfig{
			BaseURL:           getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			ScreenerURL:       getEnv("YAHOO_SCREENER_URL", "https://finance.yahoo.com/markets/stocks/most-active/"),
			RequestsPerSecond: getEnvAsFloat("YAHOO_RPS", 10.0),
			MaxConcurrent:     getEnvAsInt("YAHOO_MAX_CONCURRENT", 5),
			Timeout:           getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		// Signal engine
		Engine: EngineConfig{
			AccountValue:       getEnvAsFloat("ACCOUNT_VALUE", 100_000),
			Workers:            getEnvAsInt("ENGINE_WORKERS", 0),
			StrategyFile:       getEnv("STRATEGY_FILE", ""),
			MaxStocksToAnalyze: getEnvAsInt("MAX_STOCKS_TO_ANALYZE", 50),
			Watchlist:          getEnvAsList("WATCHLIST"),
			UniverseSource:     getEnv("UNIVERSE_SOURCE", "watchlist"),
			OutputDir:          getEnv("OUTPUT_DIR", "."),
		},

		// Every 15 minutes through the premarket window, weekdays (with seconds)
		ScanSchedule: getEnv("SCAN_SCHEDULE", "0 0,15,30,45 4-9 * * 1-5"),
		RunRetention: getEnvAsDuration("RUN_RETENTION", "720h"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the loaded values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.AccountValue <= 0 {
		return fmt.Errorf("ACCOUNT_VALUE must be > 0")
	}

	if c.Engine.MaxStocksToAnalyze <= 0 {
		return fmt.Errorf("MAX_STOCKS_TO_ANALYZE must be > 0")
	}

	if c.Engine.UniverseSource != "watchlist" && c.Engine.UniverseSource != "most_active" {
		return fmt.Errorf("UNIVERSE_SOURCE must be one of: watchlist, most_active")
	}

	if c.Yahoo.RequestsPerSecond <= 0 {
		return fmt.Errorf("YAHOO_RPS must be > 0")
	}

	if c.Yahoo.MaxConcurrent <= 0 {
		return fmt.Errorf("YAHOO_MAX_CONCURRENT must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Marketplace provider API
	WB WBConfig

	// Checklist engine tuning
	Checklist ChecklistConfig

	// Logging
	LogLevel  string
	LogFormat string
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

// RedisConfig holds the optional provider-response cache configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// WBConfig holds marketplace API configuration
type WBConfig struct {
	Token          string
	StatisticsURL  string
	AnalyticsURL   string
	AdvertURL      string
	CommonURL      string
	ContentURL     string
	PricesURL      string
	RequestsPerMin int
}

// ChecklistConfig holds the reconciliation/derivation tuning knobs.
// Defaults mirror the reference system the checklist is reconciled against.
type ChecklistConfig struct {
	// File-backed collaborators
	CalibrationFile    string
	CalibrationEnabled bool
	FixtureXLSX        string
	FormulaRulesFile   string
	CrossOverridesCSV  string
	TuningFile         string

	// Cost-model defaults when no settings source provides a value
	DefaultPercMP        float64
	DefaultAcquiringPerc float64
	DefaultTaxTotalPerc  float64
	DefaultBuyoutPercent float64

	// Buyout-rate estimation: "hint" (default) or "rolling"
	BuyoutModel string

	MonthWindowDays int
	MonthLagDays    int
	MonthMinOrders  int
	DayWindowDays   int
	DayLagDays      int
	DayMinOrders    int

	// When true, realized settlement outcomes for an order date override
	// the estimated day rate.
	BuyoutDayFromReport bool

	WarmupDays           int
	ReportTZOffsetHours  float64
	SalesBufferDays      int
	LocalizationCarryFwd bool
	UnitLogEarlyFill     bool

	// Commission fallback from the marketplace tariff table
	CommissionField      string
	OverridePercMPFromWB bool

	// Fixture checklist sheet usage
	UseFixtureSnapshot    bool
	UseFixtureBuyoutRates bool
	UseFixtureMetrics     bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "10m"),
		},

		WB: WBConfig{
			Token:          getEnv("WB_API_TOKEN", ""),
			StatisticsURL:  getEnv("WB_STATISTICS_URL", "https://statistics-api.wildberries.ru"),
			AnalyticsURL:   getEnv("WB_ANALYTICS_URL", "https://seller-analytics-api.wildberries.ru"),
			AdvertURL:      getEnv("WB_ADVERT_URL", "https://advert-api.wildberries.ru"),
			CommonURL:      getEnv("WB_COMMON_URL", "https://common-api.wildberries.ru"),
			ContentURL:     getEnv("WB_CONTENT_URL", "https://content-api.wildberries.ru"),
			PricesURL:      getEnv("WB_PRICES_URL", "https://discounts-prices-api.wildberries.ru"),
			RequestsPerMin: getEnvAsInt("WB_REQUESTS_PER_MIN", 60),
		},

		Checklist: ChecklistConfig{
			CalibrationFile:    getEnv("CHECKLIST_CALIBRATION_FILE", "data/calibration_overrides.json"),
			CalibrationEnabled: getEnvAsBool("CHECKLIST_CALIBRATION_ENABLED", true),
			FixtureXLSX:        getEnv("CHECKLIST_TEMPLATE_XLSX", ""),
			FormulaRulesFile:   getEnv("CHECKLIST_FORMULA_FILE", "data/checklist_formula_rules.json"),
			CrossOverridesCSV:  getEnv("CHECKLIST_CROSS_OVERRIDES_CSV", ""),
			TuningFile:         getEnv("CHECKLIST_TUNING_FILE", ""),

			DefaultPercMP:        getEnvAsFloat("CHECKLIST_DEFAULT_PERC_MP", 0.315),
			DefaultAcquiringPerc: getEnvAsFloat("CHECKLIST_DEFAULT_ACQUIRING_PERC", 0.02),
			DefaultTaxTotalPerc:  getEnvAsFloat("CHECKLIST_DEFAULT_TAX_TOTAL_PERC", 0.07),
			DefaultBuyoutPercent: getEnvAsFloat("CHECKLIST_DEFAULT_BUYOUT_PERCENT", 0.88),

			BuyoutModel: getEnv("CHECKLIST_BUYOUT_MODEL", "hint"),

			MonthWindowDays: getEnvAsInt("CHECKLIST_MONTH_WINDOW_DAYS", 30),
			MonthLagDays:    getEnvAsInt("CHECKLIST_MONTH_LAG_DAYS", 7),
			MonthMinOrders:  getEnvAsInt("CHECKLIST_MONTH_MIN_ORDERS", 20),
			DayWindowDays:   getEnvAsInt("CHECKLIST_DAY_WINDOW_DAYS", 7),
			DayLagDays:      getEnvAsInt("CHECKLIST_DAY_LAG_DAYS", 7),
			DayMinOrders:    getEnvAsInt("CHECKLIST_DAY_MIN_ORDERS", 0),

			BuyoutDayFromReport: getEnvAsBool("CHECKLIST_BUYOUT_DAY_FROM_REPORT", true),

			WarmupDays:           getEnvAsInt("CHECKLIST_WARMUP_DAYS", 0),
			ReportTZOffsetHours:  getEnvAsFloat("CHECKLIST_TZ_OFFSET_HOURS", 3),
			SalesBufferDays:      getEnvAsInt("CHECKLIST_SALES_BUFFER_DAYS", 45),
			LocalizationCarryFwd: getEnvAsBool("CHECKLIST_LOCALIZATION_CARRY_FORWARD", true),
			UnitLogEarlyFill:     getEnvAsBool("CHECKLIST_UNIT_LOG_EARLY_FILL", true),

			CommissionField:      getEnv("CHECKLIST_COMMISSION_FIELD", "kgvp_marketplace"),
			OverridePercMPFromWB: getEnvAsBool("CHECKLIST_OVERRIDE_PERC_MP_FROM_WB", false),

			UseFixtureSnapshot:    getEnvAsBool("CHECKLIST_USE_FIXTURE_SNAPSHOT", false),
			UseFixtureBuyoutRates: getEnvAsBool("CHECKLIST_USE_FIXTURE_BUYOUT_RATES", false),
			UseFixtureMetrics:     getEnvAsBool("CHECKLIST_USE_FIXTURE_METRICS", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Checklist.BuyoutModel {
	case "", "hint", "plan", "unit", "rolling":
	default:
		return fmt.Errorf("CHECKLIST_BUYOUT_MODEL must be hint or rolling, got %q", c.Checklist.BuyoutModel)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

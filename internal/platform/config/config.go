package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	RunMigrations bool
	JWTSecret     string
	JWTIssuer     string

	// Engine
	StoreDriver       string
	ExecutionStrategy string
	PriceSymbol       string
	PriceMaxAge       time.Duration
	MarketFeeRate     decimal.Decimal
	LimitFeeRate      decimal.Decimal
	MinQuoteAmount    decimal.Decimal
	MaxQuoteAmount    decimal.Decimal
	AmountScale       int32
	ConflictRetries   int
	SweepBatchSize    int

	ReconciliationEpsilon decimal.Decimal
	ReconciliationTopN    int

	// Rate limiting
	RateLimitStore   string
	RedisURL         string
	RateLimitPrefix  string
	RateLimitConvert string
	RateLimitOrders  string
	RateLimitCancel  string

	SchedulerAPIKey    string
	AdminAPIKey        string
	PosthogAPIKey      string
	CORSAllowedOrigins []string
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "identity-service")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("EXECUTION_STRATEGY", "auto")
	v.SetDefault("PRICE_SYMBOL", "BASE/QUOTE")
	v.SetDefault("PRICE_MAX_AGE", "30s")
	v.SetDefault("MARKET_FEE_RATE", "0.01")
	v.SetDefault("LIMIT_FEE_RATE", "0.02")
	v.SetDefault("MIN_QUOTE_AMOUNT", "1")
	v.SetDefault("MAX_QUOTE_AMOUNT", "100000")
	v.SetDefault("AMOUNT_SCALE", 8)
	v.SetDefault("CONFLICT_RETRIES", 3)
	v.SetDefault("SWEEP_BATCH_SIZE", 50)
	v.SetDefault("RECONCILIATION_EPSILON", "0.00000001")
	v.SetDefault("RECONCILIATION_TOP_N", 10)
	v.SetDefault("RATE_LIMIT_STORE", "memory")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RATE_LIMIT_PREFIX", "exchange")
	v.SetDefault("RATE_LIMIT_CONVERT", "10-M")
	v.SetDefault("RATE_LIMIT_ORDERS", "30-M")
	v.SetDefault("RATE_LIMIT_CANCEL", "30-M")
	v.SetDefault("SCHEDULER_API_KEY", "")
	v.SetDefault("ADMIN_API_KEY", "")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		ExecutionStrategy:  strings.ToLower(v.GetString("EXECUTION_STRATEGY")),
		PriceSymbol:        v.GetString("PRICE_SYMBOL"),
		AmountScale:        v.GetInt32("AMOUNT_SCALE"),
		ConflictRetries:    v.GetInt("CONFLICT_RETRIES"),
		SweepBatchSize:     v.GetInt("SWEEP_BATCH_SIZE"),
		ReconciliationTopN: v.GetInt("RECONCILIATION_TOP_N"),
		RateLimitStore:     strings.ToLower(v.GetString("RATE_LIMIT_STORE")),
		RedisURL:           v.GetString("REDIS_URL"),
		RateLimitPrefix:    v.GetString("RATE_LIMIT_PREFIX"),
		RateLimitConvert:   v.GetString("RATE_LIMIT_CONVERT"),
		RateLimitOrders:    v.GetString("RATE_LIMIT_ORDERS"),
		RateLimitCancel:    v.GetString("RATE_LIMIT_CANCEL"),
		SchedulerAPIKey:    v.GetString("SCHEDULER_API_KEY"),
		AdminAPIKey:        v.GetString("ADMIN_API_KEY"),
		PosthogAPIKey:      v.GetString("POSTHOG_API_KEY"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.SchedulerAPIKey == "" {
		log.Println("Warning: SCHEDULER_API_KEY not set. The sweep endpoint will reject every call.")
	}
	if cfg.AdminAPIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set. Admin endpoints will reject every call.")
	}

	maxAgeStr := v.GetString("PRICE_MAX_AGE")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil || maxAge <= 0 {
		maxAge = 30 * time.Second
		log.Printf("Warning: Invalid value for PRICE_MAX_AGE ('%s'). Defaulting to %s.\n", maxAgeStr, maxAge)
	}
	cfg.PriceMaxAge = maxAge

	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"MARKET_FEE_RATE", &cfg.MarketFeeRate},
		{"LIMIT_FEE_RATE", &cfg.LimitFeeRate},
		{"MIN_QUOTE_AMOUNT", &cfg.MinQuoteAmount},
		{"MAX_QUOTE_AMOUNT", &cfg.MaxQuoteAmount},
		{"RECONCILIATION_EPSILON", &cfg.ReconciliationEpsilon},
	}
	for _, d := range decimals {
		val, err := decimal.NewFromString(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", d.key, err)
		}
		*d.dst = val
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("invalid value for STORE_DRIVER ('%s'): expected postgres or memory", cfg.StoreDriver)
	}
	switch cfg.RateLimitStore {
	case "memory", "postgres":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when RATE_LIMIT_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("invalid value for RATE_LIMIT_STORE ('%s'): expected memory, redis or postgres", cfg.RateLimitStore)
	}

	if err := cfg.ExchangeParams().Validate(); err != nil {
		return nil, fmt.Errorf("invalid exchange parameters: %w", err)
	}
	return cfg, nil
}

// ExchangeParams returns the fee and bound settings passed to the engine services.
func (c *Config) ExchangeParams() domain.ExchangeParams {
	return domain.ExchangeParams{
		MarketFeeRate:  c.MarketFeeRate,
		LimitFeeRate:   c.LimitFeeRate,
		MinQuoteAmount: c.MinQuoteAmount,
		MaxQuoteAmount: c.MaxQuoteAmount,
		AmountScale:    c.AmountScale,
	}
}

// Package config loads the external settings this core consumes: the
// database connection, redis address, platform fee percentages, the
// lock wait budget and the fallback reference rate table. Settings are
// read once into an explicit value and passed into constructors; no
// component reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every external setting.
type Config struct {
	DatabaseURL string
	RedisAddr   string
	Env         string

	BuyCryptoFeePercent  decimal.Decimal
	SellCryptoFeePercent decimal.Decimal
	ConvertFeePercent    decimal.Decimal

	LockWait     time.Duration
	RateCacheTTL time.Duration

	// FallbackRates maps currency codes to "units per 1 USD", for
	// informational displays only.
	FallbackRates map[string]decimal.Decimal
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is fine: production injects env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		Env:         getEnv("ENV", "development"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "bbinance"),
		)
	}

	var err error
	if cfg.BuyCryptoFeePercent, err = getEnvDecimal("FEE_BUY_CRYPTO_PERCENT", "0.1"); err != nil {
		return nil, err
	}
	if cfg.SellCryptoFeePercent, err = getEnvDecimal("FEE_SELL_CRYPTO_PERCENT", "0.1"); err != nil {
		return nil, err
	}
	if cfg.ConvertFeePercent, err = getEnvDecimal("FEE_CONVERT_PERCENT", "0.1"); err != nil {
		return nil, err
	}

	if cfg.LockWait, err = getEnvDuration("LEDGER_LOCK_WAIT", "5s"); err != nil {
		return nil, err
	}
	if cfg.RateCacheTTL, err = getEnvDuration("RATE_CACHE_TTL", "30s"); err != nil {
		return nil, err
	}

	if cfg.FallbackRates, err = parseFallbackRates(getEnv("FALLBACK_RATES", "")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseFallbackRates parses "EUR:0.92,BTC:0.0000165" into a reference
// table of units-per-USD values.
func parseFallbackRates(raw string) (map[string]decimal.Decimal, error) {
	table := make(map[string]decimal.Decimal)
	if raw == "" {
		return table, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		code, value, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found {
			return nil, fmt.Errorf("invalid FALLBACK_RATES entry %q, want CODE:rate", entry)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate in FALLBACK_RATES entry %q: %w", entry, err)
		}

		table[strings.ToUpper(strings.TrimSpace(code))] = rate
	}

	return table, nil
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

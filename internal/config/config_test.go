package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabaseURL, "dbname=bbinance")
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.BuyCryptoFeePercent.Equal(decimal.NewFromFloat(0.1)))
	assert.Equal(t, 5*time.Second, cfg.LockWait)
	assert.Equal(t, 30*time.Second, cfg.RateCacheTTL)
	assert.Empty(t, cfg.FallbackRates)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app@db:5432/ledger")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ENV", "production")
	t.Setenv("FEE_BUY_CRYPTO_PERCENT", "0.25")
	t.Setenv("LEDGER_LOCK_WAIT", "250ms")
	t.Setenv("FALLBACK_RATES", "EUR:0.92,btc:0.0000165")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@db:5432/ledger", cfg.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.BuyCryptoFeePercent.Equal(decimal.NewFromFloat(0.25)))
	assert.Equal(t, 250*time.Millisecond, cfg.LockWait)

	require.Len(t, cfg.FallbackRates, 2)
	assert.True(t, cfg.FallbackRates["EUR"].Equal(decimal.NewFromFloat(0.92)))
	assert.True(t, cfg.FallbackRates["BTC"].Equal(decimal.NewFromFloat(0.0000165)))
}

func TestLoad_AssemblesDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "ledger_test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DatabaseURL, "host=db.internal")
	assert.Contains(t, cfg.DatabaseURL, "dbname=ledger_test")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad fee", func(t *testing.T) {
		t.Setenv("FEE_CONVERT_PERCENT", "lots")
		_, err := Load()
		assert.ErrorContains(t, err, "FEE_CONVERT_PERCENT")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("RATE_CACHE_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "RATE_CACHE_TTL")
	})
}

func TestParseFallbackRates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "single", raw: "EUR:0.92", want: map[string]string{"EUR": "0.92"}},
		{name: "spaces and case", raw: " eur : 0.92 , GBP:0.79", want: map[string]string{"EUR": "0.92", "GBP": "0.79"}},
		{name: "missing rate", raw: "EUR", wantErr: true},
		{name: "bad number", raw: "EUR:cheap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFallbackRates(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for code, rate := range tt.want {
				want, perr := decimal.NewFromString(rate)
				require.NoError(t, perr)
				assert.True(t, got[code].Equal(want), "%s = %s", code, got[code])
			}
		})
	}
}

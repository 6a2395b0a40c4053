// Package commands implements the bbledger operator CLI: the tool the
// administrative approval process uses to inspect pending money
// movements, resolve them, and sanity-check rates and trade quotes.
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sangmo-land/BBinance-sub000/internal/adapter/repository/postgres"
	"github.com/sangmo-land/BBinance-sub000/internal/adapter/repository/rediscache"
	"github.com/sangmo-land/BBinance-sub000/internal/config"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
	"github.com/sangmo-land/BBinance-sub000/internal/journal"
	"github.com/sangmo-land/BBinance-sub000/internal/ledger"
	"github.com/sangmo-land/BBinance-sub000/internal/operations"
	"github.com/sangmo-land/BBinance-sub000/internal/rates"

	"github.com/redis/go-redis/v9"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bbledger",
		Short: "Balance ledger operations console",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newPendingCommand())
	rootCmd.AddCommand(newApproveCommand())
	rootCmd.AddCommand(newRejectCommand())
	rootCmd.AddCommand(newRateCommand())
	rootCmd.AddCommand(newTradeCommand())

	return rootCmd
}

// env bundles everything a command needs against live storage.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *postgres.DB
	ops     *operations.Service
	rates   *rates.Resolver
	journal *journal.Service
}

// newEnv loads configuration and wires the services against postgres
// (and redis when configured).
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	balanceRepo := postgres.NewBalanceRepository(db)
	rateRepo := postgres.NewRatePairRepository(db)
	txRepo := postgres.NewTransactionRepository(db)

	var ratePairs domain.RatePairRepository = rateRepo
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ratePairs = rediscache.NewRateCache(client, rateRepo, cfg.RateCacheTTL)
		logger.Info("rate cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.RateCacheTTL))
	}

	ledgerSvc := ledger.NewServiceWithLockWait(balanceRepo, cfg.LockWait)
	resolver := rates.NewResolver(ratePairs, cfg.FallbackRates)
	journalSvc := journal.NewService(txRepo)

	ops := operations.NewService(ledgerSvc, resolver, journalSvc, operations.Fees{
		BuyCryptoPercent:  cfg.BuyCryptoFeePercent,
		SellCryptoPercent: cfg.SellCryptoFeePercent,
		ConvertPercent:    cfg.ConvertFeePercent,
	})

	return &env{
		cfg:     cfg,
		log:     logger,
		db:      db,
		ops:     ops,
		rates:   resolver,
		journal: journalSvc,
	}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.log.Warn("failed to close database", zap.Error(err))
	}
	_ = e.log.Sync()
}

func newLogger(envName string) (*zap.Logger, error) {
	if envName == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// formatAmount renders a decimal amount with its currency for terminal
// output.
func formatAmount(amount fmt.Stringer, currency string) string {
	return amount.String() + " " + currency
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

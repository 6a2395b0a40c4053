package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// ratePairRepository implements domain.RatePairRepository
type ratePairRepository struct {
	db *DB
}

// NewRatePairRepository creates a new rate pair repository.
func NewRatePairRepository(db *DB) domain.RatePairRepository {
	return &ratePairRepository{db: db}
}

// GetPair retrieves the stored pair from -> to.
func (r *ratePairRepository) GetPair(ctx context.Context, from, to string) (*domain.RatePair, error) {
	query := `
		SELECT rate, updated_at
		FROM exchange_rate_pairs
		WHERE from_currency = $1 AND to_currency = $2
	`

	pair := domain.RatePair{
		From: domain.NormalizeCurrency(from),
		To:   domain.NormalizeCurrency(to),
	}

	var rateStr string
	err := r.db.QueryRowContext(ctx, query, pair.From, pair.To).Scan(&rateStr, &pair.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: pair %s/%s not stored", domain.ErrRateUnavailable, pair.From, pair.To)
		}
		return nil, fmt.Errorf("failed to get rate pair: %w", err)
	}

	pair.Rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate: %w", err)
	}

	return &pair, nil
}

// Upsert stores or replaces the pair in its stored direction.
func (r *ratePairRepository) Upsert(ctx context.Context, pair *domain.RatePair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO exchange_rate_pairs (from_currency, to_currency, rate, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (from_currency, to_currency)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		domain.NormalizeCurrency(pair.From),
		domain.NormalizeCurrency(pair.To),
		pair.Rate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rate pair: %w", err)
	}

	return nil
}

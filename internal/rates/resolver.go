package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// Resolver looks up and normalizes exchange rates between two currency
// codes. A resolved rate is always "units of to per 1 unit of from".
// Resolution order, first match wins:
//
//  1. identity (from == to)
//  2. direct stored pair
//  3. reverse stored pair, inverted
//  4. cross via the USD pivot, one hop each side
//
// When nothing matches, Resolve returns ErrRateUnavailable rather than
// guessing. Indicative additionally consults a configured reference
// table; it exists for dashboards only and must never feed a
// funds-moving operation.
type Resolver struct {
	repo     domain.RatePairRepository
	fallback map[string]decimal.Decimal // currency -> units of currency per 1 USD
}

// NewResolver creates a Resolver over the given rate pair store.
// fallback maps currency codes to their hardcoded reference rate
// against USD; pass nil when no reference table is configured.
func NewResolver(repo domain.RatePairRepository, fallback map[string]decimal.Decimal) *Resolver {
	normalized := make(map[string]decimal.Decimal, len(fallback))
	for code, rate := range fallback {
		normalized[domain.NormalizeCurrency(code)] = rate
	}

	return &Resolver{repo: repo, fallback: normalized}
}

// Resolve returns units of to per 1 unit of from, or ErrRateUnavailable.
func (r *Resolver) Resolve(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)

	if from == "" || to == "" {
		return decimal.Zero, domain.ErrInvalidCurrency
	}

	rate, err := r.resolveStored(ctx, from, to)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, domain.ErrRateUnavailable) {
		return decimal.Zero, err
	}

	// Cross via the USD pivot: one stored hop on each side, no further
	// recursion beyond that.
	if from != domain.PivotCurrency && to != domain.PivotCurrency {
		fromUSD, ferr := r.resolveStored(ctx, from, domain.PivotCurrency)
		toUSD, terr := r.resolveStored(ctx, to, domain.PivotCurrency)
		if ferr == nil && terr == nil {
			return fromUSD.Div(toUSD), nil
		}
		if ferr != nil && !errors.Is(ferr, domain.ErrRateUnavailable) {
			return decimal.Zero, ferr
		}
		if terr != nil && !errors.Is(terr, domain.ErrRateUnavailable) {
			return decimal.Zero, terr
		}
	}

	return decimal.Zero, fmt.Errorf("%w: no rate for %s/%s", domain.ErrRateUnavailable, from, to)
}

// Indicative resolves like Resolve but falls back to the configured
// reference table when storage has no answer. Informational displays
// only; funds-moving flows call Resolve and abort on ErrRateUnavailable.
func (r *Resolver) Indicative(ctx context.Context, from, to string) (decimal.Decimal, error) {
	rate, err := r.Resolve(ctx, from, to)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, domain.ErrRateUnavailable) {
		return decimal.Zero, err
	}

	from = domain.NormalizeCurrency(from)
	to = domain.NormalizeCurrency(to)

	fromUSD, fok := r.fallbackPerUSD(from)
	toUSD, tok := r.fallbackPerUSD(to)
	if fok && tok {
		// Table rates are "units per 1 USD", so from -> to is to/from.
		return toUSD.Div(fromUSD), nil
	}

	return decimal.Zero, err
}

// resolveStored applies the identity, direct and reverse rules only.
func (r *Resolver) resolveStored(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	pair, err := r.repo.GetPair(ctx, from, to)
	if err == nil {
		if !pair.Rate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: stored pair %s/%s has non-positive rate", domain.ErrRateUnavailable, from, to)
		}
		return pair.Rate, nil
	}
	if !errors.Is(err, domain.ErrRateUnavailable) {
		return decimal.Zero, fmt.Errorf("failed to look up pair %s/%s: %w", from, to, err)
	}

	pair, err = r.repo.GetPair(ctx, to, from)
	if err == nil {
		if !pair.Rate.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: stored pair %s/%s has non-positive rate", domain.ErrRateUnavailable, to, from)
		}
		return decimal.NewFromInt(1).Div(pair.Rate), nil
	}
	if !errors.Is(err, domain.ErrRateUnavailable) {
		return decimal.Zero, fmt.Errorf("failed to look up pair %s/%s: %w", to, from, err)
	}

	return decimal.Zero, fmt.Errorf("%w: no stored pair for %s/%s", domain.ErrRateUnavailable, from, to)
}

// fallbackPerUSD reads the reference table, treating USD itself as 1.
func (r *Resolver) fallbackPerUSD(code string) (decimal.Decimal, bool) {
	if code == domain.PivotCurrency {
		return decimal.NewFromInt(1), true
	}
	rate, ok := r.fallback[code]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false
	}
	return rate, true
}

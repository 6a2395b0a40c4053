// Package convert turns a requested spend amount into gross, fee and
// net proceeds given a resolved rate and a fee percentage. It is pure:
// no side effects, no I/O.
package convert

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TradeInput is a single trade quote request.
type TradeInput struct {
	// SpendAmount is the quantity of the spend currency offered.
	SpendAmount decimal.Decimal

	// Rate is units of the quote currency per 1 unit of the base
	// currency, as produced by the rate resolver.
	Rate decimal.Decimal

	// FeePercent is the platform fee in percent, 0..100 inclusive.
	FeePercent decimal.Decimal

	// SpendIsQuoteCurrency is true when the caller spends the quote
	// side of the pair (e.g. spending USDT to buy BTC at a BTC/USDT
	// rate), false when spending the base side.
	SpendIsQuoteCurrency bool
}

// TradeResult holds the computed amounts for a trade quote.
// NetReceive is what the destination slot is eventually credited with.
type TradeResult struct {
	GrossReceive decimal.Decimal
	FeeAmount    decimal.Decimal
	NetReceive   decimal.Decimal
}

// ComputeTrade computes gross, fee and net proceeds for a trade.
// A non-positive rate is reported as ErrRateUnavailable so callers
// cannot mistake a missing rate for a zero-proceeds trade.
func ComputeTrade(input TradeInput) (TradeResult, error) {
	if !input.SpendAmount.IsPositive() {
		return TradeResult{}, fmt.Errorf("%w: spend amount must be positive, got %s", domain.ErrInvalidAmount, input.SpendAmount)
	}

	if input.FeePercent.IsNegative() || input.FeePercent.GreaterThan(hundred) {
		return TradeResult{}, fmt.Errorf("%w: fee percent must be within 0..100, got %s", domain.ErrInvalidAmount, input.FeePercent)
	}

	if !input.Rate.IsPositive() {
		return TradeResult{}, fmt.Errorf("%w: rate must be positive, got %s", domain.ErrRateUnavailable, input.Rate)
	}

	var gross decimal.Decimal
	if input.SpendIsQuoteCurrency {
		gross = input.SpendAmount.Div(input.Rate)
	} else {
		gross = input.SpendAmount.Mul(input.Rate)
	}

	fee := gross.Mul(input.FeePercent).Div(hundred)

	return TradeResult{
		GrossReceive: gross,
		FeeAmount:    fee,
		NetReceive:   gross.Sub(fee),
	}, nil
}

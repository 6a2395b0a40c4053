package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PivotCurrency is the intermediate hop used when no direct or reverse
// rate pair exists for a currency pair.
const PivotCurrency = "USD"

// RatePair stores the conversion rate between two currencies.
// Rate is defined as "units of To per 1 unit of From". Pairs are stored
// in exactly one direction; there is no guarantee the reverse direction
// exists in storage.
type RatePair struct {
	From      string
	To        string
	Rate      decimal.Decimal
	UpdatedAt time.Time
}

// Validate ensures the rate pair adheres to domain rules.
func (p *RatePair) Validate() error {
	if p.From == "" || p.To == "" {
		return ErrInvalidCurrency
	}

	if !p.Rate.IsPositive() {
		return ErrRateUnavailable
	}

	return nil
}

package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletType is a named sub-ledger within an account representing a
// product area. Source data carries inconsistent casing ("Spot" vs
// "spot"), so wallet types must enter the domain through ParseWalletType
// and never be compared as raw strings.
type WalletType string

const (
	WalletFiat    WalletType = "fiat"
	WalletSpot    WalletType = "spot"
	WalletFunding WalletType = "funding"
	WalletEarn    WalletType = "earn"
)

// ParseWalletType normalizes a wallet type string to its canonical value.
func ParseWalletType(s string) (WalletType, error) {
	switch WalletType(strings.ToLower(strings.TrimSpace(s))) {
	case WalletFiat:
		return WalletFiat, nil
	case WalletSpot:
		return WalletSpot, nil
	case WalletFunding:
		return WalletFunding, nil
	case WalletEarn:
		return WalletEarn, nil
	}
	return "", fmt.Errorf("%w: unknown wallet type %q", ErrInvalidWalletType, s)
}

// BalanceType is the custody state of funds within a wallet/currency.
type BalanceType string

const (
	BalanceAvailable    BalanceType = "available"
	BalancePending      BalanceType = "pending"
	BalanceLocked       BalanceType = "locked"
	BalanceWithdrawable BalanceType = "withdrawable"
)

// BalanceTypes lists every custody state, in conservation-sum order.
var BalanceTypes = []BalanceType{BalanceAvailable, BalancePending, BalanceLocked, BalanceWithdrawable}

// ParseBalanceType normalizes a balance type string to its canonical value.
func ParseBalanceType(s string) (BalanceType, error) {
	switch BalanceType(strings.ToLower(strings.TrimSpace(s))) {
	case BalanceAvailable:
		return BalanceAvailable, nil
	case BalancePending:
		return BalancePending, nil
	case BalanceLocked:
		return BalanceLocked, nil
	case BalanceWithdrawable:
		return BalanceWithdrawable, nil
	}
	return "", fmt.Errorf("%w: unknown balance type %q", ErrInvalidBalanceType, s)
}

// SlotKey identifies the atomic unit of money storage.
type SlotKey struct {
	AccountID   uuid.UUID
	Wallet      WalletType
	Currency    string
	BalanceType BalanceType
}

// String renders the key in its canonical lock-ordering form.
// Keys sort lexicographically on this form when multiple slot locks
// must be acquired together.
func (k SlotKey) String() string {
	return k.AccountID.String() + "/" + string(k.Wallet) + "/" + k.Currency + "/" + string(k.BalanceType)
}

// BalanceSlot holds the amount stored under one slot key.
// Slots are created lazily with a zero amount on first reference and
// never deleted. Amount is never negative; every mutating ledger
// operation enforces this.
type BalanceSlot struct {
	Key    SlotKey
	Amount decimal.Decimal
}

// Validate ensures the slot adheres to domain rules.
func (s *BalanceSlot) Validate() error {
	if s.Currency() == "" {
		return fmt.Errorf("%w: slot currency cannot be empty", ErrInvalidCurrency)
	}

	if s.Amount.IsNegative() {
		return fmt.Errorf("%w: slot %s holds %s", ErrInsufficientFunds, s.Key, s.Amount)
	}

	return nil
}

// Currency returns the slot's currency code.
func (s *BalanceSlot) Currency() string {
	return s.Key.Currency
}

// NormalizeCurrency canonicalizes a currency code (upper-case, trimmed).
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

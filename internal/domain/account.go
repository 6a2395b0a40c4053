package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AccountKind classifies an account by the asset class it holds.
type AccountKind string

const (
	AccountKindFiat   AccountKind = "fiat"
	AccountKindCrypto AccountKind = "crypto"
)

// Account represents an account entity in the domain layer.
// Identity fields are immutable after creation; balances are owned
// 1:many by the account and live in BalanceSlots.
type Account struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Kind          AccountKind
	AccountNumber string // unique, human-readable
	Active        bool
	CreatedAt     time.Time
}

// Validate ensures the account adheres to domain rules.
func (a *Account) Validate() error {
	if a.AccountNumber == "" {
		return errors.New("account number cannot be empty")
	}

	if a.Kind != AccountKindFiat && a.Kind != AccountKindCrypto {
		return errors.New("account kind must be fiat or crypto")
	}

	return nil
}

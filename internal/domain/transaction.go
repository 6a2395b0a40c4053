package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a requested money movement.
type TransactionType string

const (
	TxTypeDeposit       TransactionType = "deposit"
	TxTypeWithdrawal    TransactionType = "withdrawal"
	TxTypeTransfer      TransactionType = "transfer"
	TxTypeConversion    TransactionType = "conversion"
	TxTypeBuyCrypto     TransactionType = "buy_crypto"
	TxTypeSellCrypto    TransactionType = "sell_crypto"
	TxTypeConvertCrypto TransactionType = "convert_crypto"
)

// TransactionStatus is the lifecycle state of a transaction record.
// Records are created pending; the external approval process resolves
// them to completed or rejected exactly once.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

// TransactionRecord is an immutable record of an intended money
// movement. Once created, only Status may change; every financial field
// is frozen at creation time. FromAccountID is nil for inbound-only
// deposits, ToAccountID is nil for external withdrawals.
//
// SourceWallet/DestinationWallet carry the settlement routing as
// structured fields, so the approval process never has to parse routing
// hints out of the free-text description.
type TransactionRecord struct {
	ID                uuid.UUID
	FromAccountID     *uuid.UUID
	ToAccountID       *uuid.UUID
	Type              TransactionType
	FromCurrency      string
	ToCurrency        string
	Amount            decimal.Decimal // quantity debited from source
	ExchangeRate      decimal.Decimal // snapshot used, zero when no conversion
	ConvertedAmount   decimal.Decimal // net quantity credited once settled
	SourceWallet      WalletType
	DestinationWallet WalletType
	Status            TransactionStatus
	ReferenceNumber   string // globally unique
	Description       string
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
}

// Validate ensures the record adheres to domain rules at creation time.
func (r *TransactionRecord) Validate() error {
	if r.ReferenceNumber == "" {
		return ErrJournalUnavailable
	}

	if r.FromCurrency == "" {
		return ErrInvalidCurrency
	}

	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if r.ConvertedAmount.IsNegative() || r.ExchangeRate.IsNegative() {
		return ErrInvalidAmount
	}

	return nil
}

// CanTransitionTo reports whether the record may move to the given
// status. Only pending records move, and only to completed or rejected.
func (r *TransactionRecord) CanTransitionTo(next TransactionStatus) bool {
	if r.Status != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusRejected
}

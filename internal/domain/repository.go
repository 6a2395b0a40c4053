package domain

import (
	"context"

	"github.com/google/uuid"
)

// BalanceRepository defines the interface for balance slot persistence.
// The ledger service is the only sanctioned caller of SaveAll; slots are
// never mutated from anywhere else.
type BalanceRepository interface {
	// Get retrieves a slot by key. Returns (nil, nil) when the slot has
	// never been written; absent slots read as zero.
	Get(ctx context.Context, key SlotKey) (*BalanceSlot, error)

	// SaveAll persists the given slots atomically: either every slot is
	// written or none are.
	SaveAll(ctx context.Context, slots ...BalanceSlot) error

	// ListByAccount retrieves every slot ever written for an account.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]BalanceSlot, error)
}

// RatePairRepository defines the interface for exchange rate pair
// persistence. Pairs are stored in exactly one direction.
type RatePairRepository interface {
	// GetPair retrieves the stored pair from -> to.
	// Returns ErrRateUnavailable when no such pair is stored.
	GetPair(ctx context.Context, from, to string) (*RatePair, error)

	// Upsert stores or replaces the pair in its stored direction.
	Upsert(ctx context.Context, pair *RatePair) error
}

// TransactionRepository defines the interface for transaction record
// persistence. Records are append-only: Create is the only write path
// for financial fields, UpdateStatus the only write path at all after
// creation.
type TransactionRepository interface {
	// Create persists a new record. Returns ErrDuplicateReference when
	// the reference number is already taken.
	Create(ctx context.Context, record *TransactionRecord) error

	// GetByID retrieves a record by ID. Returns ErrRecordNotFound when
	// it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*TransactionRecord, error)

	// ListByAccount retrieves records where the account is either side,
	// newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*TransactionRecord, error)

	// ListPending retrieves all pending records, oldest first, for the
	// external approval process.
	ListPending(ctx context.Context) ([]*TransactionRecord, error)

	// UpdateStatus sets the record's status and nothing else.
	UpdateStatus(ctx context.Context, id uuid.UUID, status TransactionStatus) error
}

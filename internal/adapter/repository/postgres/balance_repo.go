package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// balanceRepository implements domain.BalanceRepository
type balanceRepository struct {
	db *DB
}

// NewBalanceRepository creates a new balance slot repository.
func NewBalanceRepository(db *DB) domain.BalanceRepository {
	return &balanceRepository{db: db}
}

// Get retrieves a slot by key, (nil, nil) when it was never written.
func (r *balanceRepository) Get(ctx context.Context, key domain.SlotKey) (*domain.BalanceSlot, error) {
	query := `
		SELECT amount
		FROM balance_slots
		WHERE account_id = $1 AND wallet_type = $2 AND currency = $3 AND balance_type = $4
	`

	var amountStr string
	err := r.db.QueryRowContext(ctx, query,
		key.AccountID,
		string(key.Wallet),
		key.Currency,
		string(key.BalanceType),
	).Scan(&amountStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get balance slot: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot amount: %w", err)
	}

	return &domain.BalanceSlot{Key: key, Amount: amount}, nil
}

// SaveAll upserts the given slots in one database transaction.
func (r *balanceRepository) SaveAll(ctx context.Context, slots ...domain.BalanceSlot) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO balance_slots (account_id, wallet_type, currency, balance_type, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (account_id, wallet_type, currency, balance_type)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
	`

	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return err
		}

		_, err = dbTx.ExecContext(ctx, query,
			slot.Key.AccountID,
			string(slot.Key.Wallet),
			slot.Key.Currency,
			string(slot.Key.BalanceType),
			slot.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert balance slot %s: %w", slot.Key, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByAccount retrieves every slot ever written for an account.
func (r *balanceRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.BalanceSlot, error) {
	query := `
		SELECT wallet_type, currency, balance_type, amount
		FROM balance_slots
		WHERE account_id = $1
		ORDER BY wallet_type, currency, balance_type
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.BalanceSlot
	for rows.Next() {
		var walletStr, currency, balanceTypeStr, amountStr string
		if err := rows.Scan(&walletStr, &currency, &balanceTypeStr, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan balance slot: %w", err)
		}

		wallet, err := domain.ParseWalletType(walletStr)
		if err != nil {
			return nil, err
		}
		balanceType, err := domain.ParseBalanceType(balanceTypeStr)
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse slot amount: %w", err)
		}

		slots = append(slots, domain.BalanceSlot{
			Key: domain.SlotKey{
				AccountID:   accountID,
				Wallet:      wallet,
				Currency:    currency,
				BalanceType: balanceType,
			},
			Amount: amount,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance slots: %w", err)
	}

	return slots, nil
}

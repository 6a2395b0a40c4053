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

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction record repository.
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const recordColumns = `
	id, from_account_id, to_account_id, type, from_currency, to_currency,
	amount, exchange_rate, converted_amount, source_wallet, destination_wallet,
	status, reference_number, description, created_by, created_at
`

// Create persists a new record. A unique index on reference_number
// enforces reference uniqueness; violations surface as
// ErrDuplicateReference so the journal can regenerate and retry.
func (r *transactionRepository) Create(ctx context.Context, record *domain.TransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO transaction_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		nullableUUID(record.FromAccountID),
		nullableUUID(record.ToAccountID),
		string(record.Type),
		record.FromCurrency,
		record.ToCurrency,
		record.Amount.String(),
		record.ExchangeRate.String(),
		record.ConvertedAmount.String(),
		string(record.SourceWallet),
		string(record.DestinationWallet),
		string(record.Status),
		record.ReferenceNumber,
		record.Description,
		record.CreatedBy,
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, record.ReferenceNumber)
		}
		return fmt.Errorf("failed to insert transaction record: %w", err)
	}

	return nil
}

// GetByID retrieves a record by ID.
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM transaction_records WHERE id = $1`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
		}
		return nil, err
	}

	return record, nil
}

// ListByAccount retrieves records where the account is either side,
// newest first.
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM transaction_records
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListPending retrieves all pending records, oldest first.
func (r *transactionRepository) ListPending(ctx context.Context) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM transaction_records
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// UpdateStatus sets the record's status and nothing else. The WHERE
// clause only matches pending rows, so a record can be settled exactly
// once even under concurrent approvers.
func (r *transactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	query := `
		UPDATE transaction_records
		SET status = $2
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, string(status), string(domain.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to update record status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %s is not pending", domain.ErrInvalidStatusTransition, id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.TransactionRecord, error) {
	var record domain.TransactionRecord
	var fromID, toID sql.NullString
	var txType, sourceWallet, destWallet, status string
	var amountStr, rateStr, convertedStr string

	err := row.Scan(
		&record.ID,
		&fromID,
		&toID,
		&txType,
		&record.FromCurrency,
		&record.ToCurrency,
		&amountStr,
		&rateStr,
		&convertedStr,
		&sourceWallet,
		&destWallet,
		&status,
		&record.ReferenceNumber,
		&record.Description,
		&record.CreatedBy,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Type = domain.TransactionType(txType)
	record.SourceWallet = domain.WalletType(sourceWallet)
	record.DestinationWallet = domain.WalletType(destWallet)
	record.Status = domain.TransactionStatus(status)

	if record.FromAccountID, err = parseNullableUUID(fromID); err != nil {
		return nil, fmt.Errorf("failed to parse from_account_id: %w", err)
	}
	if record.ToAccountID, err = parseNullableUUID(toID); err != nil {
		return nil, fmt.Errorf("failed to parse to_account_id: %w", err)
	}

	if record.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if record.ExchangeRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse exchange_rate: %w", err)
	}
	if record.ConvertedAmount, err = decimal.NewFromString(convertedStr); err != nil {
		return nil, fmt.Errorf("failed to parse converted_amount: %w", err)
	}

	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*domain.TransactionRecord, error) {
	var records []*domain.TransactionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction records: %w", err)
	}

	return records, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func parseNullableUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	parsed, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// DefaultMaxReferenceAttempts bounds how many reference numbers Record
// tries before giving up with ErrJournalUnavailable.
const DefaultMaxReferenceAttempts = 5

// Service is the transaction journal: the single writer of transaction
// records. It creates immutable pending intents with unique reference
// numbers and exposes the pending -> completed|rejected surface the
// external approval process drives.
type Service struct {
	repo        domain.TransactionRepository
	refs        ReferenceGenerator
	maxAttempts int
	now         func() time.Time
}

// NewService creates a journal Service over the given record store.
func NewService(repo domain.TransactionRepository) *Service {
	return &Service{
		repo:        repo,
		refs:        NewReferenceGenerator(),
		maxAttempts: DefaultMaxReferenceAttempts,
		now:         time.Now,
	}
}

// NewServiceWithGenerator creates a journal Service with a custom
// reference generator.
func NewServiceWithGenerator(repo domain.TransactionRepository, refs ReferenceGenerator) *Service {
	s := NewService(repo)
	s.refs = refs
	return s
}

// RecordParams holds parameters for creating a pending transaction
// record. Wallet routing travels as structured fields, never encoded in
// the description.
type RecordParams struct {
	FromAccountID     *uuid.UUID
	ToAccountID       *uuid.UUID
	Type              domain.TransactionType
	FromCurrency      string
	ToCurrency        string
	Amount            decimal.Decimal
	ExchangeRate      decimal.Decimal
	ConvertedAmount   decimal.Decimal
	SourceWallet      domain.WalletType
	DestinationWallet domain.WalletType
	Description       string
	CreatedBy         uuid.UUID
}

// Record creates a pending transaction record with a unique reference
// number. Reference collisions are regenerated and retried a bounded
// number of times, then reported as ErrJournalUnavailable: silently
// dropping the only audit trail of a fund hold is not an option.
func (s *Service) Record(ctx context.Context, params RecordParams) (*domain.TransactionRecord, error) {
	record := &domain.TransactionRecord{
		ID:                uuid.New(),
		FromAccountID:     params.FromAccountID,
		ToAccountID:       params.ToAccountID,
		Type:              params.Type,
		FromCurrency:      domain.NormalizeCurrency(params.FromCurrency),
		ToCurrency:        domain.NormalizeCurrency(params.ToCurrency),
		Amount:            params.Amount,
		ExchangeRate:      params.ExchangeRate,
		ConvertedAmount:   params.ConvertedAmount,
		SourceWallet:      params.SourceWallet,
		DestinationWallet: params.DestinationWallet,
		Status:            domain.StatusPending,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
		CreatedAt:         s.now().UTC(),
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		record.ReferenceNumber = s.refs.Next()

		if err := record.Validate(); err != nil {
			return nil, err
		}

		err := s.repo.Create(ctx, record)
		if err == nil {
			return record, nil
		}
		if errors.Is(err, domain.ErrDuplicateReference) {
			continue
		}
		return nil, fmt.Errorf("failed to persist transaction record: %w", err)
	}

	return nil, fmt.Errorf("%w: reference generation exhausted %d attempts", domain.ErrJournalUnavailable, s.maxAttempts)
}

// GetByID retrieves a record by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByAccount retrieves an account's records, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// ListPending retrieves all pending records, oldest first. This is the
// read surface the external approval process polls.
func (s *Service) ListPending(ctx context.Context) ([]*domain.TransactionRecord, error) {
	return s.repo.ListPending(ctx)
}

// SetStatus resolves a pending record to completed or rejected. It is
// the approval process's only entry point and cannot alter amounts,
// currencies or references. Anything other than pending -> completed or
// pending -> rejected fails with ErrInvalidStatusTransition.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !record.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s for %s", domain.ErrInvalidStatusTransition, record.Status, status, record.ReferenceNumber)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update status of %s: %w", record.ReferenceNumber, err)
	}

	return nil
}

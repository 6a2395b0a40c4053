package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.TransactionRecord
	byRef   map[string]uuid.UUID
}

// NewTransactionRepository creates an in-memory transaction repository.
func NewTransactionRepository() domain.TransactionRepository {
	return &transactionRepository{
		records: make(map[uuid.UUID]domain.TransactionRecord),
		byRef:   make(map[string]uuid.UUID),
	}
}

// Create persists a new record, enforcing reference uniqueness.
func (r *transactionRepository) Create(_ context.Context, record *domain.TransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byRef[record.ReferenceNumber]; taken {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, record.ReferenceNumber)
	}

	r.records[record.ID] = *record
	r.byRef[record.ReferenceNumber] = record.ID
	return nil
}

// GetByID retrieves a record by ID.
func (r *transactionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	return &record, nil
}

// ListByAccount retrieves records where the account is either side,
// newest first.
func (r *transactionRepository) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.TransactionRecord
	for _, record := range r.records {
		if touchesAccount(record, accountID) {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*domain.TransactionRecord, len(matched))
	for i := range matched {
		record := matched[i]
		out[i] = &record
	}
	return out, nil
}

// ListPending retrieves all pending records, oldest first.
func (r *transactionRepository) ListPending(_ context.Context) ([]*domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []domain.TransactionRecord
	for _, record := range r.records {
		if record.Status == domain.StatusPending {
			pending = append(pending, record)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	out := make([]*domain.TransactionRecord, len(pending))
	for i := range pending {
		record := pending[i]
		out[i] = &record
	}
	return out, nil
}

// UpdateStatus sets the record's status and nothing else. Only pending
// records move, so a record settles exactly once even under concurrent
// approvers.
func (r *transactionRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	if record.Status != domain.StatusPending {
		return fmt.Errorf("%w: record %s is %s", domain.ErrInvalidStatusTransition, record.ReferenceNumber, record.Status)
	}

	record.Status = status
	r.records[id] = record
	return nil
}

func touchesAccount(record domain.TransactionRecord, accountID uuid.UUID) bool {
	if record.FromAccountID != nil && *record.FromAccountID == accountID {
		return true
	}
	return record.ToAccountID != nil && *record.ToAccountID == accountID
}

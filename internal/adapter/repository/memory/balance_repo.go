// Package memory provides mutex-guarded in-memory implementations of
// the domain repositories. They back the unit tests and any embedding
// that does not need durable storage.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// balanceRepository implements domain.BalanceRepository
type balanceRepository struct {
	mu    sync.RWMutex
	slots map[string]domain.BalanceSlot
}

// NewBalanceRepository creates an in-memory balance repository.
func NewBalanceRepository() domain.BalanceRepository {
	return &balanceRepository{slots: make(map[string]domain.BalanceSlot)}
}

// Get retrieves a slot by key, (nil, nil) when absent.
func (r *balanceRepository) Get(_ context.Context, key domain.SlotKey) (*domain.BalanceSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.slots[key.String()]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

// SaveAll persists the given slots under one store lock, so a
// two-slot move is observed either fully applied or not at all.
func (r *balanceRepository) SaveAll(_ context.Context, slots ...domain.BalanceSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return err
		}
	}
	for _, slot := range slots {
		r.slots[slot.Key.String()] = slot
	}

	return nil
}

// ListByAccount retrieves every slot ever written for an account.
func (r *balanceRepository) ListByAccount(_ context.Context, accountID uuid.UUID) ([]domain.BalanceSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.BalanceSlot
	for _, slot := range r.slots {
		if slot.Key.AccountID == accountID {
			out = append(out, slot)
		}
	}

	return out, nil
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// ratePairRepository implements domain.RatePairRepository
type ratePairRepository struct {
	mu    sync.RWMutex
	pairs map[string]domain.RatePair
}

// NewRatePairRepository creates an in-memory rate pair repository.
func NewRatePairRepository() domain.RatePairRepository {
	return &ratePairRepository{pairs: make(map[string]domain.RatePair)}
}

func pairKey(from, to string) string {
	return domain.NormalizeCurrency(from) + "/" + domain.NormalizeCurrency(to)
}

// GetPair retrieves the stored pair from -> to.
func (r *ratePairRepository) GetPair(_ context.Context, from, to string) (*domain.RatePair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pair, ok := r.pairs[pairKey(from, to)]
	if !ok {
		return nil, fmt.Errorf("%w: pair %s/%s not stored", domain.ErrRateUnavailable, from, to)
	}
	return &pair, nil
}

// Upsert stores or replaces the pair in its stored direction.
func (r *ratePairRepository) Upsert(_ context.Context, pair *domain.RatePair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	stored := *pair
	stored.From = domain.NormalizeCurrency(pair.From)
	stored.To = domain.NormalizeCurrency(pair.To)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pairs[pairKey(stored.From, stored.To)] = stored
	return nil
}

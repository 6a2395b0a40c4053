package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

// DefaultLockWait bounds how long a mutating operation waits for a slot
// lock before giving up with ErrLockTimeout.
const DefaultLockWait = 5 * time.Second

// Service is the balance ledger: the single writer of balance slot
// state. Every mutating operation is atomic with respect to concurrent
// callers touching the same slot; operations on disjoint slots proceed
// concurrently.
type Service struct {
	repo     domain.BalanceRepository
	locks    *lockTable
	lockWait time.Duration
}

// NewService creates a ledger Service over the given slot store.
func NewService(repo domain.BalanceRepository) *Service {
	return &Service{
		repo:     repo,
		locks:    newLockTable(),
		lockWait: DefaultLockWait,
	}
}

// NewServiceWithLockWait creates a ledger Service with a custom lock
// wait budget.
func NewServiceWithLockWait(repo domain.BalanceRepository, lockWait time.Duration) *Service {
	s := NewService(repo)
	s.lockWait = lockWait
	return s
}

// SlotKey builds a canonical slot key for this ledger, normalizing the
// currency code.
func SlotKey(accountID uuid.UUID, wallet domain.WalletType, currency string, balanceType domain.BalanceType) domain.SlotKey {
	return domain.SlotKey{
		AccountID:   accountID,
		Wallet:      wallet,
		Currency:    domain.NormalizeCurrency(currency),
		BalanceType: balanceType,
	}
}

// Amount reads the balance held in one slot, creating the slot with a
// zero amount on first reference.
func (s *Service) Amount(ctx context.Context, key domain.SlotKey) (decimal.Decimal, error) {
	slot, err := s.repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	if slot != nil {
		return slot.Amount, nil
	}

	// First reference: materialize the slot at zero under its lock so a
	// concurrent credit cannot be overwritten.
	if err := s.locks.acquire(ctx, key, s.lockWait); err != nil {
		return decimal.Zero, err
	}
	defer s.locks.release(key)

	slot, err = s.repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	if slot != nil {
		return slot.Amount, nil
	}

	zero := domain.BalanceSlot{Key: key, Amount: decimal.Zero}
	if err := s.repo.SaveAll(ctx, zero); err != nil {
		return decimal.Zero, fmt.Errorf("failed to create slot %s: %w", key, err)
	}

	return decimal.Zero, nil
}

// Balances reads every slot ever written for an account.
func (s *Service) Balances(ctx context.Context, accountID uuid.UUID) ([]domain.BalanceSlot, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Move atomically shifts amount from one balance type to another within
// the same (account, wallet, currency). This is the hold and release
// primitive: available->locked on submission, locked->withdrawable or
// back to available on settlement. Fails with ErrInsufficientFunds,
// leaving both slots untouched, when the source holds less than amount.
//
// Move conserves the four-slot sum for the (account, wallet, currency):
// only Credit and Debit represent money crossing the ledger boundary.
func (s *Service) Move(ctx context.Context, accountID uuid.UUID, wallet domain.WalletType, currency string, from, to domain.BalanceType, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: move requires distinct balance types", domain.ErrInvalidBalanceType)
	}

	fromKey := SlotKey(accountID, wallet, currency, from)
	toKey := SlotKey(accountID, wallet, currency, to)

	if err := s.locks.acquireAll(ctx, s.lockWait, fromKey, toKey); err != nil {
		return err
	}
	defer s.locks.releaseAll(fromKey, toKey)

	return s.shift(ctx, fromKey, toKey, amount)
}

// Transfer atomically debits one slot and credits another, possibly on
// a different account or wallet. Both slot locks are taken in canonical
// key order before either slot is read, so concurrent opposing
// transfers cannot deadlock. Currencies must match; conversions go
// through debit-then-credit of the trade flows instead.
func (s *Service) Transfer(ctx context.Context, from, to domain.SlotKey, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if from.Currency != to.Currency {
		return fmt.Errorf("%w: transfer cannot convert %s to %s", domain.ErrInvalidCurrency, from.Currency, to.Currency)
	}
	if from == to {
		return fmt.Errorf("%w: transfer requires distinct slots", domain.ErrInvalidBalanceType)
	}

	if err := s.locks.acquireAll(ctx, s.lockWait, from, to); err != nil {
		return err
	}
	defer s.locks.releaseAll(from, to)

	return s.shift(ctx, from, to, amount)
}

// Credit unconditionally increases a slot. Used for money entering the
// ledger from outside (deposits, settled inbound conversions).
func (s *Service) Credit(ctx context.Context, key domain.SlotKey, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := s.locks.acquire(ctx, key, s.lockWait); err != nil {
		return err
	}
	defer s.locks.release(key)

	slot, err := s.loadSlot(ctx, key)
	if err != nil {
		return err
	}

	slot.Amount = slot.Amount.Add(amount)
	if err := s.repo.SaveAll(ctx, slot); err != nil {
		return fmt.Errorf("failed to credit slot %s: %w", key, err)
	}

	return nil
}

// Debit unconditionally decreases a slot, failing with
// ErrInsufficientFunds when it would go negative. Used for money
// leaving the ledger (external withdrawals).
func (s *Service) Debit(ctx context.Context, key domain.SlotKey, amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := s.locks.acquire(ctx, key, s.lockWait); err != nil {
		return err
	}
	defer s.locks.release(key)

	slot, err := s.loadSlot(ctx, key)
	if err != nil {
		return err
	}

	if slot.Amount.LessThan(amount) {
		return fmt.Errorf("%w: slot %s holds %s, debit of %s requested", domain.ErrInsufficientFunds, key, slot.Amount, amount)
	}

	slot.Amount = slot.Amount.Sub(amount)
	if err := s.repo.SaveAll(ctx, slot); err != nil {
		return fmt.Errorf("failed to debit slot %s: %w", key, err)
	}

	return nil
}

// shift moves amount between two already-locked slots in one atomic
// repository write.
func (s *Service) shift(ctx context.Context, from, to domain.SlotKey, amount decimal.Decimal) error {
	fromSlot, err := s.loadSlot(ctx, from)
	if err != nil {
		return err
	}
	toSlot, err := s.loadSlot(ctx, to)
	if err != nil {
		return err
	}

	if fromSlot.Amount.LessThan(amount) {
		return fmt.Errorf("%w: slot %s holds %s, move of %s requested", domain.ErrInsufficientFunds, from, fromSlot.Amount, amount)
	}

	fromSlot.Amount = fromSlot.Amount.Sub(amount)
	toSlot.Amount = toSlot.Amount.Add(amount)

	if err := s.repo.SaveAll(ctx, fromSlot, toSlot); err != nil {
		return fmt.Errorf("failed to move %s from %s to %s: %w", amount, from, to, err)
	}

	return nil
}

// loadSlot reads a slot, treating an absent slot as zero.
func (s *Service) loadSlot(ctx context.Context, key domain.SlotKey) (domain.BalanceSlot, error) {
	slot, err := s.repo.Get(ctx, key)
	if err != nil {
		return domain.BalanceSlot{}, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	if slot == nil {
		return domain.BalanceSlot{Key: key, Amount: decimal.Zero}, nil
	}
	return *slot, nil
}

// validateAmount rejects non-positive amounts before any lock is taken.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", domain.ErrInvalidAmount, amount)
	}
	return nil
}

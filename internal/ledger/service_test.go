package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangmo-land/BBinance-sub000/internal/adapter/repository/memory"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

func newTestLedger(t *testing.T) (*Service, uuid.UUID) {
	t.Helper()
	return NewService(memory.NewBalanceRepository()), uuid.New()
}

func mustAmount(t *testing.T, s *Service, key domain.SlotKey) decimal.Decimal {
	t.Helper()
	amount, err := s.Amount(context.Background(), key)
	require.NoError(t, err)
	return amount
}

func TestAmount_CreatesSlotLazilyAtZero(t *testing.T) {
	s, accountID := newTestLedger(t)
	key := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)

	amount, err := s.Amount(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	// Second read hits the materialized slot.
	amount, err = s.Amount(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestMove_HoldsAvailableFunds(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()

	available := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	locked := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceLocked)

	require.NoError(t, s.Credit(ctx, available, decimal.NewFromInt(100)))

	err := s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromInt(40))
	require.NoError(t, err)

	assert.True(t, mustAmount(t, s, available).Equal(decimal.NewFromInt(60)))
	assert.True(t, mustAmount(t, s, locked).Equal(decimal.NewFromInt(40)))
}

func TestMove_InsufficientFundsLeavesSlotsUntouched(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()

	available := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	locked := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceLocked)

	require.NoError(t, s.Credit(ctx, available, decimal.NewFromInt(60)))

	err := s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.True(t, mustAmount(t, s, available).Equal(decimal.NewFromInt(60)))
	assert.True(t, mustAmount(t, s, locked).IsZero())
}

func TestMove_RejectsInvalidInput(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()

	err := s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceLocked, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceAvailable, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrInvalidBalanceType)
}

func TestCredit_And_Debit(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()
	key := SlotKey(accountID, domain.WalletFunding, "EUR", domain.BalanceAvailable)

	assert.ErrorIs(t, s.Credit(ctx, key, decimal.Zero), domain.ErrInvalidAmount)

	require.NoError(t, s.Credit(ctx, key, decimal.NewFromInt(25)))
	assert.True(t, mustAmount(t, s, key).Equal(decimal.NewFromInt(25)))

	assert.ErrorIs(t, s.Debit(ctx, key, decimal.NewFromInt(30)), domain.ErrInsufficientFunds)
	assert.True(t, mustAmount(t, s, key).Equal(decimal.NewFromInt(25)))

	require.NoError(t, s.Debit(ctx, key, decimal.NewFromInt(25)))
	assert.True(t, mustAmount(t, s, key).IsZero())
}

func TestMove_ConservesFourSlotSum(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()

	available := SlotKey(accountID, domain.WalletSpot, "BTC", domain.BalanceAvailable)
	require.NoError(t, s.Credit(ctx, available, decimal.NewFromFloat(1.5)))

	moves := []struct {
		from, to domain.BalanceType
		amount   decimal.Decimal
	}{
		{domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromFloat(0.7)},
		{domain.BalanceLocked, domain.BalanceWithdrawable, decimal.NewFromFloat(0.2)},
		{domain.BalanceAvailable, domain.BalancePending, decimal.NewFromFloat(0.30000001)},
		{domain.BalanceLocked, domain.BalanceAvailable, decimal.NewFromFloat(0.5)},
		{domain.BalancePending, domain.BalanceLocked, decimal.NewFromFloat(0.1)},
	}

	for _, m := range moves {
		require.NoError(t, s.Move(ctx, accountID, domain.WalletSpot, "BTC", m.from, m.to, m.amount))
	}

	sum := decimal.Zero
	for _, bt := range domain.BalanceTypes {
		sum = sum.Add(mustAmount(t, s, SlotKey(accountID, domain.WalletSpot, "BTC", bt)))
	}
	assert.True(t, sum.Equal(decimal.NewFromFloat(1.5)), "sum drifted to %s", sum)
}

func TestTransfer_CrossAccount(t *testing.T) {
	s, fromAccount := newTestLedger(t)
	toAccount := uuid.New()
	ctx := context.Background()

	fromKey := SlotKey(fromAccount, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	toKey := SlotKey(toAccount, domain.WalletSpot, "USDT", domain.BalancePending)

	require.NoError(t, s.Credit(ctx, fromKey, decimal.NewFromInt(200)))
	require.NoError(t, s.Transfer(ctx, fromKey, toKey, decimal.NewFromInt(75)))

	assert.True(t, mustAmount(t, s, fromKey).Equal(decimal.NewFromInt(125)))
	assert.True(t, mustAmount(t, s, toKey).Equal(decimal.NewFromInt(75)))

	err := s.Transfer(ctx, fromKey, toKey, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestTransfer_RejectsCurrencyMismatch(t *testing.T) {
	s, accountID := newTestLedger(t)

	fromKey := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	toKey := SlotKey(uuid.New(), domain.WalletSpot, "BTC", domain.BalancePending)

	err := s.Transfer(context.Background(), fromKey, toKey, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestConcurrentMoves_SameSlotSerialized(t *testing.T) {
	s, accountID := newTestLedger(t)
	ctx := context.Background()

	available := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	require.NoError(t, s.Credit(ctx, available, decimal.NewFromInt(100)))

	// 100 concurrent holds of 1 each: exactly 100 must succeed and the
	// slot must never go negative.
	const workers = 150
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Move(ctx, accountID, domain.WalletSpot, "USDT",
				domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromInt(1))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, succeeded)
	assert.True(t, mustAmount(t, s, available).IsZero())

	locked := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceLocked)
	assert.True(t, mustAmount(t, s, locked).Equal(decimal.NewFromInt(100)))
}

func TestConcurrentOpposingTransfers_NoDeadlock(t *testing.T) {
	s, accountA := newTestLedger(t)
	accountB := uuid.New()
	ctx := context.Background()

	keyA := SlotKey(accountA, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	keyB := SlotKey(accountB, domain.WalletSpot, "USDT", domain.BalanceAvailable)

	require.NoError(t, s.Credit(ctx, keyA, decimal.NewFromInt(1000)))
	require.NoError(t, s.Credit(ctx, keyB, decimal.NewFromInt(1000)))

	// Transfers in both directions at once: canonical lock ordering
	// must prevent the A->B / B->A deadlock.
	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			require.NoError(t, s.Transfer(ctx, keyA, keyB, decimal.NewFromInt(1)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			require.NoError(t, s.Transfer(ctx, keyB, keyA, decimal.NewFromInt(1)))
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	total := mustAmount(t, s, keyA).Add(mustAmount(t, s, keyB))
	assert.True(t, total.Equal(decimal.NewFromInt(2000)))
}

func TestMove_LockTimeout(t *testing.T) {
	repo := memory.NewBalanceRepository()
	s := NewServiceWithLockWait(repo, 50*time.Millisecond)
	accountID := uuid.New()
	ctx := context.Background()

	available := SlotKey(accountID, domain.WalletSpot, "USDT", domain.BalanceAvailable)
	require.NoError(t, s.Credit(ctx, available, decimal.NewFromInt(10)))

	// Hold the slot lock out from under the service.
	require.NoError(t, s.locks.acquire(ctx, available, time.Second))
	defer s.locks.release(available)

	err := s.Move(ctx, accountID, domain.WalletSpot, "USDT",
		domain.BalanceAvailable, domain.BalanceLocked, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	// State is untouched and the operation is retryable once the lock frees.
	assert.True(t, mustAmount(t, s, available).Equal(decimal.NewFromInt(10)))
}

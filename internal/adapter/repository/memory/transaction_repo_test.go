package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

func newRecord(accountID uuid.UUID, ref string, createdAt time.Time) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:                uuid.New(),
		FromAccountID:     &accountID,
		Type:              domain.TxTypeWithdrawal,
		FromCurrency:      "USDT",
		ToCurrency:        "USDT",
		Amount:            decimal.NewFromInt(10),
		SourceWallet:      domain.WalletSpot,
		DestinationWallet: domain.WalletSpot,
		Status:            domain.StatusPending,
		ReferenceNumber:   ref,
		CreatedBy:         uuid.New(),
		CreatedAt:         createdAt,
	}
}

func TestTransactionRepository_Create_RejectsDuplicateReference(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	accountID := uuid.New()

	require.NoError(t, repo.Create(ctx, newRecord(accountID, "TXN-AAAA", time.Now())))

	err := repo.Create(ctx, newRecord(accountID, "TXN-AAAA", time.Now()))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestTransactionRepository_GetByID_NotFound(t *testing.T) {
	repo := NewTransactionRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestTransactionRepository_ListByAccount_NewestFirstWithPaging(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	accountID := uuid.New()
	base := time.Now()

	for i := 0; i < 5; i++ {
		record := newRecord(accountID, fmt.Sprintf("TXN-%04d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, record))
	}
	// Another account's record must not show up.
	require.NoError(t, repo.Create(ctx, newRecord(uuid.New(), "TXN-OTHER", base)))

	page, err := repo.ListByAccount(ctx, accountID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "TXN-0004", page[0].ReferenceNumber)
	assert.Equal(t, "TXN-0003", page[1].ReferenceNumber)

	page, err = repo.ListByAccount(ctx, accountID, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "TXN-0000", page[0].ReferenceNumber)

	page, err = repo.ListByAccount(ctx, accountID, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestTransactionRepository_ListByAccount_MatchesEitherSide(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	sender := uuid.New()
	recipient := uuid.New()

	record := newRecord(sender, "TXN-XFER", time.Now())
	record.Type = domain.TxTypeTransfer
	record.ToAccountID = &recipient
	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.ListByAccount(ctx, recipient, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TXN-XFER", got[0].ReferenceNumber)
}

func TestTransactionRepository_ListPending_OldestFirst(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	accountID := uuid.New()
	base := time.Now()

	newer := newRecord(accountID, "TXN-NEW", base.Add(time.Hour))
	older := newRecord(accountID, "TXN-OLD", base)
	settled := newRecord(accountID, "TXN-DONE", base.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, settled))
	require.NoError(t, repo.UpdateStatus(ctx, settled.ID, domain.StatusCompleted))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "TXN-OLD", pending[0].ReferenceNumber)
	assert.Equal(t, "TXN-NEW", pending[1].ReferenceNumber)
}

func TestTransactionRepository_UpdateStatus_OnlyMovesPendingRecords(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	record := newRecord(uuid.New(), "TXN-ONCE", time.Now())
	require.NoError(t, repo.Create(ctx, record))

	require.NoError(t, repo.UpdateStatus(ctx, record.ID, domain.StatusCompleted))

	err := repo.UpdateStatus(ctx, record.ID, domain.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

// Package operations composes the rate resolver, conversion calculator,
// balance ledger and transaction journal into the money-movement flows
// the surrounding application requests. Every flow either leaves all
// balance state and the journal consistent or none of it: an error from
// any later step triggers compensating ledger calls that restore the
// state written by earlier steps before the error is returned.
package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/convert"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
	"github.com/sangmo-land/BBinance-sub000/internal/journal"
	"github.com/sangmo-land/BBinance-sub000/internal/ledger"
	"github.com/sangmo-land/BBinance-sub000/internal/rates"
)

// Fees holds the platform fee percentages, read once from system
// settings and passed in explicitly.
type Fees struct {
	BuyCryptoPercent  decimal.Decimal
	SellCryptoPercent decimal.Decimal
	ConvertPercent    decimal.Decimal
}

// Service handles the composed account-operation flows.
type Service struct {
	Ledger  *ledger.Service
	Rates   *rates.Resolver
	Journal *journal.Service
	Fees    Fees
}

// NewService creates a new operations Service.
func NewService(ledgerSvc *ledger.Service, resolver *rates.Resolver, journalSvc *journal.Service, fees Fees) *Service {
	return &Service{
		Ledger:  ledgerSvc,
		Rates:   resolver,
		Journal: journalSvc,
		Fees:    fees,
	}
}

// DepositParams holds parameters for an inbound deposit.
type DepositParams struct {
	AccountID   uuid.UUID
	Wallet      domain.WalletType
	Currency    string
	Amount      decimal.Decimal
	CreatedBy   uuid.UUID
	Description string
}

// Deposit credits inbound funds to the pending balance and journals the
// intent. Funds become available once the approval process completes
// the record.
func (s *Service) Deposit(ctx context.Context, params DepositParams) (*domain.TransactionRecord, error) {
	key := ledger.SlotKey(params.AccountID, params.Wallet, params.Currency, domain.BalancePending)

	if err := s.Ledger.Credit(ctx, key, params.Amount); err != nil {
		return nil, err
	}

	accountID := params.AccountID
	record, err := s.Journal.Record(ctx, journal.RecordParams{
		ToAccountID:       &accountID,
		Type:              domain.TxTypeDeposit,
		FromCurrency:      params.Currency,
		ToCurrency:        params.Currency,
		Amount:            params.Amount,
		ConvertedAmount:   params.Amount,
		SourceWallet:      params.Wallet,
		DestinationWallet: params.Wallet,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return nil, s.compensate(ctx, err, func(ctx context.Context) error {
			return s.Ledger.Debit(ctx, key, params.Amount)
		})
	}

	return record, nil
}

// WithdrawParams holds parameters for an external withdrawal.
type WithdrawParams struct {
	AccountID   uuid.UUID
	Wallet      domain.WalletType
	Currency    string
	Amount      decimal.Decimal
	CreatedBy   uuid.UUID
	Description string
}

// Withdraw holds the requested amount (available -> locked) and
// journals the withdrawal intent for approval.
func (s *Service) Withdraw(ctx context.Context, params WithdrawParams) (*domain.TransactionRecord, error) {
	err := s.Ledger.Move(ctx, params.AccountID, params.Wallet, params.Currency,
		domain.BalanceAvailable, domain.BalanceLocked, params.Amount)
	if err != nil {
		return nil, err
	}

	accountID := params.AccountID
	record, err := s.Journal.Record(ctx, journal.RecordParams{
		FromAccountID:     &accountID,
		Type:              domain.TxTypeWithdrawal,
		FromCurrency:      params.Currency,
		ToCurrency:        params.Currency,
		Amount:            params.Amount,
		ConvertedAmount:   params.Amount,
		SourceWallet:      params.Wallet,
		DestinationWallet: params.Wallet,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return nil, s.compensate(ctx, err, func(ctx context.Context) error {
			return s.Ledger.Move(ctx, params.AccountID, params.Wallet, params.Currency,
				domain.BalanceLocked, domain.BalanceAvailable, params.Amount)
		})
	}

	return record, nil
}

// TradeParams holds parameters for the buy/sell/convert flows.
// SpendCurrency is debited from the spend wallet; the net proceeds in
// ReceiveCurrency are credited to the receive wallet at settlement.
type TradeParams struct {
	AccountID       uuid.UUID
	SpendWallet     domain.WalletType
	ReceiveWallet   domain.WalletType
	SpendCurrency   string
	ReceiveCurrency string
	SpendAmount     decimal.Decimal
	CreatedBy       uuid.UUID
	Description     string
}

// BuyCrypto spends quote currency to acquire crypto: the rate is quoted
// as spend-per-receive, so the spend side is the quote currency.
func (s *Service) BuyCrypto(ctx context.Context, params TradeParams) (*domain.TransactionRecord, error) {
	return s.trade(ctx, params, domain.TxTypeBuyCrypto, s.Fees.BuyCryptoPercent, true)
}

// SellCrypto spends crypto for quote currency: the rate is quoted as
// receive-per-spend, so the spend side is the base currency.
func (s *Service) SellCrypto(ctx context.Context, params TradeParams) (*domain.TransactionRecord, error) {
	return s.trade(ctx, params, domain.TxTypeSellCrypto, s.Fees.SellCryptoPercent, false)
}

// ConvertCrypto exchanges one crypto for another at the resolved cross
// rate.
func (s *Service) ConvertCrypto(ctx context.Context, params TradeParams) (*domain.TransactionRecord, error) {
	return s.trade(ctx, params, domain.TxTypeConvertCrypto, s.Fees.ConvertPercent, false)
}

// trade runs the shared conversion flow: resolve rate, compute
// proceeds, hold the spend amount, journal the intent. The rate and the
// strict resolver are consulted before any balance is touched, so a
// missing rate aborts with no mutation at all.
func (s *Service) trade(ctx context.Context, params TradeParams, txType domain.TransactionType, feePercent decimal.Decimal, spendIsQuote bool) (*domain.TransactionRecord, error) {
	var rate decimal.Decimal
	var err error
	if spendIsQuote {
		// Rate quoted receive -> spend (e.g. BTC/USDT when spending USDT).
		rate, err = s.Rates.Resolve(ctx, params.ReceiveCurrency, params.SpendCurrency)
	} else {
		rate, err = s.Rates.Resolve(ctx, params.SpendCurrency, params.ReceiveCurrency)
	}
	if err != nil {
		return nil, err
	}

	result, err := convert.ComputeTrade(convert.TradeInput{
		SpendAmount:          params.SpendAmount,
		Rate:                 rate,
		FeePercent:           feePercent,
		SpendIsQuoteCurrency: spendIsQuote,
	})
	if err != nil {
		return nil, err
	}

	err = s.Ledger.Move(ctx, params.AccountID, params.SpendWallet, params.SpendCurrency,
		domain.BalanceAvailable, domain.BalanceLocked, params.SpendAmount)
	if err != nil {
		return nil, err
	}

	accountID := params.AccountID
	record, err := s.Journal.Record(ctx, journal.RecordParams{
		FromAccountID:     &accountID,
		ToAccountID:       &accountID,
		Type:              txType,
		FromCurrency:      params.SpendCurrency,
		ToCurrency:        params.ReceiveCurrency,
		Amount:            params.SpendAmount,
		ExchangeRate:      rate,
		ConvertedAmount:   result.NetReceive,
		SourceWallet:      params.SpendWallet,
		DestinationWallet: params.ReceiveWallet,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return nil, s.compensate(ctx, err, func(ctx context.Context) error {
			return s.Ledger.Move(ctx, params.AccountID, params.SpendWallet, params.SpendCurrency,
				domain.BalanceLocked, domain.BalanceAvailable, params.SpendAmount)
		})
	}

	return record, nil
}

// WalletTransferParams holds parameters for a transfer between two
// wallets of the same account.
type WalletTransferParams struct {
	AccountID   uuid.UUID
	FromWallet  domain.WalletType
	ToWallet    domain.WalletType
	Currency    string
	Amount      decimal.Decimal
	CreatedBy   uuid.UUID
	Description string
}

// TransferBetweenWallets holds funds in the source wallet and journals
// an internal transfer. The destination wallet receives the funds at
// settlement via the record's structured wallet routing.
func (s *Service) TransferBetweenWallets(ctx context.Context, params WalletTransferParams) (*domain.TransactionRecord, error) {
	if params.FromWallet == params.ToWallet {
		return nil, fmt.Errorf("%w: transfer requires distinct wallets", domain.ErrInvalidWalletType)
	}

	err := s.Ledger.Move(ctx, params.AccountID, params.FromWallet, params.Currency,
		domain.BalanceAvailable, domain.BalanceLocked, params.Amount)
	if err != nil {
		return nil, err
	}

	accountID := params.AccountID
	record, err := s.Journal.Record(ctx, journal.RecordParams{
		FromAccountID:     &accountID,
		ToAccountID:       &accountID,
		Type:              domain.TxTypeTransfer,
		FromCurrency:      params.Currency,
		ToCurrency:        params.Currency,
		Amount:            params.Amount,
		ConvertedAmount:   params.Amount,
		SourceWallet:      params.FromWallet,
		DestinationWallet: params.ToWallet,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return nil, s.compensate(ctx, err, func(ctx context.Context) error {
			return s.Ledger.Move(ctx, params.AccountID, params.FromWallet, params.Currency,
				domain.BalanceLocked, domain.BalanceAvailable, params.Amount)
		})
	}

	return record, nil
}

// AccountTransferParams holds parameters for a transfer between two
// accounts.
type AccountTransferParams struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	FromWallet    domain.WalletType
	ToWallet      domain.WalletType
	Currency      string
	Amount        decimal.Decimal
	CreatedBy     uuid.UUID
	Description   string
}

// TransferToAccount moves funds from the sender's available balance to
// the recipient's pending balance in one atomic two-slot transfer, then
// journals the intent. The recipient's funds become available at
// settlement.
func (s *Service) TransferToAccount(ctx context.Context, params AccountTransferParams) (*domain.TransactionRecord, error) {
	fromKey := ledger.SlotKey(params.FromAccountID, params.FromWallet, params.Currency, domain.BalanceAvailable)
	toKey := ledger.SlotKey(params.ToAccountID, params.ToWallet, params.Currency, domain.BalancePending)

	if err := s.Ledger.Transfer(ctx, fromKey, toKey, params.Amount); err != nil {
		return nil, err
	}

	fromID, toID := params.FromAccountID, params.ToAccountID
	record, err := s.Journal.Record(ctx, journal.RecordParams{
		FromAccountID:     &fromID,
		ToAccountID:       &toID,
		Type:              domain.TxTypeTransfer,
		FromCurrency:      params.Currency,
		ToCurrency:        params.Currency,
		Amount:            params.Amount,
		ConvertedAmount:   params.Amount,
		SourceWallet:      params.FromWallet,
		DestinationWallet: params.ToWallet,
		Description:       params.Description,
		CreatedBy:         params.CreatedBy,
	})
	if err != nil {
		return nil, s.compensate(ctx, err, func(ctx context.Context) error {
			return s.Ledger.Transfer(ctx, toKey, fromKey, params.Amount)
		})
	}

	return record, nil
}

// compensate runs a rollback step for a failed flow. When the rollback
// itself fails the two errors are joined: the caller must see both the
// original failure and the fact that state needs manual reconciliation.
func (s *Service) compensate(ctx context.Context, cause error, rollback func(context.Context) error) error {
	if rbErr := rollback(ctx); rbErr != nil {
		return errors.Join(cause, fmt.Errorf("rollback failed, state requires reconciliation: %w", rbErr))
	}
	return cause
}

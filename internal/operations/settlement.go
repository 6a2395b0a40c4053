package operations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
	"github.com/sangmo-land/BBinance-sub000/internal/ledger"
)

// Approve finalizes a pending record: the balance movement implied by
// the record's type and structured wallet routing is applied, then the
// record is marked completed. The status update is a pending-only
// compare-and-set, so if another settler won the race the balance
// movement is compensated and the transition error returned.
//
// This is the settlement glue the external approval process drives; the
// core never calls it on its own.
func (s *Service) Approve(ctx context.Context, recordID uuid.UUID) error {
	record, err := s.Journal.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.CanTransitionTo(domain.StatusCompleted) {
		return fmt.Errorf("%w: %s is %s", domain.ErrInvalidStatusTransition, record.ReferenceNumber, record.Status)
	}

	apply, revert, err := s.settlementSteps(record, true)
	if err != nil {
		return err
	}

	if err := apply(ctx); err != nil {
		return err
	}

	if err := s.Journal.SetStatus(ctx, recordID, domain.StatusCompleted); err != nil {
		return s.compensate(ctx, err, revert)
	}

	return nil
}

// Reject resolves a pending record negatively and returns any held
// funds to where they came from.
func (s *Service) Reject(ctx context.Context, recordID uuid.UUID) error {
	record, err := s.Journal.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.CanTransitionTo(domain.StatusRejected) {
		return fmt.Errorf("%w: %s is %s", domain.ErrInvalidStatusTransition, record.ReferenceNumber, record.Status)
	}

	apply, revert, err := s.settlementSteps(record, false)
	if err != nil {
		return err
	}

	if err := apply(ctx); err != nil {
		return err
	}

	if err := s.Journal.SetStatus(ctx, recordID, domain.StatusRejected); err != nil {
		return s.compensate(ctx, err, revert)
	}

	return nil
}

type ledgerStep func(context.Context) error

// settlementSteps derives the settlement-side balance movement for a
// record from its type and wallet routing, plus the inverse movement
// used when the status compare-and-set loses a race.
func (s *Service) settlementSteps(record *domain.TransactionRecord, approved bool) (apply, revert ledgerStep, err error) {
	switch record.Type {
	case domain.TxTypeDeposit:
		if record.ToAccountID == nil {
			return nil, nil, fmt.Errorf("%w: deposit %s has no destination account", domain.ErrRecordNotFound, record.ReferenceNumber)
		}
		key := ledger.SlotKey(*record.ToAccountID, record.DestinationWallet, record.ToCurrency, domain.BalancePending)
		if approved {
			// Inbound funds confirmed: pending -> available.
			apply = func(ctx context.Context) error {
				return s.Ledger.Move(ctx, *record.ToAccountID, record.DestinationWallet, record.ToCurrency,
					domain.BalancePending, domain.BalanceAvailable, record.Amount)
			}
			revert = func(ctx context.Context) error {
				return s.Ledger.Move(ctx, *record.ToAccountID, record.DestinationWallet, record.ToCurrency,
					domain.BalanceAvailable, domain.BalancePending, record.Amount)
			}
			return apply, revert, nil
		}
		// Funds never arrived: remove the provisional pending credit.
		apply = func(ctx context.Context) error {
			return s.Ledger.Debit(ctx, key, record.Amount)
		}
		revert = func(ctx context.Context) error {
			return s.Ledger.Credit(ctx, key, record.Amount)
		}
		return apply, revert, nil

	case domain.TxTypeWithdrawal:
		if record.FromAccountID == nil {
			return nil, nil, fmt.Errorf("%w: withdrawal %s has no source account", domain.ErrRecordNotFound, record.ReferenceNumber)
		}
		key := ledger.SlotKey(*record.FromAccountID, record.SourceWallet, record.FromCurrency, domain.BalanceLocked)
		if approved {
			// Money leaves the ledger.
			apply = func(ctx context.Context) error {
				return s.Ledger.Debit(ctx, key, record.Amount)
			}
			revert = func(ctx context.Context) error {
				return s.Ledger.Credit(ctx, key, record.Amount)
			}
			return apply, revert, nil
		}
		return s.releaseHoldSteps(record)

	case domain.TxTypeBuyCrypto, domain.TxTypeSellCrypto, domain.TxTypeConvertCrypto, domain.TxTypeConversion:
		if record.FromAccountID == nil || record.ToAccountID == nil {
			return nil, nil, fmt.Errorf("%w: conversion %s lacks account routing", domain.ErrRecordNotFound, record.ReferenceNumber)
		}
		if approved {
			spendKey := ledger.SlotKey(*record.FromAccountID, record.SourceWallet, record.FromCurrency, domain.BalanceLocked)
			receiveKey := ledger.SlotKey(*record.ToAccountID, record.DestinationWallet, record.ToCurrency, domain.BalanceAvailable)
			apply = func(ctx context.Context) error {
				if err := s.Ledger.Debit(ctx, spendKey, record.Amount); err != nil {
					return err
				}
				if err := s.Ledger.Credit(ctx, receiveKey, record.ConvertedAmount); err != nil {
					return s.compensate(ctx, err, func(ctx context.Context) error {
						return s.Ledger.Credit(ctx, spendKey, record.Amount)
					})
				}
				return nil
			}
			revert = func(ctx context.Context) error {
				if err := s.Ledger.Debit(ctx, receiveKey, record.ConvertedAmount); err != nil {
					return err
				}
				return s.Ledger.Credit(ctx, spendKey, record.Amount)
			}
			return apply, revert, nil
		}
		return s.releaseHoldSteps(record)

	case domain.TxTypeTransfer:
		if record.FromAccountID == nil || record.ToAccountID == nil {
			return nil, nil, fmt.Errorf("%w: transfer %s lacks account routing", domain.ErrRecordNotFound, record.ReferenceNumber)
		}
		if *record.FromAccountID == *record.ToAccountID {
			return s.walletTransferSteps(record, approved)
		}
		return s.accountTransferSteps(record, approved)
	}

	return nil, nil, fmt.Errorf("%w: no settlement rule for type %s", domain.ErrInvalidStatusTransition, record.Type)
}

// releaseHoldSteps returns funds held at submission to the available
// balance (rejection path for hold-based flows).
func (s *Service) releaseHoldSteps(record *domain.TransactionRecord) (ledgerStep, ledgerStep, error) {
	apply := func(ctx context.Context) error {
		return s.Ledger.Move(ctx, *record.FromAccountID, record.SourceWallet, record.FromCurrency,
			domain.BalanceLocked, domain.BalanceAvailable, record.Amount)
	}
	revert := func(ctx context.Context) error {
		return s.Ledger.Move(ctx, *record.FromAccountID, record.SourceWallet, record.FromCurrency,
			domain.BalanceAvailable, domain.BalanceLocked, record.Amount)
	}
	return apply, revert, nil
}

// walletTransferSteps settles a same-account wallet-to-wallet transfer.
func (s *Service) walletTransferSteps(record *domain.TransactionRecord, approved bool) (ledgerStep, ledgerStep, error) {
	if !approved {
		return s.releaseHoldSteps(record)
	}

	heldKey := ledger.SlotKey(*record.FromAccountID, record.SourceWallet, record.FromCurrency, domain.BalanceLocked)
	destKey := ledger.SlotKey(*record.ToAccountID, record.DestinationWallet, record.ToCurrency, domain.BalanceAvailable)

	apply := func(ctx context.Context) error {
		return s.Ledger.Transfer(ctx, heldKey, destKey, record.Amount)
	}
	revert := func(ctx context.Context) error {
		return s.Ledger.Transfer(ctx, destKey, heldKey, record.Amount)
	}
	return apply, revert, nil
}

// accountTransferSteps settles a cross-account transfer. Submission
// already moved the funds to the recipient's pending balance.
func (s *Service) accountTransferSteps(record *domain.TransactionRecord, approved bool) (ledgerStep, ledgerStep, error) {
	pendingKey := ledger.SlotKey(*record.ToAccountID, record.DestinationWallet, record.ToCurrency, domain.BalancePending)
	senderKey := ledger.SlotKey(*record.FromAccountID, record.SourceWallet, record.FromCurrency, domain.BalanceAvailable)

	if approved {
		apply := func(ctx context.Context) error {
			return s.Ledger.Move(ctx, *record.ToAccountID, record.DestinationWallet, record.ToCurrency,
				domain.BalancePending, domain.BalanceAvailable, record.Amount)
		}
		revert := func(ctx context.Context) error {
			return s.Ledger.Move(ctx, *record.ToAccountID, record.DestinationWallet, record.ToCurrency,
				domain.BalanceAvailable, domain.BalancePending, record.Amount)
		}
		return apply, revert, nil
	}

	// Rejected: send the funds back to the sender.
	apply := func(ctx context.Context) error {
		return s.Ledger.Transfer(ctx, pendingKey, senderKey, record.Amount)
	}
	revert := func(ctx context.Context) error {
		return s.Ledger.Transfer(ctx, senderKey, pendingKey, record.Amount)
	}
	return apply, revert, nil
}

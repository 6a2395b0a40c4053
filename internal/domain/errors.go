package domain

import "errors"

var (
	// ErrInsufficientFunds indicates a debit or move would take a slot
	// negative. No mutation occurs when it is returned.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRateUnavailable indicates no resolvable rate exists for a
	// currency pair. Conversions abort before any balance mutation.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrInvalidAmount indicates a non-positive or non-finite amount
	// was supplied. Rejected before any lock is taken.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrLockTimeout indicates a slot lock could not be acquired within
	// budget. The whole operation is safe to retry.
	ErrLockTimeout = errors.New("balance lock wait timed out")

	// ErrJournalUnavailable indicates reference-number generation
	// exhausted its retries. The operation aborts and any funds already
	// moved are rolled back.
	ErrJournalUnavailable = errors.New("transaction journal unavailable")

	// ErrDuplicateReference indicates a journal insert collided with an
	// existing reference number. The journal regenerates and retries.
	ErrDuplicateReference = errors.New("duplicate reference number")

	// ErrRecordNotFound indicates the requested transaction record does
	// not exist.
	ErrRecordNotFound = errors.New("transaction record not found")

	// ErrInvalidStatusTransition indicates an attempt to move a
	// transaction record out of pending into anything other than
	// completed or rejected, or to move a settled record at all.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrInvalidWalletType indicates a wallet type string that does not
	// normalize to a canonical value.
	ErrInvalidWalletType = errors.New("invalid wallet type")

	// ErrInvalidBalanceType indicates a balance type string that does
	// not normalize to a canonical value.
	ErrInvalidBalanceType = errors.New("invalid balance type")

	// ErrInvalidCurrency indicates an empty or malformed currency code.
	ErrInvalidCurrency = errors.New("invalid currency code")
)

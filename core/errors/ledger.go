package errors

import stderrors "errors"

// Ledger and staking failures. Call sites wrap these with context; match them
// with errors.Is.
var (
	ErrInsufficientBalance = stderrors.New("ledger: insufficient balance")
	ErrInsufficientStake   = stderrors.New("stake: insufficient staked amount")
	ErrZeroAmount          = stderrors.New("ledger: amount must be greater than zero")
	ErrUnauthorized        = stderrors.New("ledger: caller not authorized")
	ErrSupplyCapExceeded   = stderrors.New("ledger: minting would exceed max supply")
	ErrZeroAddress         = stderrors.New("ledger: zero address")

	// ErrArithmeticOverflow signals an invariant violation upstream (a caller
	// or cap configuration bug). It is never expected under the supply cap.
	ErrArithmeticOverflow = stderrors.New("ledger: arithmetic overflow")
)

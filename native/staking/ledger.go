package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/native/token"
)

// LedgerTx is the slice of the token transaction contract the engine settles
// through.
type LedgerTx interface {
	BalanceOf(addr common.Address) *uint256.Int
	IsMinter(addr common.Address) bool
	Transfer(from, to common.Address, amt *uint256.Int) error
	Mint(caller, to common.Address, amt *uint256.Int) error
}

// Ledger is a token ledger able to run an atomic, all-or-nothing update.
// Stage commits fn and returns the delivery of its events, which the caller
// runs after releasing every lock it holds. Implementations must be
// comparable so the engine can tell whether two ledgers are the same asset.
type Ledger interface {
	Symbol() string
	BalanceOf(addr common.Address) *uint256.Int
	Stage(fn func(LedgerTx) error) (deliver func(), err error)
}

// TokenLedger adapts a token.Ledger to the engine's Ledger contract. Adapting
// the same token.Ledger twice yields equal values.
func TokenLedger(l *token.Ledger) Ledger {
	return tokenLedger{ledger: l}
}

type tokenLedger struct {
	ledger *token.Ledger
}

func (t tokenLedger) Symbol() string { return t.ledger.Symbol() }

func (t tokenLedger) BalanceOf(addr common.Address) *uint256.Int {
	return t.ledger.BalanceOf(addr)
}

func (t tokenLedger) Stage(fn func(LedgerTx) error) (func(), error) {
	return t.ledger.Stage(func(tx *token.Tx) error { return fn(tx) })
}

package token

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	ledgererrors "norifarm/core/errors"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
)

var errTxClosed = errors.New("token ledger: transaction already closed")

// Tx is a journaled view of the ledger handed to Update callbacks. Every
// mutation records an undo step; a failed Update replays them in reverse so
// no partial state survives.
type Tx struct {
	ledger  *Ledger
	journal []func()
	events  []events.Event
	closed  bool
}

// Symbol returns the ledger ticker.
func (tx *Tx) Symbol() string { return tx.ledger.symbol }

// BalanceOf returns the balance of addr, reading an absent account as zero.
func (tx *Tx) BalanceOf(addr common.Address) *uint256.Int {
	return amount.Copy(tx.ledger.balances[addr])
}

// TotalSupply returns the circulating supply.
func (tx *Tx) TotalSupply() *uint256.Int { return amount.Copy(tx.ledger.totalSupply) }

// IsMinter reports whether addr may mint.
func (tx *Tx) IsMinter(addr common.Address) bool {
	_, ok := tx.ledger.minters[addr]
	return ok
}

// Owner returns the current ledger owner.
func (tx *Tx) Owner() common.Address { return tx.ledger.owner }

// Transfer moves amt from one account to another without touching supply.
func (tx *Tx) Transfer(from, to common.Address, amt *uint256.Int) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if amount.IsZero(amt) {
		return nil
	}
	if to == (common.Address{}) {
		return fmt.Errorf("transfer: %w", ledgererrors.ErrZeroAddress)
	}
	balance := tx.BalanceOf(from)
	if balance.Lt(amt) {
		return fmt.Errorf("%w: have %s, need %s", ledgererrors.ErrInsufficientBalance, balance.Dec(), amt.Dec())
	}
	if from != to {
		debited, err := amount.Sub(balance, amt)
		if err != nil {
			return err
		}
		credited, err := amount.Add(tx.BalanceOf(to), amt)
		if err != nil {
			return err
		}
		tx.setBalance(from, debited)
		tx.setBalance(to, credited)
	}
	tx.record(events.TokenTransfer{Token: tx.ledger.symbol, From: from, To: to, Amount: amount.Copy(amt)})
	return nil
}

// Mint issues amt new tokens to the recipient. The caller must be a minter
// and the result must stay within MaxSupply.
func (tx *Tx) Mint(caller, to common.Address, amt *uint256.Int) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if !tx.IsMinter(caller) {
		return fmt.Errorf("mint: %w: %s is not an authorized minter", ledgererrors.ErrUnauthorized, caller.Hex())
	}
	if amount.IsZero(amt) {
		return nil
	}
	if to == (common.Address{}) {
		return fmt.Errorf("mint: %w", ledgererrors.ErrZeroAddress)
	}
	supply, err := amount.Add(tx.ledger.totalSupply, amt)
	if err != nil {
		return err
	}
	if supply.Gt(MaxSupply) {
		return fmt.Errorf("%w: remaining %s, requested %s", ledgererrors.ErrSupplyCapExceeded,
			new(uint256.Int).Sub(MaxSupply, tx.ledger.totalSupply).Dec(), amt.Dec())
	}
	credited, err := amount.Add(tx.BalanceOf(to), amt)
	if err != nil {
		return err
	}
	tx.setSupply(supply)
	tx.setBalance(to, credited)
	tx.record(events.TokenTransfer{Token: tx.ledger.symbol, To: to, Amount: amount.Copy(amt)})
	tx.record(events.TokenMinted{Token: tx.ledger.symbol, Minter: caller, To: to, Amount: amount.Copy(amt)})
	tx.record(events.TokenSupply{Token: tx.ledger.symbol, Total: amount.Copy(supply), Delta: amount.Copy(amt), Reason: events.SupplyReasonMint})
	return nil
}

// Burn destroys amt tokens from the caller's own balance.
func (tx *Tx) Burn(caller common.Address, amt *uint256.Int) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if amount.IsZero(amt) {
		return nil
	}
	balance := tx.BalanceOf(caller)
	if balance.Lt(amt) {
		return fmt.Errorf("%w: have %s, need %s", ledgererrors.ErrInsufficientBalance, balance.Dec(), amt.Dec())
	}
	debited, err := amount.Sub(balance, amt)
	if err != nil {
		return err
	}
	supply, err := amount.Sub(tx.ledger.totalSupply, amt)
	if err != nil {
		return err
	}
	tx.setBalance(caller, debited)
	tx.setSupply(supply)
	tx.record(events.TokenTransfer{Token: tx.ledger.symbol, From: caller, Amount: amount.Copy(amt)})
	tx.record(events.TokenBurned{Token: tx.ledger.symbol, Account: caller, Amount: amount.Copy(amt)})
	tx.record(events.TokenSupply{Token: tx.ledger.symbol, Total: amount.Copy(supply), Delta: amount.Copy(amt), Reason: events.SupplyReasonBurn})
	return nil
}

// AddMinter grants mint authority. Granting an existing minter is a no-op.
func (tx *Tx) AddMinter(caller, account common.Address) error {
	if err := tx.onlyOwner(caller); err != nil {
		return err
	}
	if tx.IsMinter(account) {
		return nil
	}
	tx.ledger.minters[account] = struct{}{}
	tx.journal = append(tx.journal, func() { delete(tx.ledger.minters, account) })
	tx.record(events.MinterAdded{Token: tx.ledger.symbol, Account: account})
	return nil
}

// RemoveMinter revokes mint authority. Revoking a non-minter is a no-op.
func (tx *Tx) RemoveMinter(caller, account common.Address) error {
	if err := tx.onlyOwner(caller); err != nil {
		return err
	}
	if !tx.IsMinter(account) {
		return nil
	}
	delete(tx.ledger.minters, account)
	tx.journal = append(tx.journal, func() { tx.ledger.minters[account] = struct{}{} })
	tx.record(events.MinterRemoved{Token: tx.ledger.symbol, Account: account})
	return nil
}

// TransferOwnership hands minter administration to newOwner. Existing minter
// grants, including the previous owner's, are left untouched.
func (tx *Tx) TransferOwnership(caller, newOwner common.Address) error {
	if err := tx.onlyOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("transfer ownership: %w", ledgererrors.ErrZeroAddress)
	}
	previous := tx.ledger.owner
	tx.ledger.owner = newOwner
	tx.journal = append(tx.journal, func() { tx.ledger.owner = previous })
	tx.record(events.OwnershipTransferred{Token: tx.ledger.symbol, PreviousOwner: previous, NewOwner: newOwner})
	return nil
}

func (tx *Tx) mutable() error {
	if tx.closed {
		return errTxClosed
	}
	return nativecommon.Guard(tx.ledger.pauses, nativecommon.ModuleToken)
}

func (tx *Tx) onlyOwner(caller common.Address) error {
	if tx.closed {
		return errTxClosed
	}
	if caller != tx.ledger.owner {
		return fmt.Errorf("%w: caller is not the owner", ledgererrors.ErrUnauthorized)
	}
	return nil
}

func (tx *Tx) setBalance(addr common.Address, value *uint256.Int) {
	previous, existed := tx.ledger.balances[addr]
	tx.ledger.balances[addr] = value
	tx.journal = append(tx.journal, func() {
		if existed {
			tx.ledger.balances[addr] = previous
			return
		}
		delete(tx.ledger.balances, addr)
	})
}

func (tx *Tx) setSupply(value *uint256.Int) {
	previous := tx.ledger.totalSupply
	tx.ledger.totalSupply = value
	tx.journal = append(tx.journal, func() { tx.ledger.totalSupply = previous })
}

func (tx *Tx) record(evt events.Event) {
	tx.events = append(tx.events, evt)
}

func (tx *Tx) rollback() {
	for i := len(tx.journal) - 1; i >= 0; i-- {
		tx.journal[i]()
	}
	tx.journal = nil
	tx.events = nil
	tx.closed = true
}

func (tx *Tx) commit() []events.Event {
	pending := tx.events
	tx.journal = nil
	tx.events = nil
	tx.closed = true
	return pending
}

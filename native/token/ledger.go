package token

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	ledgererrors "norifarm/core/errors"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
)

// Ledger is a capped-supply fungible token with an owner-managed minter set.
// All mutations run under a single mutex and are applied atomically through
// Update.
type Ledger struct {
	mu          sync.Mutex
	name        string
	symbol      string
	owner       common.Address
	balances    map[common.Address]*uint256.Int
	minters     map[common.Address]struct{}
	totalSupply *uint256.Int
	emitter     events.Emitter
	pauses      nativecommon.PauseView
}

// NewLedger constructs a ledger, registers the owner as the first minter and
// allocates the initial supply to it.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("token ledger: owner: %w", ledgererrors.ErrZeroAddress)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultName
	}
	symbol := strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if symbol == "" {
		symbol = DefaultSymbol
	}
	initial := DefaultInitialSupply
	if cfg.InitialSupply != nil {
		initial = cfg.InitialSupply
	}
	if initial.Gt(MaxSupply) {
		return nil, fmt.Errorf("token ledger: initial supply: %w", ledgererrors.ErrSupplyCapExceeded)
	}
	l := &Ledger{
		name:        name,
		symbol:      symbol,
		owner:       cfg.Owner,
		balances:    make(map[common.Address]*uint256.Int),
		minters:     map[common.Address]struct{}{cfg.Owner: {}},
		totalSupply: amount.Zero(),
		emitter:     events.NoopEmitter{},
		pauses:      cfg.Pauses,
	}
	l.SetEmitter(cfg.Emitter)
	if !initial.IsZero() {
		if err := l.Mint(cfg.Owner, cfg.Owner, initial); err != nil {
			return nil, fmt.Errorf("token ledger: initial allocation: %w", err)
		}
	}
	return l, nil
}

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetPauses wires the pause view consulted before balance mutations.
func (l *Ledger) SetPauses(p nativecommon.PauseView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pauses = p
}

// Update runs fn against a journaled transaction while holding the ledger
// lock. If fn returns an error (or panics) every change it made is reverted
// and nothing is emitted. On success the buffered events are delivered in
// order after the lock is released. fn must not call back into l.
func (l *Ledger) Update(fn func(*Tx) error) error {
	deliver, err := l.Stage(fn)
	if err != nil {
		return err
	}
	deliver()
	return nil
}

// Stage commits fn like Update but returns the delivery of its events
// instead of performing it. Callers holding other locks invoke deliver once
// those are released.
func (l *Ledger) Stage(fn func(*Tx) error) (deliver func(), err error) {
	l.mu.Lock()
	tx := &Tx{ledger: l}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
			l.mu.Unlock()
		}
	}()
	if err := fn(tx); err != nil {
		return nil, err
	}
	pending := tx.commit()
	emitter := l.emitter
	committed = true
	l.mu.Unlock()
	return func() {
		for _, evt := range pending {
			emitter.Emit(evt)
		}
	}, nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amt *uint256.Int) error {
	return l.Update(func(tx *Tx) error { return tx.Transfer(from, to, amt) })
}

// Mint issues new supply. See Tx.Mint.
func (l *Ledger) Mint(caller, to common.Address, amt *uint256.Int) error {
	return l.Update(func(tx *Tx) error { return tx.Mint(caller, to, amt) })
}

// Burn destroys tokens from the caller's own balance.
func (l *Ledger) Burn(caller common.Address, amt *uint256.Int) error {
	return l.Update(func(tx *Tx) error { return tx.Burn(caller, amt) })
}

// AddMinter grants mint authority; owner only, idempotent.
func (l *Ledger) AddMinter(caller, account common.Address) error {
	return l.Update(func(tx *Tx) error { return tx.AddMinter(caller, account) })
}

// RemoveMinter revokes mint authority; owner only, idempotent.
func (l *Ledger) RemoveMinter(caller, account common.Address) error {
	return l.Update(func(tx *Tx) error { return tx.RemoveMinter(caller, account) })
}

// TransferOwnership hands the owner role to newOwner; owner only.
func (l *Ledger) TransferOwnership(caller, newOwner common.Address) error {
	return l.Update(func(tx *Tx) error { return tx.TransferOwnership(caller, newOwner) })
}

// Name returns the token's display name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the upper-cased ticker.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the number of fractional digits in a whole token.
func (l *Ledger) Decimals() uint8 { return Decimals }

// MaxSupply returns the issuance cap.
func (l *Ledger) MaxSupply() *uint256.Int { return amount.Copy(MaxSupply) }

// BalanceOf returns the balance of addr; unknown accounts read as zero.
func (l *Ledger) BalanceOf(addr common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return amount.Copy(l.balances[addr])
}

// TotalSupply returns the circulating supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return amount.Copy(l.totalSupply)
}

// RemainingSupply returns MaxSupply minus the circulating supply.
func (l *Ledger) RemainingSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(uint256.Int).Sub(MaxSupply, l.totalSupply)
}

// IsMinter reports whether addr may mint.
func (l *Ledger) IsMinter(addr common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.minters[addr]
	return ok
}

// Owner returns the account administering the minter set.
func (l *Ledger) Owner() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	balances := make(map[common.Address]*uint256.Int, len(l.balances))
	for addr, balance := range l.balances {
		balances[addr] = amount.Copy(balance)
	}
	minters := make([]common.Address, 0, len(l.minters))
	for addr := range l.minters {
		minters = append(minters, addr)
	}
	sort.Slice(minters, func(i, j int) bool {
		return bytes.Compare(minters[i][:], minters[j][:]) < 0
	})
	return Snapshot{
		Name:        l.name,
		Symbol:      l.symbol,
		Decimals:    Decimals,
		Owner:       l.owner,
		TotalSupply: amount.Copy(l.totalSupply),
		Balances:    balances,
		Minters:     minters,
	}
}

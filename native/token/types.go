package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
)

const (
	// DefaultName is the token name used when Config.Name is empty.
	DefaultName = "RewardToken"
	// DefaultSymbol is the ticker used when Config.Symbol is empty.
	DefaultSymbol = "RWT"
	// Decimals is the fixed number of fractional digits.
	Decimals uint8 = amount.Decimals
)

var (
	// MaxSupply caps total issuance at one million whole tokens.
	MaxSupply = amount.Tokens(1_000_000)
	// DefaultInitialSupply is allocated to the owner at construction.
	DefaultInitialSupply = amount.Tokens(100_000)
)

// Config describes a ledger at construction time.
type Config struct {
	Name   string
	Symbol string
	// Owner administers the minter set and is the first minter.
	Owner common.Address
	// InitialSupply is minted to Owner. Nil selects DefaultInitialSupply;
	// an explicit zero starts the ledger empty.
	InitialSupply *uint256.Int
	Emitter       events.Emitter
	Pauses        nativecommon.PauseView
}

// Snapshot is a detached copy of the full ledger state, suitable for handing
// to an external persistence layer.
type Snapshot struct {
	Name        string                          `json:"name"`
	Symbol      string                          `json:"symbol"`
	Decimals    uint8                           `json:"decimals"`
	Owner       common.Address                  `json:"owner"`
	TotalSupply *uint256.Int                    `json:"totalSupply"`
	Balances    map[common.Address]*uint256.Int `json:"balances"`
	Minters     []common.Address                `json:"minters"`
}

// Sum returns the total of every balance in the snapshot.
func (s Snapshot) Sum() *uint256.Int {
	total := amount.Zero()
	for _, balance := range s.Balances {
		total.Add(total, balance)
	}
	return total
}

package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/types"
)

const (
	// TypeTokenTransfer is emitted for every balance movement, including
	// mints (from the zero address) and burns (to the zero address).
	TypeTokenTransfer = "token.transfer"
	// TypeTokenMinted is emitted when a minter issues new supply.
	TypeTokenMinted = "token.minted"
	// TypeTokenBurned is emitted when an account destroys its own tokens.
	TypeTokenBurned = "token.burned"
	// TypeMinterAdded is emitted when the owner grants mint authority.
	TypeMinterAdded = "token.minterAdded"
	// TypeMinterRemoved is emitted when the owner revokes mint authority.
	TypeMinterRemoved = "token.minterRemoved"
	// TypeOwnershipTransferred is emitted when ledger ownership changes hands.
	TypeOwnershipTransferred = "token.ownershipTransferred"
)

// TokenTransfer captures a balance movement between two accounts.
type TokenTransfer struct {
	Token  string
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	attrs := map[string]string{
		"from":   formatAddress(e.From),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeTokenTransfer, Attributes: attrs}
}

// TokenMinted captures newly issued supply.
type TokenMinted struct {
	Token  string
	Minter common.Address
	To     common.Address
	Amount *uint256.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	attrs := map[string]string{
		"minter": formatAddress(e.Minter),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeTokenMinted, Attributes: attrs}
}

// TokenBurned captures supply destroyed by its holder.
type TokenBurned struct {
	Token   string
	Account common.Address
	Amount  *uint256.Int
}

func (TokenBurned) EventType() string { return TypeTokenBurned }

func (e TokenBurned) Event() *types.Event {
	attrs := map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeTokenBurned, Attributes: attrs}
}

// MinterAdded records a mint authority grant.
type MinterAdded struct {
	Token   string
	Account common.Address
}

func (MinterAdded) EventType() string { return TypeMinterAdded }

func (e MinterAdded) Event() *types.Event {
	attrs := map[string]string{"account": formatAddress(e.Account)}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeMinterAdded, Attributes: attrs}
}

// MinterRemoved records a mint authority revocation.
type MinterRemoved struct {
	Token   string
	Account common.Address
}

func (MinterRemoved) EventType() string { return TypeMinterRemoved }

func (e MinterRemoved) Event() *types.Event {
	attrs := map[string]string{"account": formatAddress(e.Account)}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeMinterRemoved, Attributes: attrs}
}

// OwnershipTransferred records a change of ledger owner.
type OwnershipTransferred struct {
	Token         string
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

func (e OwnershipTransferred) Event() *types.Event {
	attrs := map[string]string{
		"previousOwner": formatAddress(e.PreviousOwner),
		"newOwner":      formatAddress(e.NewOwner),
	}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeOwnershipTransferred, Attributes: attrs}
}

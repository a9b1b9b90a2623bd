package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/types"
)

const (
	// TypeStaked is emitted when an account locks tokens with the engine.
	TypeStaked = "stake.staked"
	// TypeUnstaked is emitted when an account withdraws staked principal.
	TypeUnstaked = "stake.unstaked"
	// TypeRewardsClaimed is emitted whenever accrued rewards are paid out.
	TypeRewardsClaimed = "stake.rewardsClaimed"
	// TypeEmergencyWithdrawn is emitted when the engine owner drains custody.
	TypeEmergencyWithdrawn = "stake.emergencyWithdrawn"
)

// Staked captures a stake deposit.
type Staked struct {
	Account common.Address
	Amount  *uint256.Int
	Total   *uint256.Int
	At      uint64
}

func (Staked) EventType() string { return TypeStaked }

func (e Staked) Event() *types.Event {
	attrs := map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}
	if e.Total != nil {
		attrs["staked"] = formatAmount(e.Total)
	}
	if e.At > 0 {
		attrs["timestamp"] = uintToString(e.At)
	}
	return &types.Event{Type: TypeStaked, Attributes: attrs}
}

// Unstaked captures a principal withdrawal.
type Unstaked struct {
	Account   common.Address
	Amount    *uint256.Int
	Remaining *uint256.Int
	At        uint64
}

func (Unstaked) EventType() string { return TypeUnstaked }

func (e Unstaked) Event() *types.Event {
	attrs := map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}
	if e.Remaining != nil {
		attrs["staked"] = formatAmount(e.Remaining)
	}
	if e.At > 0 {
		attrs["timestamp"] = uintToString(e.At)
	}
	return &types.Event{Type: TypeUnstaked, Attributes: attrs}
}

// RewardsClaimed captures a reward payout and how it was funded.
type RewardsClaimed struct {
	Account common.Address
	Amount  *uint256.Int
	Periods uint64
	Mode    string
}

func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	attrs := map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}
	if e.Periods > 0 {
		attrs["periods"] = uintToString(e.Periods)
	}
	if e.Mode != "" {
		attrs["mode"] = e.Mode
	}
	return &types.Event{Type: TypeRewardsClaimed, Attributes: attrs}
}

// EmergencyWithdrawn captures an owner escape-hatch withdrawal.
type EmergencyWithdrawn struct {
	Token  string
	Owner  common.Address
	Amount *uint256.Int
}

func (EmergencyWithdrawn) EventType() string { return TypeEmergencyWithdrawn }

func (e EmergencyWithdrawn) Event() *types.Event {
	attrs := map[string]string{
		"owner":  formatAddress(e.Owner),
		"amount": formatAmount(e.Amount),
	}
	if token := normalizeAsset(e.Token); token != "" {
		attrs["token"] = token
	}
	return &types.Event{Type: TypeEmergencyWithdrawn, Attributes: attrs}
}

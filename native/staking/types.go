package staking

import (
	"github.com/holiman/uint256"

	"norifarm/core/amount"
)

// StakeRecord is the per-account staking position. Records are created on
// first stake and zeroed, never deleted, on full unstake.
type StakeRecord struct {
	Amount         *uint256.Int `json:"amount"`
	StakeTimestamp uint64       `json:"stakeTimestamp"`
	LastClaimTime  uint64       `json:"lastClaimTime"`
}

// Clone returns a deep copy of the record.
func (r *StakeRecord) Clone() *StakeRecord {
	if r == nil {
		return &StakeRecord{Amount: amount.Zero()}
	}
	return &StakeRecord{
		Amount:         amount.Copy(r.Amount),
		StakeTimestamp: r.StakeTimestamp,
		LastClaimTime:  r.LastClaimTime,
	}
}

// Active reports whether the record currently holds stake.
func (r *StakeRecord) Active() bool {
	return r != nil && !amount.IsZero(r.Amount)
}

// StakeInfo is the composite per-account read model.
type StakeInfo struct {
	Amount         *uint256.Int `json:"amount"`
	StakeTimestamp uint64       `json:"stakeTimestamp"`
	LastClaimTime  uint64       `json:"lastClaimTime"`
	PendingRewards *uint256.Int `json:"pendingRewards"`
}

// Stats summarises engine-wide accounting.
type Stats struct {
	TotalStaked      *uint256.Int `json:"totalStaked"`
	TotalRewardsPaid *uint256.Int `json:"totalRewardsPaid"`
	// EngineBalance is the custody balance on the staking ledger.
	EngineBalance *uint256.Int `json:"engineBalance"`
}

// PayoutMode names how a reward claim was funded.
type PayoutMode string

const (
	// PayoutMint issues new supply to the claimant.
	PayoutMint PayoutMode = "mint"
	// PayoutTransfer pays from the custody reward balance.
	PayoutTransfer PayoutMode = "transfer"
)

package staking

import (
	"github.com/holiman/uint256"

	"norifarm/core/amount"
)

const (
	// RewardRateBps is the reward paid per accrual period, in basis points.
	RewardRateBps uint64 = 100
	// RatePrecision is the basis point denominator.
	RatePrecision uint64 = 10_000
	// AccrualPeriod is the accrual quantum in seconds.
	AccrualPeriod uint64 = 3600
	// APY is the published yearly figure reported by GetAPY. It is a fixed
	// value and is not derived from RewardRateBps.
	APY uint64 = 876
)

// ElapsedPeriods returns the number of whole accrual periods between
// lastClaim and now. A clock that appears to run backwards accrues nothing.
func ElapsedPeriods(lastClaim, now uint64) uint64 {
	if now <= lastClaim {
		return 0
	}
	return (now - lastClaim) / AccrualPeriod
}

// PendingReward computes amount * RewardRateBps * periods / RatePrecision,
// truncating. Sub-period time and sub-unit remainders are dropped.
func PendingReward(staked *uint256.Int, lastClaim, now uint64) (*uint256.Int, uint64, error) {
	periods := ElapsedPeriods(lastClaim, now)
	if amount.IsZero(staked) || periods == 0 {
		return amount.Zero(), periods, nil
	}
	scaled, err := amount.Mul(staked, uint256.NewInt(RewardRateBps))
	if err != nil {
		return nil, 0, err
	}
	scaled, err = amount.Mul(scaled, uint256.NewInt(periods))
	if err != nil {
		return nil, 0, err
	}
	return scaled.Div(scaled, uint256.NewInt(RatePrecision)), periods, nil
}

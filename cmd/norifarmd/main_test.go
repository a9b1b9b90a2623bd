package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"norifarm/config"
	"norifarm/core/amount"
	nativecommon "norifarm/native/common"
)

func TestBuildNodeReferenceDeployment(t *testing.T) {
	cfg := config.Default()
	n, err := buildNode(cfg)
	require.NoError(t, err)

	owner, custody := cfg.TokenOwner(), cfg.StakingCustody()
	require.Equal(t, amount.Tokens(100_000), n.ledger.BalanceOf(owner))
	require.Equal(t, amount.Tokens(10_000), n.ledger.BalanceOf(custody))
	require.True(t, n.ledger.IsMinter(custody))
	require.Same(t, n.ledger, n.rewards)
	require.Equal(t, n.engine.StakingLedger(), n.engine.RewardsLedger())
	require.Positive(t, n.journal.Len())

	require.NoError(t, n.ledger.Transfer(owner, custody, amount.Tokens(1)))
	stats, err := n.engine.GetContractStats()
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(10_001), stats.EngineBalance)
}

func TestBuildNodeSeparateRewardToken(t *testing.T) {
	cfg := config.Default()
	cfg.Staking.SeparateRewardToken = true
	cfg.Staking.RewardSymbol = "YLD"
	cfg.Staking.CustodyMints = false
	cfg.Pauses.Staking = true

	n, err := buildNode(cfg)
	require.NoError(t, err)
	require.NotSame(t, n.ledger, n.rewards)
	require.Equal(t, "YLD", n.rewards.Symbol())
	require.Equal(t, amount.Tokens(10_000), n.rewards.TotalSupply())
	require.True(t, n.ledger.BalanceOf(cfg.StakingCustody()).IsZero())
	require.True(t, n.pauses.IsPaused(nativecommon.ModuleStaking))

	err = n.engine.Stake(cfg.TokenOwner(), amount.Tokens(1), 1)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}

package main

import (
	"fmt"

	"norifarm/config"
	"norifarm/core/amount"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
	"norifarm/native/staking"
	"norifarm/native/token"
)

// node bundles the ledgers and engine built from configuration.
type node struct {
	ledger  *token.Ledger
	rewards *token.Ledger
	engine  *staking.Engine
	journal *events.Journal
	pauses  *nativecommon.Pauses
}

// buildNode reproduces the reference deployment: the token allocates its
// initial supply to the owner, the engine is optionally granted mint
// authority, and the reward pool is minted into custody.
func buildNode(cfg *config.Config, extra ...events.Emitter) (*node, error) {
	n := &node{
		journal: events.NewJournal(cfg.RPC.EventBuffer),
		pauses:  cfg.Pauses.View(),
	}
	emitter := append(events.Fanout{n.journal}, extra...)
	owner := cfg.TokenOwner()

	ledger, err := token.NewLedger(token.Config{
		Name:          cfg.Token.Name,
		Symbol:        cfg.Token.Symbol,
		Owner:         owner,
		InitialSupply: cfg.InitialSupply(),
		Emitter:       emitter,
		Pauses:        n.pauses,
	})
	if err != nil {
		return nil, fmt.Errorf("token ledger: %w", err)
	}
	n.ledger = ledger
	n.rewards = ledger

	engineCfg := staking.Config{
		StakingLedger: staking.TokenLedger(ledger),
		Custody:       cfg.StakingCustody(),
		Owner:         cfg.StakingOwner(),
		Emitter:       emitter,
		Pauses:        n.pauses,
	}
	if cfg.Staking.SeparateRewardToken {
		rewards, err := token.NewLedger(token.Config{
			Name:          cfg.Staking.RewardName,
			Symbol:        cfg.Staking.RewardSymbol,
			Owner:         owner,
			InitialSupply: amount.Zero(),
			Emitter:       emitter,
			Pauses:        n.pauses,
		})
		if err != nil {
			return nil, fmt.Errorf("reward ledger: %w", err)
		}
		n.rewards = rewards
		engineCfg.RewardsLedger = staking.TokenLedger(rewards)
	}
	engine, err := staking.NewEngine(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("staking engine: %w", err)
	}
	n.engine = engine

	if cfg.Staking.CustodyMints {
		if err := n.rewards.AddMinter(owner, engine.Custody()); err != nil {
			return nil, fmt.Errorf("grant custody mint authority: %w", err)
		}
	}
	if pool := cfg.RewardPool(); !pool.IsZero() {
		if err := n.rewards.Mint(owner, engine.Custody(), pool); err != nil {
			return nil, fmt.Errorf("fund reward pool: %w", err)
		}
	}
	return n, nil
}

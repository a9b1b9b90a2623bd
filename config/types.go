package config

import (
	nativecommon "norifarm/native/common"
)

// TokenConfig describes the staking asset ledger.
type TokenConfig struct {
	Name   string `toml:"Name"`
	Symbol string `toml:"Symbol"`
	Owner  string `toml:"Owner"`
	// InitialSupply is a decimal token amount allocated to Owner, e.g. "100000".
	InitialSupply string `toml:"InitialSupply"`
}

// StakingConfig wires the staking engine.
type StakingConfig struct {
	Custody string `toml:"Custody"`
	Owner   string `toml:"Owner"`
	// CustodyMints adds custody to the minter set so rewards are minted.
	CustodyMints bool `toml:"CustodyMints"`
	// RewardPool is minted to custody at startup as a decimal token amount.
	RewardPool string `toml:"RewardPool"`
	// SeparateRewardToken pays rewards from a second ledger named RewardSymbol.
	SeparateRewardToken bool   `toml:"SeparateRewardToken"`
	RewardName          string `toml:"RewardName,omitempty"`
	RewardSymbol        string `toml:"RewardSymbol,omitempty"`
}

// Pauses holds the initial pause switches per module.
type Pauses struct {
	Token   bool `toml:"Token"`
	Staking bool `toml:"Staking"`
}

// View returns a mutable pause set seeded from the configured switches.
func (p Pauses) View() *nativecommon.Pauses {
	view := nativecommon.NewPauses()
	view.Set(nativecommon.ModuleToken, p.Token)
	view.Set(nativecommon.ModuleStaking, p.Staking)
	return view
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// RPCConfig controls the HTTP surface.
type RPCConfig struct {
	// AdminToken, when set, must be presented as a bearer token on mutations.
	AdminToken        string `toml:"AdminToken"`
	ReadHeaderTimeout int    `toml:"ReadHeaderTimeout"`
	EventBuffer       int    `toml:"EventBuffer"`
}

package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
)

// Validate rejects malformed addresses and amounts.
func (c *Config) Validate() error {
	if _, err := parseAddress("token.Owner", c.Token.Owner); err != nil {
		return err
	}
	if _, err := parseAmount("token.InitialSupply", c.Token.InitialSupply); err != nil {
		return err
	}
	if _, err := parseAddress("staking.Custody", c.Staking.Custody); err != nil {
		return err
	}
	if _, err := parseAddress("staking.Owner", c.Staking.Owner); err != nil {
		return err
	}
	if _, err := parseAmount("staking.RewardPool", c.Staking.RewardPool); err != nil {
		return err
	}
	if c.Staking.SeparateRewardToken && c.Staking.RewardSymbol == "" {
		return fmt.Errorf("staking.RewardSymbol required when SeparateRewardToken is set")
	}
	if c.Staking.SeparateRewardToken && c.Staking.RewardSymbol == c.Token.Symbol {
		return fmt.Errorf("staking.RewardSymbol must differ from token.Symbol")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	return nil
}

// TokenOwner returns the parsed token owner address.
func (c *Config) TokenOwner() common.Address {
	addr, _ := parseAddress("", c.Token.Owner)
	return addr
}

// StakingCustody returns the parsed custody address.
func (c *Config) StakingCustody() common.Address {
	addr, _ := parseAddress("", c.Staking.Custody)
	return addr
}

// StakingOwner returns the parsed staking owner address.
func (c *Config) StakingOwner() common.Address {
	addr, _ := parseAddress("", c.Staking.Owner)
	return addr
}

// InitialSupply returns the owner allocation in smallest units.
func (c *Config) InitialSupply() *uint256.Int {
	v, _ := parseAmount("", c.Token.InitialSupply)
	return v
}

// RewardPool returns the custody pre-fund in smallest units.
func (c *Config) RewardPool() *uint256.Int {
	v, _ := parseAmount("", c.Staking.RewardPool)
	return v
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid %s %q: expected 0x-prefixed hex address", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("invalid %s: zero address", field)
	}
	return addr, nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return amount.Zero(), nil
	}
	v, err := amount.ParseUnits(trimmed, amount.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return v, nil
}

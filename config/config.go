package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultListenAddress = ":8645"
	defaultEnvironment   = "dev"
	// Development accounts used when a fresh config file is generated.
	defaultOwner   = "0x00000000000000000000000000000000000000A1"
	defaultCustody = "0x00000000000000000000000000000000000000E5"
)

type Config struct {
	ListenAddress string        `toml:"ListenAddress"`
	Environment   string        `toml:"Environment"`
	Token         TokenConfig   `toml:"token"`
	Staking       StakingConfig `toml:"staking"`
	Pauses        Pauses        `toml:"pauses"`
	Log           LogConfig     `toml:"log"`
	RPC           RPCConfig     `toml:"rpc"`
}

// Load loads the configuration from the given path. A missing file is
// created with development defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the development configuration mirroring the reference
// deployment: a 100k owner allocation and a 10k reward pool in custody.
func Default() *Config {
	return &Config{
		ListenAddress: defaultListenAddress,
		Environment:   defaultEnvironment,
		Token: TokenConfig{
			Name:          "RewardToken",
			Symbol:        "RWT",
			Owner:         defaultOwner,
			InitialSupply: "100000",
		},
		Staking: StakingConfig{
			Custody:      defaultCustody,
			Owner:        defaultOwner,
			CustodyMints: true,
			RewardPool:   "10000",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		RPC: RPCConfig{
			ReadHeaderTimeout: 5,
			EventBuffer:       1024,
		},
	}
}

func (c *Config) normalize() {
	c.ListenAddress = strings.TrimSpace(c.ListenAddress)
	if c.ListenAddress == "" {
		c.ListenAddress = defaultListenAddress
	}
	c.Environment = strings.TrimSpace(c.Environment)
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	c.Token.Symbol = strings.ToUpper(strings.TrimSpace(c.Token.Symbol))
	c.Staking.RewardSymbol = strings.ToUpper(strings.TrimSpace(c.Staking.RewardSymbol))
	if strings.TrimSpace(c.Staking.Owner) == "" {
		c.Staking.Owner = c.Token.Owner
	}
	if c.RPC.EventBuffer <= 0 {
		c.RPC.EventBuffer = 1024
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Package scenario replays YAML scripts of token and staking operations
// against a fresh ledger and engine with a simulated clock.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"norifarm/core/amount"
)

// Step operations.
const (
	OpTransfer     = "transfer"
	OpMint         = "mint"
	OpBurn         = "burn"
	OpAddMinter    = "addMinter"
	OpRemoveMinter = "removeMinter"
	OpStake        = "stake"
	OpUnstake      = "unstake"
	OpClaim        = "claim"
	OpAdvance      = "advance"
	OpExpect       = "expect"
)

// Scenario is a parsed script.
type Scenario struct {
	Name  string
	Start uint64
	// Accounts maps script names to addresses.
	Accounts map[string]common.Address
	Token    TokenSetup
	Staking  StakingSetup
	Steps    []Step
}

// TokenSetup configures the ledger created before the first step.
type TokenSetup struct {
	Name          string
	Symbol        string
	Owner         common.Address
	InitialSupply *uint256.Int
}

// StakingSetup configures the engine created before the first step.
type StakingSetup struct {
	Custody common.Address
	Owner   common.Address
}

// Step is one scripted operation. Error, when set, names the failure reason
// the step must produce, e.g. "insufficient_stake".
type Step struct {
	Line    int
	Op      string
	From    common.Address
	To      common.Address
	Account common.Address
	Amount  *uint256.Int
	Seconds uint64
	Error   string
	Expect  *Expectation
}

// Expectation lists state assertions checked by an expect step. Amounts are
// compared exactly in smallest units.
type Expectation struct {
	Balances         map[common.Address]*uint256.Int
	Staked           map[common.Address]*uint256.Int
	Pending          map[common.Address]*uint256.Int
	Minters          map[common.Address]bool
	TotalSupply      *uint256.Int
	TotalStaked      *uint256.Int
	TotalRewardsPaid *uint256.Int
	EngineBalance    *uint256.Int
}

type fileScenario struct {
	Name     string            `yaml:"name"`
	Start    uint64            `yaml:"start"`
	Accounts map[string]string `yaml:"accounts"`
	Token    struct {
		Name          string  `yaml:"name"`
		Symbol        string  `yaml:"symbol"`
		Owner         string  `yaml:"owner"`
		InitialSupply *string `yaml:"initialSupply"`
	} `yaml:"token"`
	Staking struct {
		Custody string `yaml:"custody"`
		Owner   string `yaml:"owner"`
	} `yaml:"staking"`
	Steps []yaml.Node `yaml:"steps"`
}

type fileStep struct {
	Op      string     `yaml:"op"`
	From    string     `yaml:"from"`
	To      string     `yaml:"to"`
	Account string     `yaml:"account"`
	Amount  string     `yaml:"amount"`
	Seconds uint64     `yaml:"seconds"`
	Error   string     `yaml:"error"`
	Expect  fileExpect `yaml:",inline"`
}

type fileExpect struct {
	Balances         map[string]string `yaml:"balances"`
	Staked           map[string]string `yaml:"staked"`
	Pending          map[string]string `yaml:"pending"`
	Minters          map[string]bool   `yaml:"minters"`
	TotalSupply      string            `yaml:"totalSupply"`
	TotalStaked      string            `yaml:"totalStaked"`
	TotalRewardsPaid string            `yaml:"totalRewardsPaid"`
	EngineBalance    string            `yaml:"engineBalance"`
}

// Load reads a scenario from the provided YAML file on disk.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario. Amounts are decimal token strings and
// account references are either names declared under accounts or hex
// addresses.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw fileScenario
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	p := &parser{accounts: make(map[string]common.Address, len(raw.Accounts))}
	for name, hex := range raw.Accounts {
		if !common.IsHexAddress(strings.TrimSpace(hex)) {
			return nil, fmt.Errorf("account %s: invalid address %q", name, hex)
		}
		p.accounts[strings.ToLower(strings.TrimSpace(name))] = common.HexToAddress(strings.TrimSpace(hex))
	}

	sc := &Scenario{Name: strings.TrimSpace(raw.Name), Start: raw.Start, Accounts: p.accounts}
	sc.Token.Name = raw.Token.Name
	sc.Token.Symbol = raw.Token.Symbol
	sc.Token.Owner = p.address("token.owner", raw.Token.Owner)
	if raw.Token.InitialSupply != nil {
		sc.Token.InitialSupply = p.amount("token.initialSupply", *raw.Token.InitialSupply)
	}
	sc.Staking.Custody = p.address("staking.custody", raw.Staking.Custody)
	sc.Staking.Owner = sc.Token.Owner
	if strings.TrimSpace(raw.Staking.Owner) != "" {
		sc.Staking.Owner = p.address("staking.owner", raw.Staking.Owner)
	}
	if p.err != nil {
		return nil, p.err
	}

	for i := range raw.Steps {
		node := &raw.Steps[i]
		var fs fileStep
		if err := node.Decode(&fs); err != nil {
			return nil, fmt.Errorf("step %d (line %d): %w", i+1, node.Line, err)
		}
		step, err := p.step(fs)
		if err != nil {
			return nil, fmt.Errorf("step %d (line %d): %w", i+1, node.Line, err)
		}
		step.Line = node.Line
		sc.Steps = append(sc.Steps, step)
	}
	return sc, nil
}

type parser struct {
	accounts map[string]common.Address
	err      error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) address(field, ref string) common.Address {
	trimmed := strings.TrimSpace(ref)
	if addr, ok := p.accounts[strings.ToLower(trimmed)]; ok {
		return addr
	}
	if common.IsHexAddress(trimmed) {
		return common.HexToAddress(trimmed)
	}
	p.fail(fmt.Errorf("%s: unknown account %q", field, ref))
	return common.Address{}
}

func (p *parser) amount(field, value string) *uint256.Int {
	v, err := amount.ParseUnits(value, amount.Decimals)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", field, err))
		return nil
	}
	return v
}

func (p *parser) optionalAmount(field, value string) *uint256.Int {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return p.amount(field, value)
}

func (p *parser) amounts(field string, values map[string]string) map[common.Address]*uint256.Int {
	if len(values) == 0 {
		return nil
	}
	out := make(map[common.Address]*uint256.Int, len(values))
	for ref, value := range values {
		out[p.address(field, ref)] = p.amount(field+"."+ref, value)
	}
	return out
}

func (p *parser) step(fs fileStep) (Step, error) {
	p.err = nil
	step := Step{Op: strings.TrimSpace(fs.Op), Error: strings.TrimSpace(fs.Error)}
	switch step.Op {
	case OpTransfer, OpMint:
		step.From = p.address("from", fs.From)
		step.To = p.address("to", fs.To)
		step.Amount = p.amount("amount", fs.Amount)
	case OpBurn, OpStake, OpUnstake:
		step.From = p.address("from", fs.From)
		step.Amount = p.amount("amount", fs.Amount)
	case OpAddMinter, OpRemoveMinter:
		step.From = p.address("from", fs.From)
		step.Account = p.address("account", fs.Account)
	case OpClaim:
		step.From = p.address("from", fs.From)
	case OpAdvance:
		if fs.Seconds == 0 {
			return step, fmt.Errorf("advance requires seconds")
		}
		step.Seconds = fs.Seconds
	case OpExpect:
		e := fs.Expect
		exp := &Expectation{
			Balances:         p.amounts("balances", e.Balances),
			Staked:           p.amounts("staked", e.Staked),
			Pending:          p.amounts("pending", e.Pending),
			TotalSupply:      p.optionalAmount("totalSupply", e.TotalSupply),
			TotalStaked:      p.optionalAmount("totalStaked", e.TotalStaked),
			TotalRewardsPaid: p.optionalAmount("totalRewardsPaid", e.TotalRewardsPaid),
			EngineBalance:    p.optionalAmount("engineBalance", e.EngineBalance),
		}
		if len(e.Minters) > 0 {
			exp.Minters = make(map[common.Address]bool, len(e.Minters))
			for ref, want := range e.Minters {
				exp.Minters[p.address("minters", ref)] = want
			}
		}
		step.Expect = exp
	default:
		return step, fmt.Errorf("unknown op %q", fs.Op)
	}
	return step, p.err
}

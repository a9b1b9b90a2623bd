package scenario

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	"norifarm/core/events"
	"norifarm/native/staking"
	"norifarm/native/token"
	"norifarm/observability/metrics"
)

// Result is the state left behind by a replay.
type Result struct {
	Ledger  *token.Ledger
	Engine  *staking.Engine
	Journal *events.Journal
	Now     uint64
}

// StepError reports the first step that failed or whose expectation did
// not hold.
type StepError struct {
	Index int
	Line  int
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s, line %d): %v", e.Index+1, e.Op, e.Line, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run replays sc against a fresh ledger and engine. Extra emitters receive
// every event alongside the result journal.
func Run(sc *Scenario, logger *slog.Logger, emitters ...events.Emitter) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	journal := events.NewJournal(0)
	fanout := append(events.Fanout{journal}, emitters...)

	ledger, err := token.NewLedger(token.Config{
		Name:          sc.Token.Name,
		Symbol:        sc.Token.Symbol,
		Owner:         sc.Token.Owner,
		InitialSupply: sc.Token.InitialSupply,
		Emitter:       fanout,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	engine, err := staking.NewEngine(staking.Config{
		StakingLedger: staking.TokenLedger(ledger),
		Custody:       sc.Staking.Custody,
		Owner:         sc.Staking.Owner,
		Emitter:       fanout,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{Ledger: ledger, Engine: engine, Journal: journal, Now: sc.Start}
	for i, step := range sc.Steps {
		err := res.apply(step)
		if step.Error != "" {
			reason := metrics.ReasonFor(err)
			if reason != step.Error {
				return res, &StepError{Index: i, Line: step.Line, Op: step.Op, Err: fmt.Errorf("expected failure %q, got %q (%v)", step.Error, reason, err)}
			}
			logger.Debug("scenario step rejected as expected", "op", step.Op, "reason", reason)
			continue
		}
		if err != nil {
			return res, &StepError{Index: i, Line: step.Line, Op: step.Op, Err: err}
		}
		logger.Debug("scenario step applied", "op", step.Op, "now", res.Now)
	}
	return res, nil
}

func (r *Result) apply(step Step) error {
	switch step.Op {
	case OpTransfer:
		return r.Ledger.Transfer(step.From, step.To, step.Amount)
	case OpMint:
		return r.Ledger.Mint(step.From, step.To, step.Amount)
	case OpBurn:
		return r.Ledger.Burn(step.From, step.Amount)
	case OpAddMinter:
		return r.Ledger.AddMinter(step.From, step.Account)
	case OpRemoveMinter:
		return r.Ledger.RemoveMinter(step.From, step.Account)
	case OpStake:
		return r.Engine.Stake(step.From, step.Amount, r.Now)
	case OpUnstake:
		return r.Engine.Unstake(step.From, step.Amount, r.Now)
	case OpClaim:
		_, err := r.Engine.ClaimRewards(step.From, r.Now)
		return err
	case OpAdvance:
		r.Now += step.Seconds
		return nil
	case OpExpect:
		return r.check(step.Expect)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (r *Result) check(exp *Expectation) error {
	if exp == nil {
		return nil
	}
	for _, addr := range sortedKeys(exp.Balances) {
		if err := compare("balance of "+addr.Hex(), exp.Balances[addr], r.Ledger.BalanceOf(addr)); err != nil {
			return err
		}
	}
	for _, addr := range sortedKeys(exp.Staked) {
		info, err := r.Engine.GetStakeInfo(addr, r.Now)
		if err != nil {
			return err
		}
		if err := compare("stake of "+addr.Hex(), exp.Staked[addr], info.Amount); err != nil {
			return err
		}
	}
	for _, addr := range sortedKeys(exp.Pending) {
		pending, err := r.Engine.CalculateRewards(addr, r.Now)
		if err != nil {
			return err
		}
		if err := compare("pending rewards of "+addr.Hex(), exp.Pending[addr], pending); err != nil {
			return err
		}
	}
	for addr, want := range exp.Minters {
		if got := r.Ledger.IsMinter(addr); got != want {
			return fmt.Errorf("minter %s: want %t, got %t", addr.Hex(), want, got)
		}
	}
	stats, err := r.Engine.GetContractStats()
	if err != nil {
		return err
	}
	checks := []struct {
		name      string
		want, got *uint256.Int
	}{
		{"total supply", exp.TotalSupply, r.Ledger.TotalSupply()},
		{"total staked", exp.TotalStaked, stats.TotalStaked},
		{"total rewards paid", exp.TotalRewardsPaid, stats.TotalRewardsPaid},
		{"engine balance", exp.EngineBalance, stats.EngineBalance},
	}
	for _, c := range checks {
		if c.want == nil {
			continue
		}
		if err := compare(c.name, c.want, c.got); err != nil {
			return err
		}
	}
	return nil
}

func compare(what string, want, got *uint256.Int) error {
	if want.Eq(got) {
		return nil
	}
	return fmt.Errorf("%s: want %s, got %s", what,
		amount.FormatUnits(want, amount.Decimals), amount.FormatUnits(got, amount.Decimals))
}

func sortedKeys(m map[common.Address]*uint256.Int) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for addr := range m {
		keys = append(keys, addr)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// Report is a printable summary of a replay.
type Report struct {
	Name             string            `json:"name"`
	Now              uint64            `json:"now"`
	TotalSupply      string            `json:"totalSupply"`
	TotalStaked      string            `json:"totalStaked"`
	TotalRewardsPaid string            `json:"totalRewardsPaid"`
	EngineBalance    string            `json:"engineBalance"`
	Balances         map[string]string `json:"balances"`
	Stakes           map[string]string `json:"stakes"`
	Events           int               `json:"events"`
}

// Report summarises the final state, labelling accounts with their script
// names where known.
func (r *Result) Report(sc *Scenario) (Report, error) {
	names := make(map[common.Address]string, len(sc.Accounts))
	for name, addr := range sc.Accounts {
		names[addr] = name
	}
	label := func(addr common.Address) string {
		if name, ok := names[addr]; ok {
			return name
		}
		return addr.Hex()
	}
	stats, err := r.Engine.GetContractStats()
	if err != nil {
		return Report{}, err
	}
	rep := Report{
		Name:             sc.Name,
		Now:              r.Now,
		TotalSupply:      amount.FormatUnits(r.Ledger.TotalSupply(), amount.Decimals),
		TotalStaked:      amount.FormatUnits(stats.TotalStaked, amount.Decimals),
		TotalRewardsPaid: amount.FormatUnits(stats.TotalRewardsPaid, amount.Decimals),
		EngineBalance:    amount.FormatUnits(stats.EngineBalance, amount.Decimals),
		Balances:         make(map[string]string),
		Stakes:           make(map[string]string),
		Events:           r.Journal.Len(),
	}
	for addr, balance := range r.Ledger.Snapshot().Balances {
		rep.Balances[label(addr)] = amount.FormatUnits(balance, amount.Decimals)
	}
	for addr, rec := range r.Engine.Records() {
		rep.Stakes[label(addr)] = amount.FormatUnits(rec.Amount, amount.Decimals)
	}
	return rep, nil
}

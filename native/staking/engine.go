package staking

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	ledgererrors "norifarm/core/errors"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
)

var errNilLedger = errors.New("staking engine: staking ledger not configured")

// Config wires an engine to its ledgers and privileged accounts.
type Config struct {
	// StakingLedger holds the staked asset.
	StakingLedger Ledger
	// RewardsLedger holds the reward asset; nil means the staking ledger.
	RewardsLedger Ledger
	// Custody is the account holding staked principal and reward funds.
	Custody common.Address
	// Owner may call EmergencyWithdraw.
	Owner   common.Address
	Emitter events.Emitter
	Pauses  nativecommon.PauseView
}

// Engine locks ledger balance as stake and accrues linear, time-proportional
// rewards. Every value movement goes through the configured ledgers.
//
// Each operation is atomic. Locks are taken in a fixed order: staking ledger,
// then the rewards ledger when distinct, then the engine mutex. Engine state
// is staged on a session and committed only after every ledger step
// succeeded, so a failed operation leaves no trace anywhere.
type Engine struct {
	mu               sync.Mutex
	stakingLedger    Ledger
	rewardsLedger    Ledger
	sameAsset        bool
	custody          common.Address
	owner            common.Address
	records          map[common.Address]*StakeRecord
	totalStaked      *uint256.Int
	totalRewardsPaid *uint256.Int
	emitter          events.Emitter
	pauses           nativecommon.PauseView
}

// NewEngine constructs a staking engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StakingLedger == nil {
		return nil, errNilLedger
	}
	if cfg.Custody == (common.Address{}) {
		return nil, fmt.Errorf("staking engine: custody: %w", ledgererrors.ErrZeroAddress)
	}
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("staking engine: owner: %w", ledgererrors.ErrZeroAddress)
	}
	rewards, sameAsset := cfg.StakingLedger, true
	if cfg.RewardsLedger != nil {
		same, err := sameLedger(cfg.StakingLedger, cfg.RewardsLedger)
		if err != nil {
			return nil, err
		}
		rewards, sameAsset = cfg.RewardsLedger, same
	}
	e := &Engine{
		stakingLedger:    cfg.StakingLedger,
		rewardsLedger:    rewards,
		sameAsset:        sameAsset,
		custody:          cfg.Custody,
		owner:            cfg.Owner,
		records:          make(map[common.Address]*StakeRecord),
		totalStaked:      amount.Zero(),
		totalRewardsPaid: amount.Zero(),
		emitter:          events.NoopEmitter{},
		pauses:           cfg.Pauses,
	}
	e.SetEmitter(cfg.Emitter)
	return e, nil
}

// sameLedger reports whether a and b are the same ledger. Values of a
// non-comparable type cannot be told apart and are rejected.
func sameLedger(a, b Ledger) (bool, error) {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false, nil
	}
	if !ta.Comparable() {
		return false, fmt.Errorf("staking engine: ledger type %s is not comparable", ta)
	}
	return a == b, nil
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the pause view consulted before stake mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses = p
}

// Custody returns the account holding staked funds.
func (e *Engine) Custody() common.Address { return e.custody }

// Owner returns the account allowed to emergency withdraw.
func (e *Engine) Owner() common.Address { return e.owner }

// StakingLedger returns the ledger of the staked asset.
func (e *Engine) StakingLedger() Ledger { return e.stakingLedger }

// RewardsLedger returns the ledger rewards are paid from.
func (e *Engine) RewardsLedger() Ledger { return e.rewardsLedger }

// Stake locks amt of the account's balance and restarts its accrual clock.
// Rewards already accrued on an existing stake are paid out first so a larger
// principal never applies retroactively.
func (e *Engine) Stake(account common.Address, amt *uint256.Int, now uint64) error {
	if amount.IsZero(amt) {
		return fmt.Errorf("stake: %w", ledgererrors.ErrZeroAmount)
	}
	return e.run(now, func(s *session) error {
		rec := s.record(account)
		if rec.Active() {
			if _, err := s.claim(account); err != nil {
				return err
			}
		}
		if err := s.staking.Transfer(account, e.custody, amt); err != nil {
			return err
		}
		staked, err := amount.Add(rec.Amount, amt)
		if err != nil {
			return err
		}
		total, err := amount.Add(s.totalStaked, amt)
		if err != nil {
			return err
		}
		rec.Amount = staked
		rec.StakeTimestamp = now
		rec.LastClaimTime = now
		s.totalStaked = total
		s.emit(events.Staked{Account: account, Amount: amount.Copy(amt), Total: amount.Copy(staked), At: now})
		return nil
	})
}

// Unstake settles all pending rewards and returns amt of principal.
func (e *Engine) Unstake(account common.Address, amt *uint256.Int, now uint64) error {
	if amount.IsZero(amt) {
		return fmt.Errorf("unstake: %w", ledgererrors.ErrZeroAmount)
	}
	return e.run(now, func(s *session) error {
		rec := s.record(account)
		if rec.Amount.Lt(amt) {
			return fmt.Errorf("%w: staked %s, requested %s", ledgererrors.ErrInsufficientStake, rec.Amount.Dec(), amt.Dec())
		}
		if _, err := s.claim(account); err != nil {
			return err
		}
		remaining, err := amount.Sub(rec.Amount, amt)
		if err != nil {
			return err
		}
		total, err := amount.Sub(s.totalStaked, amt)
		if err != nil {
			return err
		}
		rec.Amount = remaining
		s.totalStaked = total
		if err := s.staking.Transfer(e.custody, account, amt); err != nil {
			return err
		}
		s.emit(events.Unstaked{Account: account, Amount: amount.Copy(amt), Remaining: amount.Copy(remaining), At: now})
		return nil
	})
}

// ClaimRewards pays out pending rewards and returns the amount paid, which is
// zero when no whole period has elapsed.
func (e *Engine) ClaimRewards(account common.Address, now uint64) (*uint256.Int, error) {
	var paid *uint256.Int
	err := e.run(now, func(s *session) error {
		reward, err := s.claim(account)
		if err != nil {
			return err
		}
		paid = reward
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// EmergencyWithdraw moves amt of ledger's asset from custody to the owner,
// bypassing stake accounting entirely. It exists for fault recovery only:
// used against the staking asset it can leave custody holding less than
// TotalStaked, after which unstakes fail with an insufficient balance.
func (e *Engine) EmergencyWithdraw(caller common.Address, ledger Ledger, amt *uint256.Int) error {
	if caller != e.owner {
		return fmt.Errorf("emergency withdraw: %w: caller is not the owner", ledgererrors.ErrUnauthorized)
	}
	if ledger == nil {
		return errNilLedger
	}
	if amount.IsZero(amt) {
		return fmt.Errorf("emergency withdraw: %w", ledgererrors.ErrZeroAmount)
	}
	deliver, err := ledger.Stage(func(tx LedgerTx) error {
		return tx.Transfer(e.custody, e.owner, amt)
	})
	if err != nil {
		return err
	}
	deliver()
	e.emitEvents([]events.Event{events.EmergencyWithdrawn{Token: ledger.Symbol(), Owner: e.owner, Amount: amount.Copy(amt)}})
	return nil
}

// CalculateRewards returns the reward claimable at now without mutating
// anything. Accounts without stake read as zero.
func (e *Engine) CalculateRewards(account common.Address, now uint64) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[account]
	if !ok {
		return amount.Zero(), nil
	}
	reward, _, err := PendingReward(rec.Amount, rec.LastClaimTime, now)
	return reward, err
}

// GetStakeInfo returns the account's position and pending rewards at now.
func (e *Engine) GetStakeInfo(account common.Address, now uint64) (StakeInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.records[account].Clone()
	reward, _, err := PendingReward(rec.Amount, rec.LastClaimTime, now)
	if err != nil {
		return StakeInfo{}, err
	}
	return StakeInfo{
		Amount:         rec.Amount,
		StakeTimestamp: rec.StakeTimestamp,
		LastClaimTime:  rec.LastClaimTime,
		PendingRewards: reward,
	}, nil
}

// GetContractStats returns engine-wide totals together with the custody
// balance, read as one consistent view.
func (e *Engine) GetContractStats() (Stats, error) {
	var stats Stats
	deliver, err := e.stakingLedger.Stage(func(tx LedgerTx) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		stats = Stats{
			TotalStaked:      amount.Copy(e.totalStaked),
			TotalRewardsPaid: amount.Copy(e.totalRewardsPaid),
			EngineBalance:    tx.BalanceOf(e.custody),
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("contract stats: %w", err)
	}
	deliver()
	return stats, nil
}

// GetAPY returns the fixed published yearly percentage, 876.
func (e *Engine) GetAPY() uint64 { return APY }

// TotalStaked returns the sum of all staked principal.
func (e *Engine) TotalStaked() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return amount.Copy(e.totalStaked)
}

// Records returns a deep copy of every stake record, keyed by account.
func (e *Engine) Records() map[common.Address]*StakeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[common.Address]*StakeRecord, len(e.records))
	for addr, rec := range e.records {
		out[addr] = rec.Clone()
	}
	return out
}

// Accounts returns every account with a stake record, sorted by address.
func (e *Engine) Accounts() []common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]common.Address, 0, len(e.records))
	for addr := range e.records {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// run executes fn as one atomic operation, acquiring locks in the fixed
// ledger-then-engine order. Ledger and engine events are emitted only after
// every lock has been released.
func (e *Engine) run(now uint64, fn func(*session) error) error {
	e.mu.Lock()
	pauses := e.pauses
	e.mu.Unlock()
	if err := nativecommon.Guard(pauses, nativecommon.ModuleStaking); err != nil {
		return err
	}
	var pending []events.Event
	locked := func(staking, rewards LedgerTx) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		s := e.newSession(now, staking, rewards)
		if err := fn(s); err != nil {
			return err
		}
		pending = s.commit()
		return nil
	}
	deliverRewards := func() {}
	deliverStaking, err := e.stakingLedger.Stage(func(stx LedgerTx) error {
		if e.sameAsset {
			return locked(stx, stx)
		}
		deliver, err := e.rewardsLedger.Stage(func(rtx LedgerTx) error {
			return locked(stx, rtx)
		})
		if err != nil {
			return err
		}
		deliverRewards = deliver
		return nil
	})
	if err != nil {
		return err
	}
	deliverRewards()
	deliverStaking()
	e.emitEvents(pending)
	return nil
}

func (e *Engine) emitEvents(pending []events.Event) {
	e.mu.Lock()
	emitter := e.emitter
	e.mu.Unlock()
	for _, evt := range pending {
		emitter.Emit(evt)
	}
}

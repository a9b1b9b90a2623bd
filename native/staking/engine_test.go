package staking_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"norifarm/core/amount"
	ledgererrors "norifarm/core/errors"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
	"norifarm/native/staking"
	"norifarm/native/token"
)

const t0 uint64 = 1_700_000_000

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	custody = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type captureEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureEmitter) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func (c *captureEmitter) ofType(types ...string) []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := make(map[string]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	var out []events.Event
	for _, evt := range c.events {
		if want[evt.EventType()] {
			out = append(out, evt)
		}
	}
	return out
}

type harness struct {
	ledger  *token.Ledger
	engine  *staking.Engine
	capture *captureEmitter
}

// newHarness mirrors the original deployment: one asset for stake and
// rewards, a reward pool minted to custody and two funded stakers.
func newHarness(t *testing.T, custodyMints bool) *harness {
	t.Helper()
	capture := &captureEmitter{}
	ledger, err := token.NewLedger(token.Config{Owner: owner, Emitter: capture})
	require.NoError(t, err)
	engine, err := staking.NewEngine(staking.Config{
		StakingLedger: staking.TokenLedger(ledger),
		Custody:       custody,
		Owner:         owner,
		Emitter:       capture,
	})
	require.NoError(t, err)
	if custodyMints {
		require.NoError(t, ledger.AddMinter(owner, custody))
	}
	require.NoError(t, ledger.Mint(owner, custody, amount.Tokens(10_000)))
	require.NoError(t, ledger.Transfer(owner, alice, amount.Tokens(1_000)))
	require.NoError(t, ledger.Transfer(owner, bob, amount.Tokens(1_000)))
	capture.reset()
	return &harness{ledger: ledger, engine: engine, capture: capture}
}

func (h *harness) requireStakeInvariant(t *testing.T) {
	t.Helper()
	sum := amount.Zero()
	for _, rec := range h.engine.Records() {
		sum.Add(sum, rec.Amount)
	}
	require.Equal(t, sum.Dec(), h.engine.TotalStaked().Dec(), "totalStaked != sum(records)")
	snap := h.ledger.Snapshot()
	require.Equal(t, snap.TotalSupply.Dec(), snap.Sum().Dec(), "sum(balances) != totalSupply")
}

func TestNewEngineValidatesConfig(t *testing.T) {
	ledger, err := token.NewLedger(token.Config{Owner: owner})
	require.NoError(t, err)
	_, err = staking.NewEngine(staking.Config{Custody: custody, Owner: owner})
	require.Error(t, err)
	_, err = staking.NewEngine(staking.Config{StakingLedger: staking.TokenLedger(ledger), Owner: owner})
	require.ErrorIs(t, err, ledgererrors.ErrZeroAddress)
	_, err = staking.NewEngine(staking.Config{StakingLedger: staking.TokenLedger(ledger), Custody: custody})
	require.ErrorIs(t, err, ledgererrors.ErrZeroAddress)

	engine, err := staking.NewEngine(staking.Config{StakingLedger: staking.TokenLedger(ledger), Custody: custody, Owner: owner})
	require.NoError(t, err)
	require.Equal(t, engine.StakingLedger(), engine.RewardsLedger())
	require.Equal(t, uint64(876), engine.GetAPY())
}

func TestStake(t *testing.T) {
	h := newHarness(t, false)
	stake := amount.Tokens(100)
	require.NoError(t, h.engine.Stake(alice, stake, t0))

	info, err := h.engine.GetStakeInfo(alice, t0)
	require.NoError(t, err)
	require.Equal(t, stake.Dec(), info.Amount.Dec())
	require.Equal(t, t0, info.StakeTimestamp)
	require.Equal(t, t0, info.LastClaimTime)
	require.True(t, info.PendingRewards.IsZero())
	require.Equal(t, stake.Dec(), h.engine.TotalStaked().Dec())
	require.Equal(t, amount.Tokens(900).Dec(), h.ledger.BalanceOf(alice).Dec())
	require.Equal(t, amount.Tokens(10_100).Dec(), h.ledger.BalanceOf(custody).Dec())

	staked := h.capture.ofType(events.TypeStaked)
	require.Len(t, staked, 1)
	require.Equal(t, alice, staked[0].(events.Staked).Account)
	h.requireStakeInvariant(t)
}

func TestStakeZeroAmount(t *testing.T) {
	h := newHarness(t, false)
	require.ErrorIs(t, h.engine.Stake(alice, amount.Zero(), t0), ledgererrors.ErrZeroAmount)
	require.ErrorIs(t, h.engine.Stake(alice, nil, t0), ledgererrors.ErrZeroAmount)
	require.Empty(t, h.engine.Records())
}

func TestStakeInsufficientBalancePropagatesAndRollsBack(t *testing.T) {
	h := newHarness(t, false)
	tooMuch := h.ledger.BalanceOf(alice)
	tooMuch.AddUint64(tooMuch, 1)
	before := h.ledger.Snapshot()

	err := h.engine.Stake(alice, tooMuch, t0)
	require.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
	require.Empty(t, h.engine.Records())
	require.True(t, h.engine.TotalStaked().IsZero())
	require.Equal(t, before, h.ledger.Snapshot())
	require.Empty(t, h.capture.ofType(events.TypeStaked, events.TypeTokenTransfer))
}

func TestCalculateRewardsAccrualExactness(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, uint256.NewInt(100), t0))

	for elapsed, want := range map[uint64]uint64{3599: 0, 3600: 1, 7200: 2} {
		got, err := h.engine.CalculateRewards(alice, t0+elapsed)
		require.NoError(t, err)
		require.Equal(t, want, got.Uint64(), "elapsed %d", elapsed)
	}

	got, err := h.engine.CalculateRewards(bob, t0+7200)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestClaimRewardsPays(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	before := h.ledger.BalanceOf(alice)

	paid, err := h.engine.ClaimRewards(alice, t0+3600)
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(1).Dec(), paid.Dec())
	want := new(uint256.Int).Add(before, paid)
	require.Equal(t, want.Dec(), h.ledger.BalanceOf(alice).Dec())

	pending, err := h.engine.CalculateRewards(alice, t0+3600)
	require.NoError(t, err)
	require.True(t, pending.IsZero())

	stats, err := h.engine.GetContractStats()
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(1).Dec(), stats.TotalRewardsPaid.Dec())

	claimed := h.capture.ofType(events.TypeRewardsClaimed)
	require.Len(t, claimed, 1)
	require.Equal(t, string(staking.PayoutTransfer), claimed[0].(events.RewardsClaimed).Mode)
	h.requireStakeInvariant(t)
}

func TestClaimWithNothingDueKeepsClock(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, uint256.NewInt(100), t0))

	paid, err := h.engine.ClaimRewards(alice, t0+1800)
	require.NoError(t, err)
	require.True(t, paid.IsZero())
	require.Empty(t, h.capture.ofType(events.TypeRewardsClaimed))

	info, err := h.engine.GetStakeInfo(alice, t0+1800)
	require.NoError(t, err)
	require.Equal(t, t0, info.LastClaimTime)

	// The first half hour still counts towards the next period.
	pending, err := h.engine.CalculateRewards(alice, t0+3600)
	require.NoError(t, err)
	require.Equal(t, uint64(1), pending.Uint64())
}

func TestClaimForNonStakerCreatesNoRecord(t *testing.T) {
	h := newHarness(t, false)
	paid, err := h.engine.ClaimRewards(bob, t0)
	require.NoError(t, err)
	require.True(t, paid.IsZero())
	require.Empty(t, h.engine.Records())
}

func TestUnstakeSettlesRewardsFirst(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, uint256.NewInt(100), t0))
	h.capture.reset()

	now := t0 + 7200
	require.NoError(t, h.engine.Unstake(alice, uint256.NewInt(50), now))

	ordered := h.capture.ofType(events.TypeRewardsClaimed, events.TypeUnstaked)
	require.Len(t, ordered, 2)
	claimed, ok := ordered[0].(events.RewardsClaimed)
	require.True(t, ok, "rewards must be settled before unstaking")
	require.Equal(t, uint64(2), claimed.Amount.Uint64())
	require.Equal(t, uint64(2), claimed.Periods)
	require.Equal(t, events.TypeUnstaked, ordered[1].EventType())

	rec := h.engine.Records()[alice]
	require.Equal(t, uint64(50), rec.Amount.Uint64())
	require.Equal(t, now, rec.LastClaimTime)
	require.Equal(t, uint64(50), h.engine.TotalStaked().Uint64())
	h.requireStakeInvariant(t)
}

func TestUnstakeValidation(t *testing.T) {
	h := newHarness(t, false)
	require.ErrorIs(t, h.engine.Unstake(alice, amount.Zero(), t0), ledgererrors.ErrZeroAmount)
	require.ErrorIs(t, h.engine.Unstake(alice, uint256.NewInt(1), t0), ledgererrors.ErrInsufficientStake)

	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	err := h.engine.Unstake(alice, amount.Tokens(200), t0+7200)
	require.ErrorIs(t, err, ledgererrors.ErrInsufficientStake)

	// The failed unstake must not have paid or reset anything.
	info, err := h.engine.GetStakeInfo(alice, t0+7200)
	require.NoError(t, err)
	require.Equal(t, t0, info.LastClaimTime)
	require.Equal(t, amount.Tokens(2).Dec(), info.PendingRewards.Dec())
}

func TestFullUnstakeAndRestake(t *testing.T) {
	h := newHarness(t, false)
	stake := amount.Tokens(100)
	require.NoError(t, h.engine.Stake(alice, stake, t0))
	require.NoError(t, h.engine.Unstake(alice, stake, t0+3600))

	rec, ok := h.engine.Records()[alice]
	require.True(t, ok, "records are zeroed, never deleted")
	require.True(t, rec.Amount.IsZero())
	pending, err := h.engine.CalculateRewards(alice, t0+100*3600)
	require.NoError(t, err)
	require.True(t, pending.IsZero())
	require.Equal(t, amount.Tokens(1_001).Dec(), h.ledger.BalanceOf(alice).Dec())

	require.NoError(t, h.engine.Stake(alice, stake, t0+10*3600))
	info, err := h.engine.GetStakeInfo(alice, t0+11*3600)
	require.NoError(t, err)
	require.Equal(t, stake.Dec(), info.Amount.Dec())
	require.Equal(t, amount.Tokens(1).Dec(), info.PendingRewards.Dec())
	h.requireStakeInvariant(t)
}

func TestAdditionalStakeClaimsFirst(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	h.capture.reset()
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0+3600))

	ordered := h.capture.ofType(events.TypeRewardsClaimed, events.TypeStaked)
	require.Len(t, ordered, 2)
	require.Equal(t, events.TypeRewardsClaimed, ordered[0].EventType())
	require.Equal(t, amount.Tokens(1).Dec(), ordered[0].(events.RewardsClaimed).Amount.Dec())

	info, err := h.engine.GetStakeInfo(alice, t0+7200)
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(200).Dec(), info.Amount.Dec())
	require.Equal(t, amount.Tokens(2).Dec(), info.PendingRewards.Dec())
}

func TestMintModePayout(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	supply := h.ledger.TotalSupply()
	custodyBalance := h.ledger.BalanceOf(custody)

	paid, err := h.engine.ClaimRewards(alice, t0+3*3600)
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(3).Dec(), paid.Dec())
	require.Equal(t, new(uint256.Int).Add(supply, paid).Dec(), h.ledger.TotalSupply().Dec())
	require.Equal(t, custodyBalance.Dec(), h.ledger.BalanceOf(custody).Dec())

	claimed := h.capture.ofType(events.TypeRewardsClaimed)
	require.Len(t, claimed, 1)
	require.Equal(t, string(staking.PayoutMint), claimed[0].(events.RewardsClaimed).Mode)
	require.Len(t, h.capture.ofType(events.TypeTokenMinted), 1)
	h.requireStakeInvariant(t)
}

func TestMintModeCapExceededRollsBackUnstake(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	require.NoError(t, h.ledger.Mint(owner, bob, h.ledger.RemainingSupply()))
	before := h.ledger.Snapshot()
	records := h.engine.Records()
	h.capture.reset()

	err := h.engine.Unstake(alice, amount.Tokens(100), t0+3600)
	require.ErrorIs(t, err, ledgererrors.ErrSupplyCapExceeded)
	require.Equal(t, before, h.ledger.Snapshot())
	require.Equal(t, records, h.engine.Records())
	require.Equal(t, amount.Tokens(100).Dec(), h.engine.TotalStaked().Dec())
	require.Empty(t, h.capture.ofType(events.TypeRewardsClaimed, events.TypeUnstaked, events.TypeTokenTransfer))
}

func TestSeparateRewardLedger(t *testing.T) {
	capture := &captureEmitter{}
	stakeLedger, err := token.NewLedger(token.Config{Owner: owner, Symbol: "STK", Emitter: capture})
	require.NoError(t, err)
	rewardLedger, err := token.NewLedger(token.Config{Owner: owner, Emitter: capture})
	require.NoError(t, err)
	engine, err := staking.NewEngine(staking.Config{
		StakingLedger: staking.TokenLedger(stakeLedger),
		RewardsLedger: staking.TokenLedger(rewardLedger),
		Custody:       custody,
		Owner:         owner,
		Emitter:       capture,
	})
	require.NoError(t, err)
	require.NoError(t, stakeLedger.Transfer(owner, alice, amount.Tokens(100)))
	// Custody is a minter, but rewards are a distinct asset so they are paid
	// from the pre-funded custody balance.
	require.NoError(t, rewardLedger.AddMinter(owner, custody))

	require.NoError(t, engine.Stake(alice, amount.Tokens(100), t0))

	// Unfunded: the reward transfer fails and the whole unstake rolls back.
	stakeBefore, rewardBefore := stakeLedger.Snapshot(), rewardLedger.Snapshot()
	err = engine.Unstake(alice, amount.Tokens(100), t0+3600)
	require.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
	require.Equal(t, stakeBefore, stakeLedger.Snapshot())
	require.Equal(t, rewardBefore, rewardLedger.Snapshot())
	require.Equal(t, amount.Tokens(100).Dec(), engine.TotalStaked().Dec())

	require.NoError(t, rewardLedger.Transfer(owner, custody, amount.Tokens(10)))
	require.NoError(t, engine.Unstake(alice, amount.Tokens(100), t0+3600))
	require.Equal(t, amount.Tokens(1).Dec(), rewardLedger.BalanceOf(alice).Dec())
	require.Equal(t, amount.Tokens(100).Dec(), stakeLedger.BalanceOf(alice).Dec())
	require.Equal(t, amount.Tokens(9).Dec(), rewardLedger.BalanceOf(custody).Dec())
	require.True(t, stakeLedger.BalanceOf(custody).IsZero())

	claimed := capture.ofType(events.TypeRewardsClaimed)
	require.Len(t, claimed, 1)
	require.Equal(t, string(staking.PayoutTransfer), claimed[0].(events.RewardsClaimed).Mode)
}

type reentrantEmitter struct {
	mu      sync.Mutex
	ledger  *token.Ledger
	reads   int
	account common.Address
}

func (r *reentrantEmitter) Emit(events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.ledger.BalanceOf(r.account)
	r.reads++
}

func TestRewardLedgerEmitterMayReadStakingLedger(t *testing.T) {
	stakeLedger, err := token.NewLedger(token.Config{Owner: owner, Symbol: "STK"})
	require.NoError(t, err)
	reentrant := &reentrantEmitter{ledger: stakeLedger, account: custody}
	rewardLedger, err := token.NewLedger(token.Config{Owner: owner, Emitter: reentrant})
	require.NoError(t, err)
	engine, err := staking.NewEngine(staking.Config{
		StakingLedger: staking.TokenLedger(stakeLedger),
		RewardsLedger: staking.TokenLedger(rewardLedger),
		Custody:       custody,
		Owner:         owner,
	})
	require.NoError(t, err)
	require.NoError(t, stakeLedger.Transfer(owner, alice, amount.Tokens(100)))
	require.NoError(t, rewardLedger.Transfer(owner, custody, amount.Tokens(10)))
	require.NoError(t, engine.Stake(alice, amount.Tokens(100), t0))

	reentrant.mu.Lock()
	reentrant.reads = 0
	reentrant.mu.Unlock()
	done := make(chan error, 1)
	go func() { done <- engine.Unstake(alice, amount.Tokens(100), t0+3600) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("unstake deadlocked delivering reward ledger events")
	}
	reentrant.mu.Lock()
	defer reentrant.mu.Unlock()
	require.Equal(t, 1, reentrant.reads)
	require.Equal(t, amount.Tokens(1).Dec(), rewardLedger.BalanceOf(alice).Dec())
}

// unhashableLedger cannot be compared with ==.
type unhashableLedger struct {
	staking.Ledger
	tags []string
}

func TestNewEngineRejectsNonComparableLedgers(t *testing.T) {
	ledger, err := token.NewLedger(token.Config{Owner: owner})
	require.NoError(t, err)
	wrapped := unhashableLedger{Ledger: staking.TokenLedger(ledger), tags: []string{"a"}}

	require.NotPanics(t, func() {
		_, err = staking.NewEngine(staking.Config{StakingLedger: wrapped, RewardsLedger: wrapped, Custody: custody, Owner: owner})
	})
	require.ErrorContains(t, err, "not comparable")

	// Without a distinct rewards ledger no comparison is needed.
	_, err = staking.NewEngine(staking.Config{StakingLedger: wrapped, Custody: custody, Owner: owner})
	require.NoError(t, err)

	// Ledgers of different types are distinct assets.
	other, err := token.NewLedger(token.Config{Owner: owner, Symbol: "YLD"})
	require.NoError(t, err)
	_, err = staking.NewEngine(staking.Config{StakingLedger: wrapped, RewardsLedger: staking.TokenLedger(other), Custody: custody, Owner: owner})
	require.NoError(t, err)
}

func TestContractStats(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	stats, err := h.engine.GetContractStats()
	require.NoError(t, err)
	require.Equal(t, amount.Tokens(100).Dec(), stats.TotalStaked.Dec())
	require.True(t, stats.TotalRewardsPaid.IsZero())
	require.Equal(t, amount.Tokens(10_100).Dec(), stats.EngineBalance.Dec())
}

func TestEmergencyWithdraw(t *testing.T) {
	h := newHarness(t, false)
	before := h.ledger.BalanceOf(owner)
	require.NoError(t, h.engine.EmergencyWithdraw(owner, h.engine.StakingLedger(), amount.Tokens(100)))
	require.Equal(t, new(uint256.Int).Add(before, amount.Tokens(100)).Dec(), h.ledger.BalanceOf(owner).Dec())
	require.Len(t, h.capture.ofType(events.TypeEmergencyWithdrawn), 1)

	err := h.engine.EmergencyWithdraw(alice, h.engine.StakingLedger(), amount.Tokens(100))
	require.ErrorIs(t, err, ledgererrors.ErrUnauthorized)
	require.ErrorIs(t, h.engine.EmergencyWithdraw(owner, h.engine.StakingLedger(), amount.Zero()), ledgererrors.ErrZeroAmount)
}

func TestEmergencyWithdrawCanStrandStakers(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	require.NoError(t, h.engine.EmergencyWithdraw(owner, h.engine.StakingLedger(), h.ledger.BalanceOf(custody)))

	// Accounting still claims the stake exists, but custody cannot honour it.
	require.Equal(t, amount.Tokens(100).Dec(), h.engine.TotalStaked().Dec())
	err := h.engine.Unstake(alice, amount.Tokens(100), t0+10)
	require.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
	require.Equal(t, amount.Tokens(100).Dec(), h.engine.TotalStaked().Dec())
}

func TestPausedEngine(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Stake(alice, amount.Tokens(100), t0))
	pauses := nativecommon.NewPauses(nativecommon.ModuleStaking)
	h.engine.SetPauses(pauses)

	require.ErrorIs(t, h.engine.Stake(alice, amount.Tokens(1), t0), nativecommon.ErrModulePaused)
	require.ErrorIs(t, h.engine.Unstake(alice, amount.Tokens(1), t0), nativecommon.ErrModulePaused)
	_, err := h.engine.ClaimRewards(alice, t0+3600)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
	require.NoError(t, h.engine.EmergencyWithdraw(owner, h.engine.StakingLedger(), amount.Tokens(1)))

	pauses.Set(nativecommon.ModuleStaking, false)
	_, err = h.engine.ClaimRewards(alice, t0+3600)
	require.NoError(t, err)
}

func TestStakeInvariantUnderRandomOperations(t *testing.T) {
	h := newHarness(t, true)
	accounts := []common.Address{alice, bob}
	rng := rand.New(rand.NewSource(7))
	now := t0
	for i := 0; i < 400; i++ {
		now += uint64(rng.Intn(7200))
		acct := accounts[rng.Intn(len(accounts))]
		amt := amount.Tokens(uint64(rng.Intn(300)))
		var err error
		switch rng.Intn(3) {
		case 0:
			err = h.engine.Stake(acct, amt, now)
		case 1:
			err = h.engine.Unstake(acct, amt, now)
		case 2:
			_, err = h.engine.ClaimRewards(acct, now)
		}
		if err != nil {
			require.True(t, errors.Is(err, ledgererrors.ErrZeroAmount) ||
				errors.Is(err, ledgererrors.ErrInsufficientStake) ||
				errors.Is(err, ledgererrors.ErrInsufficientBalance) ||
				errors.Is(err, ledgererrors.ErrSupplyCapExceeded), "unexpected error: %v", err)
		}
		h.requireStakeInvariant(t)
	}
}

func TestConcurrentOperationsKeepInvariants(t *testing.T) {
	h := newHarness(t, true)
	var wg sync.WaitGroup
	for _, acct := range []common.Address{alice, bob} {
		acct := acct
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := t0
			for i := 0; i < 50; i++ {
				now += staking.AccrualPeriod
				_ = h.engine.Stake(acct, amount.Tokens(5), now)
				_, _ = h.engine.ClaimRewards(acct, now+staking.AccrualPeriod)
				_ = h.engine.Unstake(acct, amount.Tokens(2), now+staking.AccrualPeriod)
				_, _ = h.engine.GetContractStats()
			}
		}()
	}
	wg.Wait()
	h.requireStakeInvariant(t)
	require.Equal(t, amount.Tokens(300).Dec(), h.engine.TotalStaked().Dec())
}

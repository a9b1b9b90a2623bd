package staking

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	"norifarm/core/events"
)

// session stages engine mutations for a single operation. Nothing is written
// back to the engine until commit, and commit only runs once every ledger
// step of the operation has succeeded.
type session struct {
	engine  *Engine
	staking LedgerTx
	rewards LedgerTx
	now     uint64

	records          map[common.Address]*StakeRecord
	totalStaked      *uint256.Int
	totalRewardsPaid *uint256.Int
	events           []events.Event
}

func (e *Engine) newSession(now uint64, staking, rewards LedgerTx) *session {
	return &session{
		engine:           e,
		staking:          staking,
		rewards:          rewards,
		now:              now,
		records:          make(map[common.Address]*StakeRecord),
		totalStaked:      amount.Copy(e.totalStaked),
		totalRewardsPaid: amount.Copy(e.totalRewardsPaid),
	}
}

// record returns the staged record for addr, reading an absent account as an
// empty record.
func (s *session) record(addr common.Address) *StakeRecord {
	if rec, ok := s.records[addr]; ok {
		return rec
	}
	rec := s.engine.records[addr].Clone()
	s.records[addr] = rec
	return rec
}

// claim pays every whole period accrued since the last claim. The accrual
// clock moves before the payout call so a payout that re-enters claim on
// this session sees nothing pending. When nothing is due the clock is left
// alone so partial periods keep counting.
func (s *session) claim(addr common.Address) (*uint256.Int, error) {
	rec := s.record(addr)
	reward, periods, err := PendingReward(rec.Amount, rec.LastClaimTime, s.now)
	if err != nil {
		return nil, err
	}
	if reward.IsZero() {
		return reward, nil
	}
	rec.LastClaimTime = s.now
	paid, err := amount.Add(s.totalRewardsPaid, reward)
	if err != nil {
		return nil, err
	}
	s.totalRewardsPaid = paid

	mode, err := s.pay(addr, reward)
	if err != nil {
		return nil, err
	}
	s.emit(events.RewardsClaimed{Account: addr, Amount: amount.Copy(reward), Periods: periods, Mode: string(mode)})
	return reward, nil
}

func (s *session) pay(addr common.Address, reward *uint256.Int) (PayoutMode, error) {
	custody := s.engine.custody
	if s.engine.sameAsset && s.rewards.IsMinter(custody) {
		return PayoutMint, s.rewards.Mint(custody, addr, reward)
	}
	return PayoutTransfer, s.rewards.Transfer(custody, addr, reward)
}

func (s *session) emit(evt events.Event) {
	s.events = append(s.events, evt)
}

func (s *session) commit() []events.Event {
	for addr, rec := range s.records {
		if _, existed := s.engine.records[addr]; !existed && !rec.Active() {
			// Reads of accounts that never staked must not materialise records.
			continue
		}
		s.engine.records[addr] = rec
	}
	s.engine.totalStaked = s.totalStaked
	s.engine.totalRewardsPaid = s.totalRewardsPaid
	return s.events
}

package metrics

import (
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"norifarm/core/amount"
	ledgererrors "norifarm/core/errors"
	"norifarm/core/events"
	nativecommon "norifarm/native/common"
)

// LedgerMetrics tracks token supply and staking activity. Amounts are
// exported in whole tokens.
type LedgerMetrics struct {
	supply      *prometheus.GaugeVec
	minted      *prometheus.CounterVec
	burned      *prometheus.CounterVec
	transfers   *prometheus.CounterVec
	totalStaked prometheus.Gauge
	rewardsPaid *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = newLedgerMetrics()
		prometheus.MustRegister(ledgerRegistry.collectors()...)
	})
	return ledgerRegistry
}

func newLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		supply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "norifarm",
			Subsystem: "token",
			Name:      "total_supply",
			Help:      "Circulating supply per token.",
		}, []string{"token"}),
		minted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "token",
			Name:      "minted_total",
			Help:      "Tokens issued through mint.",
		}, []string{"token"}),
		burned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "token",
			Name:      "burned_total",
			Help:      "Tokens destroyed through burn.",
		}, []string{"token"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "token",
			Name:      "transfers_total",
			Help:      "Count of balance transfers segmented by token.",
		}, []string{"token"}),
		totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "norifarm",
			Subsystem: "staking",
			Name:      "total_staked",
			Help:      "Principal currently locked in the staking engine.",
		}),
		rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "staking",
			Name:      "rewards_paid_total",
			Help:      "Rewards paid to stakers segmented by payout mode.",
		}, []string{"mode"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "norifarm",
			Subsystem: "ledger",
			Name:      "failures_total",
			Help:      "Rejected ledger and staking operations by operation and reason.",
		}, []string{"operation", "reason"}),
	}
}

func (m *LedgerMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.supply, m.minted, m.burned, m.transfers,
		m.totalStaked, m.rewardsPaid, m.failures,
	}
}

// RecordFailure counts a rejected operation. Reasons should be stable strings
// such as "insufficient_balance" so dashboards remain consistent.
func (m *LedgerMetrics) RecordFailure(operation, reason string) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unspecified"
	}
	m.failures.WithLabelValues(op, reason).Inc()
}

var failureReasons = []struct {
	err    error
	reason string
}{
	{ledgererrors.ErrInsufficientBalance, "insufficient_balance"},
	{ledgererrors.ErrInsufficientStake, "insufficient_stake"},
	{ledgererrors.ErrZeroAmount, "zero_amount"},
	{ledgererrors.ErrUnauthorized, "unauthorized"},
	{ledgererrors.ErrSupplyCapExceeded, "supply_cap_exceeded"},
	{ledgererrors.ErrZeroAddress, "zero_address"},
	{ledgererrors.ErrArithmeticOverflow, "overflow"},
	{nativecommon.ErrModulePaused, "paused"},
}

// ReasonFor maps an operation error to its failure label.
func ReasonFor(err error) string {
	if err == nil {
		return ""
	}
	for _, candidate := range failureReasons {
		if errors.Is(err, candidate.err) {
			return candidate.reason
		}
	}
	return "other"
}

// SetTotalStaked overwrites the staked principal gauge.
func (m *LedgerMetrics) SetTotalStaked(v *uint256.Int) {
	if m == nil {
		return
	}
	m.totalStaked.Set(wholeTokens(v))
}

// Sink returns an emitter that folds ledger events into the registry.
func (m *LedgerMetrics) Sink() events.Emitter {
	return sink{metrics: m}
}

type sink struct {
	metrics *LedgerMetrics
}

// Emit implements events.Emitter.
func (s sink) Emit(evt events.Event) {
	m := s.metrics
	if m == nil {
		return
	}
	switch e := evt.(type) {
	case events.TokenTransfer:
		m.transfers.WithLabelValues(label(e.Token)).Inc()
	case events.TokenMinted:
		m.minted.WithLabelValues(label(e.Token)).Add(wholeTokens(e.Amount))
	case events.TokenBurned:
		m.burned.WithLabelValues(label(e.Token)).Add(wholeTokens(e.Amount))
	case events.TokenSupply:
		m.supply.WithLabelValues(label(e.Token)).Set(wholeTokens(e.Total))
	case events.Staked:
		m.totalStaked.Add(wholeTokens(e.Amount))
	case events.Unstaked:
		m.totalStaked.Sub(wholeTokens(e.Amount))
	case events.RewardsClaimed:
		mode := strings.TrimSpace(e.Mode)
		if mode == "" {
			mode = "unknown"
		}
		m.rewardsPaid.WithLabelValues(mode).Add(wholeTokens(e.Amount))
	}
}

func label(token string) string {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" {
		return "UNKNOWN"
	}
	return normalized
}

var unitFloat = new(big.Float).SetInt(amount.Unit.ToBig())

func wholeTokens(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), unitFloat).Float64()
	return f
}

package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"norifarm/core/amount"
	"norifarm/core/events"
	"norifarm/native/staking"
)

const maxBodyBytes = 1 << 16

// mutationRequest is the body accepted by every POST endpoint. Amounts are
// decimal token strings such as "1.5".
type mutationRequest struct {
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Account string `json:"account,omitempty"`
	Amount  string `json:"amount,omitempty"`
	// Asset selects the ledger for emergency withdrawals: "staking" (default)
	// or "rewards".
	Asset string `json:"asset,omitempty"`
}

type amountView struct {
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

func viewOf(v *uint256.Int) amountView {
	return amountView{Raw: amount.String(v), Formatted: amount.FormatUnits(v, amount.Decimals)}
}

type tokenInfoResponse struct {
	Name            string     `json:"name"`
	Symbol          string     `json:"symbol"`
	Decimals        uint8      `json:"decimals"`
	Owner           string     `json:"owner"`
	TotalSupply     amountView `json:"totalSupply"`
	MaxSupply       amountView `json:"maxSupply"`
	RemainingSupply amountView `json:"remainingSupply"`
}

type balanceResponse struct {
	Address string     `json:"address"`
	Balance amountView `json:"balance"`
	Minter  bool       `json:"minter"`
}

type statsResponse struct {
	TotalStaked      amountView `json:"totalStaked"`
	TotalRewardsPaid amountView `json:"totalRewardsPaid"`
	EngineBalance    amountView `json:"engineBalance"`
	APY              uint64     `json:"apy"`
	Stakers          int        `json:"stakers"`
}

type stakeInfoResponse struct {
	Address        string     `json:"address"`
	Amount         amountView `json:"amount"`
	StakeTimestamp uint64     `json:"stakeTimestamp"`
	LastClaimTime  uint64     `json:"lastClaimTime"`
	PendingRewards amountView `json:"pendingRewards"`
}

type claimResponse struct {
	Paid amountView `json:"paid"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// TokenInfo returns token metadata and supply figures.
func (s *Server) TokenInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tokenInfoResponse{
		Name:            s.ledger.Name(),
		Symbol:          s.ledger.Symbol(),
		Decimals:        s.ledger.Decimals(),
		Owner:           s.ledger.Owner().Hex(),
		TotalSupply:     viewOf(s.ledger.TotalSupply()),
		MaxSupply:       viewOf(s.ledger.MaxSupply()),
		RemainingSupply: viewOf(s.ledger.RemainingSupply()),
	})
}

// Balance returns the balance and minter flag of an account.
func (s *Server) Balance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("addr", chi.URLParam(r, "addr"))
	if err != nil {
		s.fail(w, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Address: addr.Hex(),
		Balance: viewOf(s.ledger.BalanceOf(addr)),
		Minter:  s.ledger.IsMinter(addr),
	})
}

// Transfer moves tokens between two accounts.
func (s *Server) Transfer(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, "transfer", err)
		return
	}
	from, to, amt, err := req.fromToAmount()
	if err != nil {
		s.fail(w, "transfer", err)
		return
	}
	if err := s.ledger.Transfer(from, to, amt); err != nil {
		s.fail(w, "transfer", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Mint issues new supply on behalf of a minter.
func (s *Server) Mint(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, "mint", err)
		return
	}
	from, to, amt, err := req.fromToAmount()
	if err != nil {
		s.fail(w, "mint", err)
		return
	}
	if err := s.ledger.Mint(from, to, amt); err != nil {
		s.fail(w, "mint", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Burn destroys tokens from the caller's balance.
func (s *Server) Burn(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, "burn", err)
		return
	}
	from, amt, err := req.fromAmount()
	if err != nil {
		s.fail(w, "burn", err)
		return
	}
	if err := s.ledger.Burn(from, amt); err != nil {
		s.fail(w, "burn", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// AddMinter grants mint authority; owner only.
func (s *Server) AddMinter(w http.ResponseWriter, r *http.Request) {
	s.minterChange(w, r, "addMinter", s.ledger.AddMinter)
}

// RemoveMinter revokes mint authority; owner only.
func (s *Server) RemoveMinter(w http.ResponseWriter, r *http.Request) {
	s.minterChange(w, r, "removeMinter", s.ledger.RemoveMinter)
}

func (s *Server) minterChange(w http.ResponseWriter, r *http.Request, operation string, apply func(caller, account common.Address) error) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	if err := apply(from, account); err != nil {
		s.fail(w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Stats returns engine-wide totals.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.GetContractStats()
	if err != nil {
		s.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalStaked:      viewOf(stats.TotalStaked),
		TotalRewardsPaid: viewOf(stats.TotalRewardsPaid),
		EngineBalance:    viewOf(stats.EngineBalance),
		APY:              s.engine.GetAPY(),
		Stakers:          len(s.engine.Accounts()),
	})
}

// StakeInfo returns an account's position with rewards pending at the
// server's current time.
func (s *Server) StakeInfo(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("addr", chi.URLParam(r, "addr"))
	if err != nil {
		s.fail(w, "stakeInfo", err)
		return
	}
	info, err := s.engine.GetStakeInfo(addr, s.now())
	if err != nil {
		s.fail(w, "stakeInfo", err)
		return
	}
	writeJSON(w, http.StatusOK, stakeInfoResponse{
		Address:        addr.Hex(),
		Amount:         viewOf(info.Amount),
		StakeTimestamp: info.StakeTimestamp,
		LastClaimTime:  info.LastClaimTime,
		PendingRewards: viewOf(info.PendingRewards),
	})
}

// Stake locks tokens at the server's current time.
func (s *Server) Stake(w http.ResponseWriter, r *http.Request) {
	s.stakeChange(w, r, "stake", s.engine.Stake)
}

// Unstake settles rewards and returns principal.
func (s *Server) Unstake(w http.ResponseWriter, r *http.Request) {
	s.stakeChange(w, r, "unstake", s.engine.Unstake)
}

func (s *Server) stakeChange(w http.ResponseWriter, r *http.Request, operation string, apply func(common.Address, *uint256.Int, uint64) error) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	from, amt, err := req.fromAmount()
	if err != nil {
		s.fail(w, operation, err)
		return
	}
	if err := apply(from, amt, s.now()); err != nil {
		s.fail(w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Claim pays out pending rewards.
func (s *Server) Claim(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, "claim", err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.fail(w, "claim", err)
		return
	}
	paid, err := s.engine.ClaimRewards(from, s.now())
	if err != nil {
		s.fail(w, "claim", err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{Paid: viewOf(paid)})
}

// EmergencyWithdraw moves custody funds of the named asset to the owner.
func (s *Server) EmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.fail(w, "emergencyWithdraw", err)
		return
	}
	from, amt, err := req.fromAmount()
	if err != nil {
		s.fail(w, "emergencyWithdraw", err)
		return
	}
	var ledger staking.Ledger
	switch strings.ToLower(strings.TrimSpace(req.Asset)) {
	case "", "staking":
		ledger = s.engine.StakingLedger()
	case "rewards":
		ledger = s.engine.RewardsLedger()
	default:
		s.fail(w, "emergencyWithdraw", fmt.Errorf("%w: unknown asset %q", errBadRequest, req.Asset))
		return
	}
	if err := s.engine.EmergencyWithdraw(from, ledger, amt); err != nil {
		s.fail(w, "emergencyWithdraw", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ListEvents returns journaled events after the optional sequence cursor.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	after, err := parseUintParam(query.Get("after"), 64)
	if err != nil {
		s.fail(w, "events", err)
		return
	}
	limit, err := parseUintParam(query.Get("limit"), 31)
	if err != nil {
		s.fail(w, "events", err)
		return
	}
	entries := s.journal.Since(after, int(limit))
	if entries == nil {
		entries = []events.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (mutationRequest, error) {
	var req mutationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req, nil
}

func (req mutationRequest) fromAmount() (common.Address, *uint256.Int, error) {
	from, err := parseAddress("from", req.From)
	if err != nil {
		return common.Address{}, nil, err
	}
	amt, err := amount.ParseUnits(req.Amount, amount.Decimals)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return from, amt, nil
}

func (req mutationRequest) fromToAmount() (common.Address, common.Address, *uint256.Int, error) {
	from, amt, err := req.fromAmount()
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return from, to, amt, nil
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%w: invalid %s %q", errBadRequest, field, value)
	}
	return common.HexToAddress(trimmed), nil
}

// parseUintParam parses an optional query value that must fit in bits.
func parseUintParam(value string, bits int) (uint64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return parsed, nil
}

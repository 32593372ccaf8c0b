package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"arenachain/core/types"
)

func pathID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("rpc: invalid id %q", raw)
	}
	return id, nil
}

// errIDMismatch guards against a signature for one record being replayed
// against another.
var errIDMismatch = errors.New("rpc: payload id does not match path")

type treasuryRequest struct {
	Treasury string `json:"treasury"`
}

func (s *Server) handleBattleInitialize(w http.ResponseWriter, r *http.Request) {
	var req treasuryRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	treasury, err := types.ParseAddress(req.Treasury)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	cfg, err := s.node.BattleInitialize(caller, treasury)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newConfigView(cfg))
}

func (s *Server) handleBattleUpdateTreasury(w http.ResponseWriter, r *http.Request) {
	var req treasuryRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	treasury, err := types.ParseAddress(req.Treasury)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.BattleUpdateTreasury(caller, treasury); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type proposeAuthorityRequest struct {
	NewAuthority string `json:"newAuthority"`
}

func (s *Server) handleBattleProposeAuthority(w http.ResponseWriter, r *http.Request) {
	var req proposeAuthorityRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	next, err := types.ParseAddress(req.NewAuthority)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.BattleProposeAuthority(caller, next); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBattleAcceptAuthority(w http.ResponseWriter, r *http.Request) {
	caller, err := decodeSigned(r, &struct{}{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.node.BattleAcceptAuthority(caller); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createBattleRequest struct {
	EntryFee uint64 `json:"entryFee"`
}

func (s *Server) handleBattleCreate(w http.ResponseWriter, r *http.Request) {
	var req createBattleRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.node.BattleCreate(caller, req.EntryFee)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBattleView(b))
}

type battleIDRequest struct {
	BattleID uint64 `json:"battleId"`
}

// decodeBattleAction recovers the caller for an action scoped to the battle
// in the path and rejects signatures minted for a different battle.
func (s *Server) decodeBattleAction(w http.ResponseWriter, r *http.Request, out interface{ battleID() uint64 }) ([20]byte, uint64, bool) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return [20]byte{}, 0, false
	}
	caller, err := decodeSigned(r, out)
	if err != nil {
		s.writeError(w, err)
		return [20]byte{}, 0, false
	}
	if out.battleID() != id {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errIDMismatch.Error()})
		return [20]byte{}, 0, false
	}
	return caller, id, true
}

func (req *battleIDRequest) battleID() uint64 { return req.BattleID }

func (s *Server) handleBattleJoin(w http.ResponseWriter, r *http.Request) {
	var req battleIDRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	b, err := s.node.BattleJoin(id, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBattleView(b))
}

func (s *Server) handleBattleCancel(w http.ResponseWriter, r *http.Request) {
	var req battleIDRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	if err := s.node.BattleCancel(id, caller); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type placeBetRequest struct {
	battleIDRequest
	Side   string `json:"side"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleBattlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	side, err := parseBattleSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bet, err := s.node.BattlePlaceBet(id, caller, side, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBetView(bet))
}

func (s *Server) handleBattleLockBetting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.BattleLockBetting(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

type proposeSettlementRequest struct {
	battleIDRequest
	Winner string `json:"winner"`
}

func (s *Server) handleBattleProposeSettlement(w http.ResponseWriter, r *http.Request) {
	var req proposeSettlementRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	winner, err := parseBattleSide(req.Winner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.BattleProposeSettlement(id, caller, winner); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pending_dispute"})
}

type fileDisputeRequest struct {
	battleIDRequest
	EvidenceHash string `json:"evidenceHash"`
}

func (s *Server) handleBattleFileDispute(w http.ResponseWriter, r *http.Request) {
	var req fileDisputeRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	evidence, err := parseHash(req.EvidenceHash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := s.node.BattleFileDispute(id, caller, evidence)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDisputeView(d))
}

type resolveDisputeRequest struct {
	battleIDRequest
	Upheld bool `json:"upheld"`
}

func (s *Server) handleBattleResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	if err := s.node.BattleResolveDispute(id, caller, req.Upheld); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (s *Server) handleBattleFinalize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.BattleFinalize(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

type payoutResponse struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleBattlePayout(w http.ResponseWriter, r *http.Request, op func(uint64, [20]byte) (uint64, error)) {
	var req battleIDRequest
	caller, id, ok := s.decodeBattleAction(w, r, &req)
	if !ok {
		return
	}
	amount, err := op(id, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Amount: amount})
}

func (s *Server) handleBattleClaimPrize(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleClaimPrize)
}

func (s *Server) handleBattleClaimWinnings(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleClaimSpectatorWinnings)
}

func (s *Server) handleBattleClaimDrawRefund(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleClaimDrawRefund)
}

func (s *Server) handleBattleRefundDrawBet(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleRefundSpectatorDrawBet)
}

func (s *Server) handleBattleRefundBet(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleRefundSpectatorBet)
}

func (s *Server) handleBattleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleWithdrawFees)
}

func (s *Server) handleBattleSweep(w http.ResponseWriter, r *http.Request) {
	s.handleBattlePayout(w, r, s.node.BattleSweepUnclaimed)
}

func (s *Server) handleBattleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := s.node.BattleGet(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBattleView(b))
}

func (s *Server) handleBattleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.node.BattleConfig()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConfigView(cfg))
}

func (s *Server) handleBattleGetBet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	addr, err := types.ParseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bet, err := s.node.BattleBet(id, addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetView(bet))
}

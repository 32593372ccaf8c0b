package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"arenachain/core/types"
)

type roundsInitializeRequest struct {
	Treasury string `json:"treasury"`
	Symbol   string `json:"symbol"`
}

func (s *Server) handleRoundsInitialize(w http.ResponseWriter, r *http.Request) {
	var req roundsInitializeRequest
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
	game, err := s.node.RoundsInitialize(caller, treasury, req.Symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameView(game))
}

type roundsBetRequest struct {
	Side   string `json:"side"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleRoundsPlaceBet(w http.ResponseWriter, r *http.Request) {
	var req roundsBetRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	side, err := parseRoundSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	pos, err := s.node.RoundsPlaceBet(caller, side, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPositionView(pos))
}

// handleRoundsCrank settles the expired round and opens the next one. Anyone
// may crank, so no signature is required.
func (s *Server) handleRoundsCrank(w http.ResponseWriter, r *http.Request) {
	round, err := s.node.RoundsCrank([20]byte{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoundView(round))
}

type setPausedRequest struct {
	Paused bool `json:"paused"`
}

func (s *Server) handleRoundsSetPaused(w http.ResponseWriter, r *http.Request) {
	var req setPausedRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.node.RoundsSetPaused(caller, req.Paused); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func (s *Server) handleRoundsGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.node.RoundsGame()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(game))
}

func (s *Server) handleRoundsGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	round, err := s.node.RoundsGet(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoundView(round))
}

func (s *Server) handleRoundsLock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.node.RoundsLock(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

type roundIDRequest struct {
	RoundID uint64 `json:"roundId"`
}

// decodeRoundAction mirrors decodeBattleAction for round-scoped claims.
func (s *Server) decodeRoundAction(w http.ResponseWriter, r *http.Request) ([20]byte, uint64, bool) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return [20]byte{}, 0, false
	}
	var req roundIDRequest
	caller, err := decodeSigned(r, &req)
	if err != nil {
		s.writeError(w, err)
		return [20]byte{}, 0, false
	}
	if req.RoundID != id {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errIDMismatch.Error()})
		return [20]byte{}, 0, false
	}
	return caller, id, true
}

func (s *Server) handleRoundsClaim(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.decodeRoundAction(w, r)
	if !ok {
		return
	}
	amount, err := s.node.RoundsClaim(id, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Amount: amount})
}

func (s *Server) handleRoundsWithdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := s.decodeRoundAction(w, r)
	if !ok {
		return
	}
	amount, err := s.node.RoundsWithdrawFees(id, caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{Amount: amount})
}

func (s *Server) handleRoundsPosition(w http.ResponseWriter, r *http.Request) {
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
	pos, err := s.node.RoundsPosition(id, addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPositionView(pos))
}

package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arenachain/core"
)

// Server exposes every settlement operation over HTTP. Mutating endpoints
// take a signed envelope; queries are plain GETs.
type Server struct {
	node   *core.Node
	logger *slog.Logger
	router chi.Router
}

// Options tunes the transport middleware.
type Options struct {
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// NewServer wires the router. A nil logger falls back to slog.Default.
func NewServer(node *core.Node, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 50
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 100
	}
	s := &Server{node: node, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(observe(logger))
	r.Use(newRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst).middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/battles", func(r chi.Router) {
		r.Post("/initialize", s.handleBattleInitialize)
		r.Post("/treasury", s.handleBattleUpdateTreasury)
		r.Post("/authority/propose", s.handleBattleProposeAuthority)
		r.Post("/authority/accept", s.handleBattleAcceptAuthority)
		r.Get("/config", s.handleBattleConfig)
		r.Post("/", s.handleBattleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleBattleGet)
			r.Post("/join", s.handleBattleJoin)
			r.Post("/cancel", s.handleBattleCancel)
			r.Post("/bets", s.handleBattlePlaceBet)
			r.Get("/bets/{addr}", s.handleBattleGetBet)
			r.Post("/lock", s.handleBattleLockBetting)
			r.Post("/propose", s.handleBattleProposeSettlement)
			r.Post("/dispute", s.handleBattleFileDispute)
			r.Post("/resolve", s.handleBattleResolveDispute)
			r.Post("/finalize", s.handleBattleFinalize)
			r.Post("/claim/prize", s.handleBattleClaimPrize)
			r.Post("/claim/winnings", s.handleBattleClaimWinnings)
			r.Post("/claim/draw-refund", s.handleBattleClaimDrawRefund)
			r.Post("/claim/draw-bet", s.handleBattleRefundDrawBet)
			r.Post("/claim/cancel-refund", s.handleBattleRefundBet)
			r.Post("/fees/withdraw", s.handleBattleWithdrawFees)
			r.Post("/sweep", s.handleBattleSweep)
		})
	})

	r.Route("/rounds", func(r chi.Router) {
		r.Post("/initialize", s.handleRoundsInitialize)
		r.Post("/bets", s.handleRoundsPlaceBet)
		r.Post("/crank", s.handleRoundsCrank)
		r.Post("/pause", s.handleRoundsSetPaused)
		r.Get("/game", s.handleRoundsGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleRoundsGet)
			r.Post("/lock", s.handleRoundsLock)
			r.Post("/claim", s.handleRoundsClaim)
			r.Post("/fees/withdraw", s.handleRoundsWithdrawFees)
			r.Get("/positions/{addr}", s.handleRoundsPosition)
		})
	})

	s.router = r
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

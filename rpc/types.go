package rpc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"arenachain/core/types"
	"arenachain/native/battle"
	"arenachain/native/rounds"
)

// Wire views render engine records with hex addresses instead of raw byte
// arrays.

type configView struct {
	Authority          string `json:"authority"`
	PendingAuthority   string `json:"pendingAuthority,omitempty"`
	Treasury           string `json:"treasury"`
	TotalBattles       uint64 `json:"totalBattles"`
	TotalVolume        uint64 `json:"totalVolume"`
	TotalFeesCollected uint64 `json:"totalFeesCollected"`
}

func newConfigView(c *battle.GlobalConfig) configView {
	v := configView{
		Authority:          types.FormatAddress(c.Authority),
		Treasury:           types.FormatAddress(c.Treasury),
		TotalBattles:       c.TotalBattles,
		TotalVolume:        c.TotalVolume,
		TotalFeesCollected: c.TotalFeesCollected,
	}
	if c.PendingAuthority != ([20]byte{}) {
		v.PendingAuthority = types.FormatAddress(c.PendingAuthority)
	}
	return v
}

type battleView struct {
	ID                    uint64 `json:"id"`
	Creator               string `json:"creator"`
	Opponent              string `json:"opponent,omitempty"`
	EntryFee              uint64 `json:"entryFee"`
	Status                string `json:"status"`
	Winner                string `json:"winner,omitempty"`
	ProposedWinner        string `json:"proposedWinner,omitempty"`
	PlayerPool            uint64 `json:"playerPool"`
	SpectatorPoolCreator  uint64 `json:"spectatorPoolCreator"`
	SpectatorPoolOpponent uint64 `json:"spectatorPoolOpponent"`
	BettingLocked         bool   `json:"bettingLocked"`
	PrizeClaimed          bool   `json:"prizeClaimed"`
	FeesWithdrawn         bool   `json:"feesWithdrawn"`
	Draw                  bool   `json:"draw"`
	CreatedAt             int64  `json:"createdAt"`
	StartedAt             int64  `json:"startedAt,omitempty"`
	EndsAt                int64  `json:"endsAt,omitempty"`
	DisputeDeadline       int64  `json:"disputeDeadline,omitempty"`
	SettledAt             int64  `json:"settledAt,omitempty"`
}

func newBattleView(b *battle.Battle) battleView {
	v := battleView{
		ID:                    b.ID,
		Creator:               types.FormatAddress(b.Creator),
		EntryFee:              b.EntryFee,
		Status:                b.Status.String(),
		PlayerPool:            b.PlayerPool,
		SpectatorPoolCreator:  b.SpectatorPoolCreator,
		SpectatorPoolOpponent: b.SpectatorPoolOpponent,
		BettingLocked:         b.BettingLocked,
		PrizeClaimed:          b.PrizeClaimed,
		FeesWithdrawn:         b.FeesWithdrawn,
		CreatedAt:             b.CreatedAt,
		StartedAt:             b.StartedAt,
		EndsAt:                b.EndsAt,
		DisputeDeadline:       b.DisputeDeadline,
		SettledAt:             b.SettledAt,
	}
	if b.Opponent != ([20]byte{}) {
		v.Opponent = types.FormatAddress(b.Opponent)
	}
	if b.Winner != ([20]byte{}) {
		v.Winner = types.FormatAddress(b.Winner)
	}
	if b.ProposedWinner != ([20]byte{}) {
		v.ProposedWinner = types.FormatAddress(b.ProposedWinner)
	}
	if b.Status == battle.StatusSettled {
		v.Draw = b.IsDraw()
	}
	return v
}

type betView struct {
	Bettor     string `json:"bettor"`
	BattleID   uint64 `json:"battleId"`
	BackedSide string `json:"backedSide"`
	Amount     uint64 `json:"amount"`
	Claimed    bool   `json:"claimed"`
}

func newBetView(bet *battle.SpectatorBet) betView {
	return betView{
		Bettor:     types.FormatAddress(bet.Bettor),
		BattleID:   bet.BattleID,
		BackedSide: bet.BackedSide.String(),
		Amount:     bet.Amount,
		Claimed:    bet.Claimed,
	}
}

type disputeView struct {
	BattleID     uint64 `json:"battleId"`
	Disputer     string `json:"disputer"`
	EvidenceHash string `json:"evidenceHash"`
	FiledAt      int64  `json:"filedAt"`
	Resolved     bool   `json:"resolved"`
	Upheld       bool   `json:"upheld"`
}

func newDisputeView(d *battle.Dispute) disputeView {
	return disputeView{
		BattleID:     d.BattleID,
		Disputer:     types.FormatAddress(d.Disputer),
		EvidenceHash: "0x" + hex.EncodeToString(d.EvidenceHash[:]),
		FiledAt:      d.FiledAt,
		Resolved:     d.Resolved,
		Upheld:       d.Upheld,
	}
}

type gameView struct {
	Authority          string `json:"authority"`
	Treasury           string `json:"treasury"`
	Symbol             string `json:"symbol"`
	CurrentRound       uint64 `json:"currentRound"`
	TotalVolume        uint64 `json:"totalVolume"`
	TotalFeesCollected uint64 `json:"totalFeesCollected"`
	Paused             bool   `json:"paused"`
}

func newGameView(g *rounds.GameState) gameView {
	return gameView{
		Authority:          types.FormatAddress(g.Authority),
		Treasury:           types.FormatAddress(g.Treasury),
		Symbol:             g.Symbol,
		CurrentRound:       g.CurrentRound,
		TotalVolume:        g.TotalVolume,
		TotalFeesCollected: g.TotalFeesCollected,
		Paused:             g.Paused,
	}
}

type roundView struct {
	ID            uint64 `json:"id"`
	StartTime     int64  `json:"startTime"`
	LockTime      int64  `json:"lockTime"`
	EndTime       int64  `json:"endTime"`
	StartPrice    uint64 `json:"startPrice"`
	EndPrice      uint64 `json:"endPrice,omitempty"`
	UpPool        uint64 `json:"upPool"`
	DownPool      uint64 `json:"downPool"`
	TotalPool     uint64 `json:"totalPool"`
	Status        string `json:"status"`
	Winner        string `json:"winner"`
	FeesWithdrawn bool   `json:"feesWithdrawn"`
}

func newRoundView(r *rounds.Round) roundView {
	return roundView{
		ID:            r.ID,
		StartTime:     r.StartTime,
		LockTime:      r.LockTime,
		EndTime:       r.EndTime,
		StartPrice:    r.StartPrice,
		EndPrice:      r.EndPrice,
		UpPool:        r.UpPool,
		DownPool:      r.DownPool,
		TotalPool:     r.TotalPool,
		Status:        r.Status.String(),
		Winner:        r.Winner.String(),
		FeesWithdrawn: r.FeesWithdrawn,
	}
}

type positionView struct {
	Player   string `json:"player"`
	RoundID  uint64 `json:"roundId"`
	Side     string `json:"side"`
	Amount   uint64 `json:"amount"`
	PlacedAt int64  `json:"placedAt"`
	Claimed  bool   `json:"claimed"`
}

func newPositionView(p *rounds.Position) positionView {
	return positionView{
		Player:   types.FormatAddress(p.Player),
		RoundID:  p.RoundID,
		Side:     p.Side.String(),
		Amount:   p.Amount,
		PlacedAt: p.PlacedAt,
		Claimed:  p.Claimed,
	}
}

func parseBattleSide(s string) (battle.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "creator":
		return battle.SideCreator, nil
	case "opponent":
		return battle.SideOpponent, nil
	default:
		return 0, fmt.Errorf("rpc: unknown side %q", s)
	}
}

func parseRoundSide(s string) (rounds.BetSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return rounds.BetUp, nil
	case "down":
		return rounds.BetDown, nil
	default:
		return 0, fmt.Errorf("rpc: unknown side %q", s)
	}
}

func parseHash(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return out, fmt.Errorf("rpc: invalid hash %q: %w", s, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("rpc: hash %q must be %d bytes", s, len(out))
	}
	copy(out[:], raw)
	return out, nil
}

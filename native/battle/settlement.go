package battle

import (
	"arenachain/native/safemath"
)

// totalPoolClamped sums the three pools with checked addition. An overflowing
// sum clamps to 0, which forces the draw path instead of aborting the
// settlement proposal.
func totalPoolClamped(b *Battle) uint64 {
	sum, err := safemath.Add(b.PlayerPool, b.SpectatorPoolCreator)
	if err != nil {
		return 0
	}
	sum, err = safemath.Add(sum, b.SpectatorPoolOpponent)
	if err != nil {
		return 0
	}
	return sum
}

// ProposeSettlement records the authority's preliminary result and opens the
// dispute window. Battles whose total pool is below MinPoolForSettlement are
// unconditionally proposed as draws, regardless of the supplied winner.
func (e *Engine) ProposeSettlement(id uint64, caller [20]byte, winner Side) error {
	if _, err := e.requireAuthority(caller); err != nil {
		return err
	}
	if !winner.Valid() {
		return ErrInvalidSide
	}
	b, err := e.loadBattle(id)
	if err != nil {
		return err
	}
	if b.Status != StatusActive {
		return ErrBattleNotActive
	}
	now := e.now()
	if now < b.EndsAt {
		return ErrBattleNotEnded
	}
	if totalPoolClamped(b) < MinPoolForSettlement {
		b.ProposedWinner = [20]byte{}
	} else {
		b.ProposedWinner = b.principal(winner)
	}
	b.Status = StatusPendingDispute
	b.DisputeDeadline = now + DisputeWindowSecs
	if err := e.state.BattlePut(b); err != nil {
		return err
	}
	e.emit(NewSettlementProposedEvent(b))
	return nil
}

// FileDispute stakes the dispute bond and challenges the proposed result.
// Open to anyone while the window is open; the status transition to Disputed
// guarantees at most one dispute record per battle.
func (e *Engine) FileDispute(id uint64, disputer [20]byte, evidenceHash [32]byte) (*Dispute, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return nil, err
	}
	if disputer == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if b.Status != StatusPendingDispute {
		return nil, ErrNotPendingDispute
	}
	now := e.now()
	if now >= b.DisputeDeadline {
		return nil, ErrDisputeWindowClosed
	}
	if err := e.state.Transfer(disputer, DisputeVaultAddress(id), DisputeBond); err != nil {
		return nil, err
	}
	d := &Dispute{
		BattleID:     id,
		Disputer:     disputer,
		EvidenceHash: evidenceHash,
		FiledAt:      now,
	}
	if err := e.state.DisputePut(d); err != nil {
		return nil, err
	}
	b.Status = StatusDisputed
	if err := e.state.BattlePut(b); err != nil {
		return nil, err
	}
	e.emit(NewDisputeFiledEvent(b, d))
	return d.Clone(), nil
}

// ResolveDispute settles a disputed battle (authority only). Upheld: the
// disputer's bond is forfeited to the treasury and the proposal stands.
// Overturned: the bond is refunded and the winner flips to the other
// principal. Either way the battle becomes Settled and fees accrue on the
// final pools.
func (e *Engine) ResolveDispute(id uint64, caller [20]byte, upheld bool) error {
	cfg, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	b, err := e.loadBattle(id)
	if err != nil {
		return err
	}
	if b.Status != StatusDisputed {
		return ErrNotDisputed
	}
	d, ok := e.state.DisputeGet(id)
	if !ok {
		return ErrDisputeNotFound
	}
	if d.Resolved {
		return ErrDisputeResolved
	}
	d.Resolved = true
	d.Upheld = upheld

	if upheld {
		if err := e.state.Transfer(DisputeVaultAddress(id), cfg.Treasury, DisputeBond); err != nil {
			return err
		}
		cfg.TotalFeesCollected = saturatingAdd(cfg.TotalFeesCollected, DisputeBond)
	} else {
		if b.ProposedWinner == b.Creator {
			b.ProposedWinner = b.Opponent
		} else {
			b.ProposedWinner = b.Creator
		}
		if err := e.state.Transfer(DisputeVaultAddress(id), d.Disputer, DisputeBond); err != nil {
			return err
		}
	}

	b.Winner = b.ProposedWinner
	b.Status = StatusSettled
	b.SettledAt = e.now()
	accrueSettlementTotals(cfg, b)

	if err := e.state.DisputePut(d); err != nil {
		return err
	}
	if err := e.state.BattlePut(b); err != nil {
		return err
	}
	if err := e.state.ConfigPut(cfg); err != nil {
		return err
	}
	e.emit(NewDisputeResolvedEvent(b, d))
	e.emit(NewBattleSettledEvent(b))
	return nil
}

// FinalizeSettlement confirms an unchallenged proposal once the dispute
// window has elapsed. Permissionless crank. Draws settle fee-free.
func (e *Engine) FinalizeSettlement(id uint64) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	b, err := e.loadBattle(id)
	if err != nil {
		return err
	}
	if b.Status != StatusPendingDispute {
		return ErrNotPendingDispute
	}
	if e.now() < b.DisputeDeadline {
		return ErrDisputeWindowOpen
	}
	b.Winner = b.ProposedWinner
	b.Status = StatusSettled
	b.SettledAt = e.now()
	if !b.IsDraw() {
		accrueSettlementTotals(cfg, b)
		if err := e.state.ConfigPut(cfg); err != nil {
			return err
		}
	}
	if err := e.state.BattlePut(b); err != nil {
		return err
	}
	e.emit(NewBattleSettledEvent(b))
	return nil
}

// battleFees computes the two rakes the battle owes the platform. Failed
// checked steps contribute 0, matching the settlement clamp behaviour.
func battleFees(b *Battle) (playerFee, spectatorFee uint64) {
	playerFee, err := safemath.FeeAmount(b.PlayerPool, PlayerRakeBps)
	if err != nil {
		playerFee = 0
	}
	spectatorPool, err := safemath.Add(b.SpectatorPoolCreator, b.SpectatorPoolOpponent)
	if err != nil {
		spectatorPool = 0
	}
	spectatorFee, err = safemath.FeeAmount(spectatorPool, SpectatorRakeBps)
	if err != nil {
		spectatorFee = 0
	}
	return playerFee, spectatorFee
}

// accrueSettlementTotals rolls the battle's fees and volume into the global
// counters exactly once, at the moment the battle settles. Accrual saturates:
// a counter that would overflow keeps its prior value rather than failing the
// settlement.
func accrueSettlementTotals(cfg *GlobalConfig, b *Battle) {
	playerFee, spectatorFee := battleFees(b)
	cfg.TotalFeesCollected = saturatingAdd(saturatingAdd(cfg.TotalFeesCollected, playerFee), spectatorFee)
	spectatorPool, err := safemath.Add(b.SpectatorPoolCreator, b.SpectatorPoolOpponent)
	if err != nil {
		spectatorPool = 0
	}
	cfg.TotalVolume = saturatingAdd(saturatingAdd(cfg.TotalVolume, b.PlayerPool), spectatorPool)
}

func saturatingAdd(a, b uint64) uint64 {
	sum, err := safemath.Add(a, b)
	if err != nil {
		return a
	}
	return sum
}

package battle

import (
	"arenachain/native/safemath"
)

// ClaimPlayerPrize pays the confirmed winner their pool share after the
// player rake. One-shot: the prizeClaimed flag is set in the same atomic
// transition as the transfer.
func (e *Engine) ClaimPlayerPrize(id uint64, caller [20]byte) (uint64, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if caller == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	if caller != b.Winner {
		return 0, ErrNotWinner
	}
	if b.PrizeClaimed {
		return 0, ErrAlreadyClaimed
	}
	payout, err := safemath.AmountAfterFee(b.PlayerPool, PlayerRakeBps)
	if err != nil {
		return 0, ErrInvalidPayout
	}
	if err := e.state.Transfer(VaultAddress(id), caller, payout); err != nil {
		return 0, err
	}
	b.PrizeClaimed = true
	if err := e.state.BattlePut(b); err != nil {
		return 0, err
	}
	e.emit(NewPrizeClaimedEvent(b, caller, payout))
	return payout, nil
}

// ClaimSpectatorWinnings pays a spectator whose backed side won. When the
// opposing pool is empty the bettor simply gets their stake back, fee-free:
// there is nothing to share. Otherwise the payout is the bettor's
// proportional share of the raked total spectator pool.
func (e *Engine) ClaimSpectatorWinnings(id uint64, caller [20]byte) (uint64, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	bet, ok := e.state.BetGet(id, caller)
	if !ok {
		return 0, ErrBetNotFound
	}
	if bet.Claimed {
		return 0, ErrAlreadyClaimed
	}
	// A draw also lands here: the zero winner matches neither principal.
	if b.principal(bet.BackedSide) != b.Winner {
		return 0, ErrBetLost
	}
	var winningPool, losingPool uint64
	if bet.BackedSide == SideCreator {
		winningPool, losingPool = b.SpectatorPoolCreator, b.SpectatorPoolOpponent
	} else {
		winningPool, losingPool = b.SpectatorPoolOpponent, b.SpectatorPoolCreator
	}
	var payout uint64
	if losingPool == 0 {
		payout = bet.Amount
	} else {
		totalPool, err := safemath.Add(b.SpectatorPoolCreator, b.SpectatorPoolOpponent)
		if err != nil {
			return 0, ErrInvalidPayout
		}
		poolAfterFee, err := safemath.AmountAfterFee(totalPool, SpectatorRakeBps)
		if err != nil {
			return 0, ErrInvalidPayout
		}
		payout, err = safemath.ProportionalShare(bet.Amount, poolAfterFee, winningPool)
		if err != nil {
			return 0, ErrInvalidPayout
		}
	}
	if err := e.state.Transfer(VaultAddress(id), caller, payout); err != nil {
		return 0, err
	}
	bet.Claimed = true
	if err := e.state.BetPut(bet); err != nil {
		return 0, err
	}
	e.emit(NewBetClaimedEvent(b, bet, payout))
	return payout, nil
}

// ClaimPlayerDrawRefund returns a player's entry fee after a draw settlement.
// Fee-free, guarded by a one-shot receipt per player.
func (e *Engine) ClaimPlayerDrawRefund(id uint64, caller [20]byte) (uint64, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if caller == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	if !b.IsDraw() {
		return 0, ErrNotADraw
	}
	if receipt, ok := e.state.DrawRefundGet(id, caller); ok && receipt.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if !b.HasPlayer(caller) {
		return 0, ErrNotAPlayer
	}
	if err := e.state.Transfer(VaultAddress(id), caller, b.EntryFee); err != nil {
		return 0, err
	}
	receipt := &DrawRefund{BattleID: id, Player: caller, Claimed: true}
	if err := e.state.DrawRefundPut(receipt); err != nil {
		return 0, err
	}
	e.emit(NewRefundEvent(b, caller, b.EntryFee, "player_draw_refund"))
	return b.EntryFee, nil
}

// RefundSpectatorDrawBet returns a spectator's full stake after a draw
// settlement. No rake.
func (e *Engine) RefundSpectatorDrawBet(id uint64, caller [20]byte) (uint64, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	if !b.IsDraw() {
		return 0, ErrNotADraw
	}
	return e.refundBet(b, caller, "spectator_draw_refund")
}

// RefundSpectatorBet returns a spectator's full stake after a cancellation.
// No rake, the battle never completed.
func (e *Engine) RefundSpectatorBet(id uint64, caller [20]byte) (uint64, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if b.Status != StatusCancelled {
		return 0, ErrBattleNotCancelled
	}
	return e.refundBet(b, caller, "spectator_cancel_refund")
}

func (e *Engine) refundBet(b *Battle, caller [20]byte, kind string) (uint64, error) {
	bet, ok := e.state.BetGet(b.ID, caller)
	if !ok {
		return 0, ErrBetNotFound
	}
	if bet.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if err := e.state.Transfer(VaultAddress(b.ID), caller, bet.Amount); err != nil {
		return 0, err
	}
	bet.Claimed = true
	if err := e.state.BetPut(bet); err != nil {
		return 0, err
	}
	e.emit(NewRefundEvent(b, caller, bet.Amount, kind))
	return bet.Amount, nil
}

// WithdrawFees moves a settled battle's accrued rake to the treasury
// (authority only). Gated on the prize being claimed first so the withdrawal
// can never drain funds the winner is still owed; capped at the remaining
// escrow balance.
func (e *Engine) WithdrawFees(id uint64, caller [20]byte) (uint64, error) {
	cfg, err := e.requireAuthority(caller)
	if err != nil {
		return 0, err
	}
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	if !b.PrizeClaimed {
		return 0, ErrPrizeNotYetClaimed
	}
	if b.FeesWithdrawn {
		return 0, ErrFeesWithdrawn
	}
	playerFee, spectatorFee := battleFees(b)
	totalFee := saturatingAdd(playerFee, spectatorFee)
	balance, err := e.state.BalanceOf(VaultAddress(id))
	if err != nil {
		return 0, err
	}
	withdrawable := totalFee
	if balance < withdrawable {
		withdrawable = balance
	}
	if withdrawable > 0 {
		if err := e.state.Transfer(VaultAddress(id), cfg.Treasury, withdrawable); err != nil {
			return 0, err
		}
	}
	b.FeesWithdrawn = true
	if err := e.state.BattlePut(b); err != nil {
		return 0, err
	}
	e.emit(NewFeesWithdrawnEvent(b, withdrawable))
	return withdrawable, nil
}

// SweepUnclaimed forfeits the entire remaining escrow to the treasury after
// the claim timeout (authority only). Deliberately a full sweep, not partial.
func (e *Engine) SweepUnclaimed(id uint64, caller [20]byte) (uint64, error) {
	cfg, err := e.requireAuthority(caller)
	if err != nil {
		return 0, err
	}
	b, err := e.loadBattle(id)
	if err != nil {
		return 0, err
	}
	if b.Status != StatusSettled {
		return 0, ErrBattleNotSettled
	}
	if b.PrizeClaimed {
		return 0, ErrAlreadyClaimed
	}
	if e.now() < b.SettledAt+ClaimTimeoutSecs {
		return 0, ErrClaimTimeoutNotMet
	}
	balance, err := e.state.BalanceOf(VaultAddress(id))
	if err != nil {
		return 0, err
	}
	if balance > 0 {
		if err := e.state.Transfer(VaultAddress(id), cfg.Treasury, balance); err != nil {
			return 0, err
		}
	}
	b.PrizeClaimed = true
	b.FeesWithdrawn = true
	if err := e.state.BattlePut(b); err != nil {
		return 0, err
	}
	e.emit(NewSweptEvent(b, balance))
	return balance, nil
}

package battle

import (
	"errors"

	"arenachain/native/safemath"
)

// CreateBattle opens a new lobby. The entry fee moves into the battle's
// escrow vault immediately; the identifier comes from the global counter.
func (e *Engine) CreateBattle(creator [20]byte, entryFee uint64) (*Battle, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if creator == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if entryFee < MinEntry {
		return nil, ErrEntryFeeTooLow
	}
	id := cfg.TotalBattles
	nextTotal, err := safemath.Add(cfg.TotalBattles, 1)
	if err != nil {
		return nil, ErrPoolOverflow
	}
	if err := e.state.Transfer(creator, VaultAddress(id), entryFee); err != nil {
		return nil, err
	}
	b := &Battle{
		ID:         id,
		Creator:    creator,
		EntryFee:   entryFee,
		Status:     StatusWaiting,
		PlayerPool: entryFee,
		CreatedAt:  e.now(),
	}
	if err := e.state.BattlePut(b); err != nil {
		return nil, err
	}
	cfg.TotalBattles = nextTotal
	if err := e.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(NewBattleCreatedEvent(b))
	return b.Clone(), nil
}

// JoinBattle fills the opponent slot, doubles the player pool and starts the
// clock.
func (e *Engine) JoinBattle(id uint64, opponent [20]byte) (*Battle, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return nil, err
	}
	if opponent == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if b.Status != StatusWaiting {
		return nil, ErrBattleNotWaiting
	}
	if b.Creator == opponent {
		return nil, ErrCannotJoinOwn
	}
	pool, err := safemath.Add(b.PlayerPool, b.EntryFee)
	if err != nil {
		return nil, ErrPoolOverflow
	}
	if err := e.state.Transfer(opponent, VaultAddress(id), b.EntryFee); err != nil {
		return nil, err
	}
	now := e.now()
	b.Opponent = opponent
	b.PlayerPool = pool
	b.Status = StatusActive
	b.StartedAt = now
	b.EndsAt = now + BattleDurationSecs
	if err := e.state.BattlePut(b); err != nil {
		return nil, err
	}
	e.emit(NewBattleJoinedEvent(b))
	return b.Clone(), nil
}

// CancelBattle refunds the creator and closes a lobby that never started.
func (e *Engine) CancelBattle(id uint64, caller [20]byte) error {
	b, err := e.loadBattle(id)
	if err != nil {
		return err
	}
	if b.Status != StatusWaiting {
		return ErrCannotCancel
	}
	if caller != b.Creator {
		return ErrNotCreator
	}
	if err := e.state.Transfer(VaultAddress(id), b.Creator, b.EntryFee); err != nil {
		return err
	}
	b.Status = StatusCancelled
	if err := e.state.BattlePut(b); err != nil {
		return err
	}
	e.emit(NewBattleCancelledEvent(b))
	return nil
}

// PlaceSpectatorBet opens a third-party position on the battle outcome. A
// bettor holds at most one position per battle.
func (e *Engine) PlaceSpectatorBet(id uint64, bettor [20]byte, side Side, amount uint64) (*SpectatorBet, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return nil, err
	}
	if bettor == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if b.Status != StatusActive {
		return nil, ErrBattleNotActive
	}
	if b.BettingLocked {
		return nil, ErrBettingLocked
	}
	if e.now() >= b.EndsAt-BettingLockBeforeEnd {
		return nil, ErrBettingLocked
	}
	if amount < MinSpectatorBet {
		return nil, ErrBetTooSmall
	}
	if _, ok := e.state.BetGet(id, bettor); ok {
		return nil, ErrDuplicateBet
	}
	var pool uint64
	switch side {
	case SideCreator:
		pool, err = safemath.Add(b.SpectatorPoolCreator, amount)
	case SideOpponent:
		pool, err = safemath.Add(b.SpectatorPoolOpponent, amount)
	}
	if err != nil {
		if errors.Is(err, safemath.ErrOverflow) {
			return nil, ErrPoolOverflow
		}
		return nil, err
	}
	if err := e.state.Transfer(bettor, VaultAddress(id), amount); err != nil {
		return nil, err
	}
	if side == SideCreator {
		b.SpectatorPoolCreator = pool
	} else {
		b.SpectatorPoolOpponent = pool
	}
	bet := &SpectatorBet{
		Bettor:     bettor,
		BattleID:   id,
		BackedSide: side,
		Amount:     amount,
	}
	if err := e.state.BetPut(bet); err != nil {
		return nil, err
	}
	if err := e.state.BattlePut(b); err != nil {
		return nil, err
	}
	e.emit(NewBetPlacedEvent(b, bet))
	return bet.Clone(), nil
}

// LockBetting closes the spectator market once the lock buffer is reached.
// Permissionless crank.
func (e *Engine) LockBetting(id uint64) error {
	b, err := e.loadBattle(id)
	if err != nil {
		return err
	}
	if b.Status != StatusActive {
		return ErrBattleNotActive
	}
	if e.now() < b.EndsAt-BettingLockBeforeEnd {
		return ErrTooEarlyToLock
	}
	b.BettingLocked = true
	if err := e.state.BattlePut(b); err != nil {
		return err
	}
	e.emit(NewBettingLockedEvent(b))
	return nil
}

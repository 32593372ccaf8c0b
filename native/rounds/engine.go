package rounds

import (
	"encoding/binary"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"arenachain/core/events"
	"arenachain/core/types"
	"arenachain/native/oracle"
	"arenachain/native/safemath"
)

// engineState is the narrow view of the ledger and record store the engine
// mutates. Implementations must apply each call atomically.
type engineState interface {
	GameGet() (*GameState, bool)
	GamePut(*GameState) error
	RoundGet(id uint64) (*Round, bool)
	RoundPut(*Round) error
	PositionGet(roundID uint64, player [20]byte) (*Position, bool)
	PositionPut(*Position) error
	BalanceOf(addr [20]byte) (uint64, error)
	Transfer(from, to [20]byte, amount uint64) error
}

type roundEvent struct {
	evt *types.Event
}

func (e roundEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e roundEvent) Event() *types.Event { return e.evt }

// Engine runs the recurring prediction-round market: a permissionless crank
// settles the expired round against the oracle price and opens the next one.
type Engine struct {
	state   engineState
	feed    oracle.PriceFeed
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a rounds engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPriceFeed configures the oracle feed consulted at round boundaries.
func (e *Engine) SetPriceFeed(feed oracle.PriceFeed) { e.feed = feed }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(roundEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// VaultAddress derives the fund-holding address for a round's escrow.
func VaultAddress(id uint64) [20]byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	hash := ethcrypto.Keccak256([]byte("arena/round_escrow"), buf[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

func (e *Engine) loadGame() (*GameState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	game, ok := e.state.GameGet()
	if !ok {
		return nil, ErrNotInitialized
	}
	return game, nil
}

func (e *Engine) loadRound(id uint64) (*Round, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	r, ok := e.state.RoundGet(id)
	if !ok {
		return nil, ErrRoundNotFound
	}
	return r, nil
}

func (e *Engine) requireAuthority(caller [20]byte) (*GameState, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	if caller != game.Authority {
		return nil, ErrNotAuthority
	}
	return game, nil
}

// fetchPrice reads the configured feed and enforces the freshness window.
func (e *Engine) fetchPrice(symbol string) (uint64, error) {
	if e.feed == nil {
		return 0, ErrInvalidPrice
	}
	quote, err := e.feed.GetPrice(symbol)
	if err != nil {
		return 0, err
	}
	if quote.Price == 0 {
		return 0, ErrInvalidPrice
	}
	if quote.Age(e.now()) > oracle.MaxPriceAgeSecs {
		return 0, ErrStalePrice
	}
	return quote.Price, nil
}

// InitializeGame bootstraps the market singleton and opens round 0 at the
// current oracle price. One-time; the caller becomes the authority.
func (e *Engine) InitializeGame(authority, treasury [20]byte, symbol string) (*GameState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if authority == ([20]byte{}) || treasury == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if _, ok := e.state.GameGet(); ok {
		return nil, ErrAlreadyInitialized
	}
	startPrice, err := e.fetchPrice(symbol)
	if err != nil {
		return nil, err
	}
	now := e.now()
	game := &GameState{
		Authority:    authority,
		Treasury:     treasury,
		Symbol:       symbol,
		CurrentRound: 1,
	}
	round := newRound(0, now, startPrice)
	if err := e.state.RoundPut(round); err != nil {
		return nil, err
	}
	if err := e.state.GamePut(game); err != nil {
		return nil, err
	}
	e.emit(NewGameInitializedEvent(game))
	e.emit(NewRoundOpenedEvent(round))
	return game.Clone(), nil
}

func newRound(id uint64, now int64, startPrice uint64) *Round {
	return &Round{
		ID:         id,
		StartTime:  now,
		LockTime:   now + RoundDurationSecs - BettingLockBeforeEnd,
		EndTime:    now + RoundDurationSecs,
		StartPrice: startPrice,
		Status:     RoundBetting,
		Winner:     WinnerNone,
	}
}

// openRound returns the round currently accepting activity. CurrentRound on
// the game state is the next ID to be created, so the live round is one back.
func (e *Engine) openRound(game *GameState) (*Round, error) {
	if game.CurrentRound == 0 {
		return nil, ErrRoundNotFound
	}
	return e.loadRound(game.CurrentRound - 1)
}

// PlaceBet stakes the caller on a direction for the live round. One position
// per player per round; funds move into the round escrow up front.
func (e *Engine) PlaceBet(caller [20]byte, side BetSide, amount uint64) (*Position, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	if caller == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if game.Paused {
		return nil, ErrGamePaused
	}
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if amount < MinBet {
		return nil, ErrBetTooSmall
	}
	round, err := e.openRound(game)
	if err != nil {
		return nil, err
	}
	if round.Status != RoundBetting {
		return nil, ErrRoundNotBetting
	}
	now := e.now()
	if now >= round.LockTime {
		return nil, ErrBettingClosed
	}
	if _, ok := e.state.PositionGet(round.ID, caller); ok {
		return nil, ErrDuplicatePosition
	}
	// Pre-compute the pool updates so a failed add leaves no partial state.
	var upPool, downPool uint64
	if side == BetUp {
		upPool, err = safemath.Add(round.UpPool, amount)
		downPool = round.DownPool
	} else {
		downPool, err = safemath.Add(round.DownPool, amount)
		upPool = round.UpPool
	}
	if err != nil {
		return nil, ErrPoolOverflow
	}
	totalPool, err := safemath.Add(round.TotalPool, amount)
	if err != nil {
		return nil, ErrPoolOverflow
	}
	if err := e.state.Transfer(caller, VaultAddress(round.ID), amount); err != nil {
		return nil, err
	}
	round.UpPool = upPool
	round.DownPool = downPool
	round.TotalPool = totalPool
	if err := e.state.RoundPut(round); err != nil {
		return nil, err
	}
	position := &Position{
		Player:   caller,
		RoundID:  round.ID,
		Side:     side,
		Amount:   amount,
		PlacedAt: now,
	}
	if err := e.state.PositionPut(position); err != nil {
		return nil, err
	}
	e.emit(NewBetPlacedEvent(round, position))
	return position.Clone(), nil
}

// LockRound closes the betting window once the lock time passes.
// Permissionless; the crank tolerates rounds that were never explicitly
// locked.
func (e *Engine) LockRound(id uint64) error {
	round, err := e.loadRound(id)
	if err != nil {
		return err
	}
	if round.Status != RoundBetting {
		return ErrRoundNotBetting
	}
	if e.now() < round.LockTime {
		return ErrTooEarlyToLock
	}
	round.Status = RoundLocked
	if err := e.state.RoundPut(round); err != nil {
		return err
	}
	e.emit(NewRoundLockedEvent(round))
	return nil
}

// Crank settles the expired live round against the oracle price and opens the
// next round at that price. Anyone can call it; the market only needs one
// honest cranker.
func (e *Engine) Crank(caller [20]byte) (*Round, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	if game.Paused {
		return nil, ErrGamePaused
	}
	round, err := e.openRound(game)
	if err != nil {
		return nil, err
	}
	if round.Status == RoundSettled {
		return nil, ErrRoundNotOpen
	}
	now := e.now()
	if now < round.EndTime {
		return nil, ErrRoundNotEnded
	}
	endPrice, err := e.fetchPrice(game.Symbol)
	if err != nil {
		return nil, err
	}

	round.EndPrice = endPrice
	round.Winner = determineWinner(round.StartPrice, endPrice, round.UpPool, round.DownPool)
	round.Status = RoundSettled

	// Fees only accrue on decisive rounds; draws refund everyone in full.
	if round.Winner != WinnerDraw && round.TotalPool > 0 {
		fee, ferr := safemath.FeeAmount(round.TotalPool, PlatformFeeBps)
		if ferr == nil {
			game.TotalFeesCollected = saturatingAdd(game.TotalFeesCollected, fee)
		}
	}
	game.TotalVolume = saturatingAdd(game.TotalVolume, round.TotalPool)

	next := newRound(game.CurrentRound, now, endPrice)
	game.CurrentRound++

	if err := e.state.RoundPut(round); err != nil {
		return nil, err
	}
	if err := e.state.RoundPut(next); err != nil {
		return nil, err
	}
	if err := e.state.GamePut(game); err != nil {
		return nil, err
	}
	e.emit(NewRoundSettledEvent(round))
	e.emit(NewRoundOpenedEvent(next))
	return round.Clone(), nil
}

// determineWinner maps the price movement to an outcome. One-sided pools and
// sub-threshold movements are draws so no stake is ever captured without a
// real market on both sides.
func determineWinner(startPrice, endPrice, upPool, downPool uint64) Winner {
	if upPool == 0 || downPool == 0 {
		return WinnerDraw
	}
	if startPrice == 0 {
		return WinnerDraw
	}
	var diff uint64
	if endPrice >= startPrice {
		diff = endPrice - startPrice
	} else {
		diff = startPrice - endPrice
	}
	scaled, err := safemath.Mul(diff, safemath.BpsDenominator)
	if err != nil {
		return WinnerDraw
	}
	if scaled/startPrice <= DrawThresholdBps {
		return WinnerDraw
	}
	if endPrice > startPrice {
		return WinnerUp
	}
	return WinnerDown
}

// ClaimWinnings pays out a settled position: a full refund on a draw, a
// proportional share of the raked pool with the early-entry bonus applied on
// a win, nothing on a loss.
func (e *Engine) ClaimWinnings(roundID uint64, caller [20]byte) (uint64, error) {
	round, err := e.loadRound(roundID)
	if err != nil {
		return 0, err
	}
	if round.Status != RoundSettled {
		return 0, ErrRoundNotSettled
	}
	position, ok := e.state.PositionGet(roundID, caller)
	if !ok {
		return 0, ErrPositionNotFound
	}
	if position.Claimed {
		return 0, ErrAlreadyClaimed
	}
	payout, err := calculatePayout(round, position)
	if err != nil {
		return 0, err
	}
	if err := e.state.Transfer(VaultAddress(roundID), caller, payout); err != nil {
		return 0, err
	}
	position.Claimed = true
	if err := e.state.PositionPut(position); err != nil {
		return 0, err
	}
	e.emit(NewWinningsClaimedEvent(round, position, payout))
	return payout, nil
}

func calculatePayout(round *Round, position *Position) (uint64, error) {
	if round.Winner == WinnerDraw {
		return position.Amount, nil
	}
	won := (round.Winner == WinnerUp && position.Side == BetUp) ||
		(round.Winner == WinnerDown && position.Side == BetDown)
	if !won {
		return 0, ErrNotAWinner
	}
	winningPool := round.UpPool
	if round.Winner == WinnerDown {
		winningPool = round.DownPool
	}
	if winningPool == 0 {
		return 0, ErrInvalidPayout
	}
	poolAfterFee, err := safemath.AmountAfterFee(round.TotalPool, PlatformFeeBps)
	if err != nil {
		return 0, ErrInvalidPayout
	}
	base, err := safemath.ProportionalShare(position.Amount, poolAfterFee, winningPool)
	if err != nil {
		return 0, ErrInvalidPayout
	}
	multiplier := earlyBirdMultiplier(round, position)
	payout, err := safemath.ProportionalShare(base, multiplier, safemath.BpsDenominator)
	if err != nil {
		return 0, ErrInvalidPayout
	}
	return payout, nil
}

// earlyBirdMultiplier returns the payout multiplier in basis points. The
// bonus starts at EarlyBirdMaxBps for a bet at round open and decays linearly
// to zero at the lock time.
func earlyBirdMultiplier(round *Round, position *Position) uint64 {
	if position.PlacedAt == 0 {
		return safemath.BpsDenominator
	}
	timeIntoRound := position.PlacedAt - round.StartTime
	if timeIntoRound < 0 {
		timeIntoRound = 0
	}
	if timeIntoRound >= BettingDurationSecs {
		return safemath.BpsDenominator
	}
	remaining := uint64(BettingDurationSecs - timeIntoRound)
	bonus := EarlyBirdMaxBps * remaining / uint64(BettingDurationSecs)
	return safemath.BpsDenominator + bonus
}

// SetPaused flips the emergency circuit breaker (authority only). Claims on
// settled rounds keep working while paused.
func (e *Engine) SetPaused(caller [20]byte, paused bool) error {
	game, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	game.Paused = paused
	if err := e.state.GamePut(game); err != nil {
		return err
	}
	e.emit(NewGamePausedEvent(game))
	return nil
}

// WithdrawFees sweeps a settled round's residual escrow, which is the rake
// left behind after claims, to the treasury (authority only).
func (e *Engine) WithdrawFees(roundID uint64, caller [20]byte) (uint64, error) {
	game, err := e.requireAuthority(caller)
	if err != nil {
		return 0, err
	}
	round, err := e.loadRound(roundID)
	if err != nil {
		return 0, err
	}
	if round.Status != RoundSettled {
		return 0, ErrRoundNotSettled
	}
	if round.FeesWithdrawn {
		return 0, ErrFeesWithdrawn
	}
	balance, err := e.state.BalanceOf(VaultAddress(roundID))
	if err != nil {
		return 0, err
	}
	if balance > 0 {
		if err := e.state.Transfer(VaultAddress(roundID), game.Treasury, balance); err != nil {
			return 0, err
		}
	}
	round.FeesWithdrawn = true
	if err := e.state.RoundPut(round); err != nil {
		return 0, err
	}
	e.emit(NewFeesWithdrawnEvent(round, balance))
	return balance, nil
}

// Game returns a copy of the market singleton.
func (e *Engine) Game() (*GameState, error) {
	game, err := e.loadGame()
	if err != nil {
		return nil, err
	}
	return game.Clone(), nil
}

// Round returns a copy of the round record.
func (e *Engine) Round(id uint64) (*Round, error) {
	r, err := e.loadRound(id)
	if err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

// Position returns a copy of a player's stake in a round.
func (e *Engine) Position(roundID uint64, player [20]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	p, ok := e.state.PositionGet(roundID, player)
	if !ok {
		return nil, ErrPositionNotFound
	}
	return p.Clone(), nil
}

func saturatingAdd(a, b uint64) uint64 {
	sum, err := safemath.Add(a, b)
	if err != nil {
		return ^uint64(0)
	}
	return sum
}

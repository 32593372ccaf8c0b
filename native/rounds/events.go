package rounds

import (
	"encoding/hex"
	"strconv"

	"arenachain/core/types"
)

const (
	EventTypeGameInitialized = "rounds.game.initialized"
	EventTypeGamePaused      = "rounds.game.paused"
	EventTypeRoundOpened     = "rounds.opened"
	EventTypeRoundLocked     = "rounds.locked"
	EventTypeRoundSettled    = "rounds.settled"
	EventTypeBetPlaced       = "rounds.bet_placed"
	EventTypeWinningsClaimed = "rounds.winnings_claimed"
	EventTypeFeesWithdrawn   = "rounds.fees_withdrawn"
)

// NewGameInitializedEvent returns the payload for the market bootstrap.
func NewGameInitializedEvent(g *GameState) *types.Event {
	return newGameEvent(EventTypeGameInitialized, g)
}

// NewGamePausedEvent returns the payload emitted when the circuit breaker
// flips.
func NewGamePausedEvent(g *GameState) *types.Event {
	return newGameEvent(EventTypeGamePaused, g)
}

// NewRoundOpenedEvent returns the payload for a freshly opened round.
func NewRoundOpenedEvent(r *Round) *types.Event {
	return newRoundEvent(EventTypeRoundOpened, r)
}

// NewRoundLockedEvent returns the payload emitted when betting closes.
func NewRoundLockedEvent(r *Round) *types.Event {
	return newRoundEvent(EventTypeRoundLocked, r)
}

// NewRoundSettledEvent returns the payload for a settled round.
func NewRoundSettledEvent(r *Round) *types.Event {
	return newRoundEvent(EventTypeRoundSettled, r)
}

// NewBetPlacedEvent returns the payload for a new position.
func NewBetPlacedEvent(r *Round, p *Position) *types.Event {
	evt := newRoundEvent(EventTypeBetPlaced, r)
	attachPosition(evt, p)
	return evt
}

// NewWinningsClaimedEvent returns the payload for a claimed payout.
func NewWinningsClaimedEvent(r *Round, p *Position, payout uint64) *types.Event {
	evt := newRoundEvent(EventTypeWinningsClaimed, r)
	attachPosition(evt, p)
	evt.Attributes["payout"] = strconv.FormatUint(payout, 10)
	return evt
}

// NewFeesWithdrawnEvent returns the payload for a treasury fee sweep.
func NewFeesWithdrawnEvent(r *Round, amount uint64) *types.Event {
	evt := newRoundEvent(EventTypeFeesWithdrawn, r)
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

func newGameEvent(eventType string, g *GameState) *types.Event {
	attrs := make(map[string]string)
	if g == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["authority"] = hex.EncodeToString(g.Authority[:])
	attrs["treasury"] = hex.EncodeToString(g.Treasury[:])
	attrs["symbol"] = g.Symbol
	attrs["currentRound"] = strconv.FormatUint(g.CurrentRound, 10)
	attrs["paused"] = strconv.FormatBool(g.Paused)
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newRoundEvent(eventType string, r *Round) *types.Event {
	attrs := make(map[string]string)
	if r == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(r.ID, 10)
	attrs["status"] = r.Status.String()
	attrs["startPrice"] = strconv.FormatUint(r.StartPrice, 10)
	attrs["upPool"] = strconv.FormatUint(r.UpPool, 10)
	attrs["downPool"] = strconv.FormatUint(r.DownPool, 10)
	if r.Status == RoundSettled {
		attrs["endPrice"] = strconv.FormatUint(r.EndPrice, 10)
		attrs["winner"] = r.Winner.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func attachPosition(evt *types.Event, p *Position) {
	if p == nil {
		return
	}
	evt.Attributes["player"] = hex.EncodeToString(p.Player[:])
	evt.Attributes["side"] = p.Side.String()
	evt.Attributes["betAmount"] = strconv.FormatUint(p.Amount, 10)
}

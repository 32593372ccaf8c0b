package battle

import (
	"encoding/hex"
	"strconv"

	"arenachain/core/types"
)

const (
	EventTypeConfigInitialized    = "battle.config.initialized"
	EventTypeTreasuryUpdated      = "battle.config.treasury_updated"
	EventTypeAuthorityProposed    = "battle.config.authority_proposed"
	EventTypeAuthorityTransferred = "battle.config.authority_transferred"
	EventTypeBattleCreated        = "battle.created"
	EventTypeBattleJoined         = "battle.joined"
	EventTypeBattleCancelled      = "battle.cancelled"
	EventTypeBetPlaced            = "battle.bet_placed"
	EventTypeBettingLocked        = "battle.betting_locked"
	EventTypeSettlementProposed   = "battle.settlement_proposed"
	EventTypeDisputeFiled         = "battle.dispute_filed"
	EventTypeDisputeResolved      = "battle.dispute_resolved"
	EventTypeBattleSettled        = "battle.settled"
	EventTypePrizeClaimed         = "battle.prize_claimed"
	EventTypeBetClaimed           = "battle.bet_claimed"
	EventTypeRefundClaimed        = "battle.refund_claimed"
	EventTypeFeesWithdrawn        = "battle.fees_withdrawn"
	EventTypeSwept                = "battle.swept"
)

// NewConfigInitializedEvent returns the canonical payload for the platform
// bootstrap.
func NewConfigInitializedEvent(c *GlobalConfig) *types.Event {
	return newConfigEvent(EventTypeConfigInitialized, c)
}

// NewTreasuryUpdatedEvent returns the payload emitted when the treasury
// address changes.
func NewTreasuryUpdatedEvent(c *GlobalConfig) *types.Event {
	return newConfigEvent(EventTypeTreasuryUpdated, c)
}

// NewAuthorityProposedEvent returns the payload for step one of an authority
// transfer.
func NewAuthorityProposedEvent(c *GlobalConfig) *types.Event {
	return newConfigEvent(EventTypeAuthorityProposed, c)
}

// NewAuthorityTransferredEvent returns the payload for a completed authority
// transfer.
func NewAuthorityTransferredEvent(c *GlobalConfig) *types.Event {
	return newConfigEvent(EventTypeAuthorityTransferred, c)
}

// NewBattleCreatedEvent returns the canonical payload for a new lobby.
func NewBattleCreatedEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeBattleCreated, b)
}

// NewBattleJoinedEvent returns the payload emitted when an opponent joins.
func NewBattleJoinedEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeBattleJoined, b)
}

// NewBattleCancelledEvent returns the payload for a cancelled lobby.
func NewBattleCancelledEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeBattleCancelled, b)
}

// NewBettingLockedEvent returns the payload emitted when the spectator market
// closes.
func NewBettingLockedEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeBettingLocked, b)
}

// NewSettlementProposedEvent returns the payload emitted when the dispute
// window opens.
func NewSettlementProposedEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeSettlementProposed, b)
}

// NewBattleSettledEvent returns the payload for a settled battle.
func NewBattleSettledEvent(b *Battle) *types.Event {
	return newBattleEvent(EventTypeBattleSettled, b)
}

// NewBetPlacedEvent returns the payload for a new spectator position.
func NewBetPlacedEvent(b *Battle, bet *SpectatorBet) *types.Event {
	evt := newBattleEvent(EventTypeBetPlaced, b)
	attachBet(evt, bet)
	return evt
}

// NewBetClaimedEvent returns the payload for claimed spectator winnings.
func NewBetClaimedEvent(b *Battle, bet *SpectatorBet, payout uint64) *types.Event {
	evt := newBattleEvent(EventTypeBetClaimed, b)
	attachBet(evt, bet)
	evt.Attributes["payout"] = strconv.FormatUint(payout, 10)
	return evt
}

// NewDisputeFiledEvent returns the payload emitted when a challenge lands.
func NewDisputeFiledEvent(b *Battle, d *Dispute) *types.Event {
	evt := newBattleEvent(EventTypeDisputeFiled, b)
	attachDispute(evt, d)
	return evt
}

// NewDisputeResolvedEvent returns the payload emitted when a challenge is
// resolved.
func NewDisputeResolvedEvent(b *Battle, d *Dispute) *types.Event {
	evt := newBattleEvent(EventTypeDisputeResolved, b)
	attachDispute(evt, d)
	evt.Attributes["upheld"] = strconv.FormatBool(d.Upheld)
	return evt
}

// NewPrizeClaimedEvent returns the payload for a claimed player prize.
func NewPrizeClaimedEvent(b *Battle, player [20]byte, payout uint64) *types.Event {
	evt := newBattleEvent(EventTypePrizeClaimed, b)
	evt.Attributes["player"] = hex.EncodeToString(player[:])
	evt.Attributes["payout"] = strconv.FormatUint(payout, 10)
	return evt
}

// NewRefundEvent returns the payload for a draw or cancellation refund.
func NewRefundEvent(b *Battle, recipient [20]byte, amount uint64, kind string) *types.Event {
	evt := newBattleEvent(EventTypeRefundClaimed, b)
	evt.Attributes["recipient"] = hex.EncodeToString(recipient[:])
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	evt.Attributes["kind"] = kind
	return evt
}

// NewFeesWithdrawnEvent returns the payload for a treasury fee withdrawal.
func NewFeesWithdrawnEvent(b *Battle, amount uint64) *types.Event {
	evt := newBattleEvent(EventTypeFeesWithdrawn, b)
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

// NewSweptEvent returns the payload for a swept escrow.
func NewSweptEvent(b *Battle, amount uint64) *types.Event {
	evt := newBattleEvent(EventTypeSwept, b)
	evt.Attributes["amount"] = strconv.FormatUint(amount, 10)
	return evt
}

func newBattleEvent(eventType string, b *Battle) *types.Event {
	attrs := make(map[string]string)
	if b == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(b.ID, 10)
	attrs["creator"] = hex.EncodeToString(b.Creator[:])
	attrs["status"] = b.Status.String()
	attrs["entryFee"] = strconv.FormatUint(b.EntryFee, 10)
	attrs["playerPool"] = strconv.FormatUint(b.PlayerPool, 10)
	if b.Opponent != ([20]byte{}) {
		attrs["opponent"] = hex.EncodeToString(b.Opponent[:])
	}
	if b.Status == StatusSettled {
		attrs["winner"] = hex.EncodeToString(b.Winner[:])
		attrs["draw"] = strconv.FormatBool(b.IsDraw())
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newConfigEvent(eventType string, c *GlobalConfig) *types.Event {
	attrs := make(map[string]string)
	if c == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["authority"] = hex.EncodeToString(c.Authority[:])
	attrs["treasury"] = hex.EncodeToString(c.Treasury[:])
	if c.PendingAuthority != ([20]byte{}) {
		attrs["pendingAuthority"] = hex.EncodeToString(c.PendingAuthority[:])
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func attachBet(evt *types.Event, bet *SpectatorBet) {
	if bet == nil {
		return
	}
	evt.Attributes["bettor"] = hex.EncodeToString(bet.Bettor[:])
	evt.Attributes["backedSide"] = bet.BackedSide.String()
	evt.Attributes["betAmount"] = strconv.FormatUint(bet.Amount, 10)
}

func attachDispute(evt *types.Event, d *Dispute) {
	if d == nil {
		return
	}
	evt.Attributes["disputer"] = hex.EncodeToString(d.Disputer[:])
	evt.Attributes["evidenceHash"] = hex.EncodeToString(d.EvidenceHash[:])
}

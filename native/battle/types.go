package battle

// Platform parameters. These mirror the deployed settlement rules and are
// compiled in rather than configured: changing them mid-flight would break the
// conservation guarantees of already-open battles.
const (
	// PlayerRakeBps is the platform rake on the player prize pool (10%).
	PlayerRakeBps uint32 = 1000
	// SpectatorRakeBps is the platform rake on spectator winnings (5%).
	SpectatorRakeBps uint32 = 500
	// MinEntry is the minimum battle entry fee in base units.
	MinEntry uint64 = 100_000_000
	// MinSpectatorBet is the minimum spectator bet in base units.
	MinSpectatorBet uint64 = 10_000_000
	// BattleDurationSecs is how long a battle runs once joined.
	BattleDurationSecs int64 = 1800
	// BettingLockBeforeEnd closes the spectator market this many seconds
	// before the battle ends.
	BettingLockBeforeEnd int64 = 30
	// DisputeWindowSecs is the challenge window opened by a settlement
	// proposal.
	DisputeWindowSecs int64 = 3600
	// DisputeBond is the stake required to file a dispute. Forfeited to the
	// treasury if the dispute is rejected.
	DisputeBond uint64 = 100_000_000
	// ClaimTimeoutSecs is how long after settlement an unclaimed prize is
	// protected before the authority may sweep it (30 days).
	ClaimTimeoutSecs int64 = 30 * 24 * 60 * 60
	// MinPoolForSettlement is the smallest total pool that settles normally.
	// Anything below is clamped to a draw so fee rounding cannot strand dust.
	MinPoolForSettlement uint64 = 1_000_000
)

// Status enumerates the battle lifecycle states.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusActive
	// StatusPendingDispute: settlement proposed, challenge window open.
	StatusPendingDispute
	// StatusDisputed: a challenge was filed, only explicit resolution can
	// unblock the battle.
	StatusDisputed
	// StatusSettled is terminal.
	StatusSettled
	// StatusCancelled is terminal.
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	return s <= StatusCancelled
}

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusPendingDispute:
		return "pending_dispute"
	case StatusDisputed:
		return "disputed"
	case StatusSettled:
		return "settled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Side names one of the two principals of a battle.
type Side uint8

const (
	SideCreator Side = iota
	SideOpponent
)

// Valid reports whether the side value is within the supported range.
func (s Side) Valid() bool {
	return s == SideCreator || s == SideOpponent
}

func (s Side) String() string {
	switch s {
	case SideCreator:
		return "creator"
	case SideOpponent:
		return "opponent"
	default:
		return "unknown"
	}
}

// Battle is one wagering instance. The identifier is assigned from the global
// battle counter at creation and never changes. Pools only grow in place;
// value leaves the escrow exclusively through the payout paths, each guarded
// by a one-shot claimed flag.
type Battle struct {
	ID       uint64   `json:"id"`
	Creator  [20]byte `json:"creator"`
	Opponent [20]byte `json:"opponent"`
	EntryFee uint64   `json:"entryFee"`
	Status   Status   `json:"status"`
	// Winner is the final confirmed winner, set when the battle settles.
	// The zero address denotes a draw.
	Winner [20]byte `json:"winner"`
	// ProposedWinner holds the authority's proposal while the dispute
	// window is open.
	ProposedWinner        [20]byte `json:"proposedWinner"`
	PlayerPool            uint64   `json:"playerPool"`
	SpectatorPoolCreator  uint64   `json:"spectatorPoolCreator"`
	SpectatorPoolOpponent uint64   `json:"spectatorPoolOpponent"`
	BettingLocked         bool     `json:"bettingLocked"`
	PrizeClaimed          bool     `json:"prizeClaimed"`
	FeesWithdrawn         bool     `json:"feesWithdrawn"`
	CreatedAt             int64    `json:"createdAt"`
	StartedAt             int64    `json:"startedAt"`
	EndsAt                int64    `json:"endsAt"`
	DisputeDeadline       int64    `json:"disputeDeadline"`
	SettledAt             int64    `json:"settledAt"`
}

// Clone returns a copy of the battle so callers can safely mutate it without
// affecting the stored instance.
func (b *Battle) Clone() *Battle {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// IsDraw reports whether the battle settled without a winner.
func (b *Battle) IsDraw() bool {
	return b.Winner == ([20]byte{})
}

// HasPlayer reports whether addr is one of the two principals.
func (b *Battle) HasPlayer(addr [20]byte) bool {
	return addr == b.Creator || addr == b.Opponent
}

// principal resolves a side to its principal address.
func (b *Battle) principal(side Side) [20]byte {
	if side == SideCreator {
		return b.Creator
	}
	return b.Opponent
}

// SpectatorBet is a third-party position on a battle outcome. At most one
// exists per (battle, bettor) pair.
type SpectatorBet struct {
	Bettor     [20]byte `json:"bettor"`
	BattleID   uint64   `json:"battleId"`
	BackedSide Side     `json:"backedSide"`
	Amount     uint64   `json:"amount"`
	Claimed    bool     `json:"claimed"`
}

// Clone returns a copy of the bet.
func (s *SpectatorBet) Clone() *SpectatorBet {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Dispute is the single challenge record a battle may carry. EvidenceHash is
// an opaque commitment the engine never interprets.
type Dispute struct {
	BattleID     uint64   `json:"battleId"`
	Disputer     [20]byte `json:"disputer"`
	EvidenceHash [32]byte `json:"evidenceHash"`
	FiledAt      int64    `json:"filedAt"`
	Resolved     bool     `json:"resolved"`
	// Upheld is true when the original proposal survived the challenge.
	Upheld bool `json:"upheld"`
}

// Clone returns a copy of the dispute.
func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

// DrawRefund is the one-shot receipt guarding a player's draw refund.
type DrawRefund struct {
	BattleID uint64   `json:"battleId"`
	Player   [20]byte `json:"player"`
	Claimed  bool     `json:"claimed"`
}

// GlobalConfig is the platform singleton: authority, treasury and the running
// counters accrued at settlement. TotalBattles is the sole source of new
// battle identifiers.
type GlobalConfig struct {
	Authority          [20]byte `json:"authority"`
	PendingAuthority   [20]byte `json:"pendingAuthority"`
	Treasury           [20]byte `json:"treasury"`
	TotalBattles       uint64   `json:"totalBattles"`
	TotalVolume        uint64   `json:"totalVolume"`
	TotalFeesCollected uint64   `json:"totalFeesCollected"`
}

// Clone returns a copy of the config.
func (c *GlobalConfig) Clone() *GlobalConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

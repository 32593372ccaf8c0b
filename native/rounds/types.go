package rounds

const (
	// PlatformFeeBps is the rake taken from a round's total pool on
	// settlement (500 = 5%).
	PlatformFeeBps uint32 = 500
	// MinBet is the smallest accepted position.
	MinBet uint64 = 10_000_000
	// DrawThresholdBps is the minimum price movement for a decisive round
	// (10 = 0.1%). Anything at or below refunds everyone.
	DrawThresholdBps uint64 = 10
	// RoundDurationSecs is the full lifetime of a round.
	RoundDurationSecs int64 = 30
	// BettingLockBeforeEnd closes betting this many seconds before the round
	// ends so last-moment information cannot be exploited.
	BettingLockBeforeEnd int64 = 5
	// BettingDurationSecs is the open betting window.
	BettingDurationSecs = RoundDurationSecs - BettingLockBeforeEnd
	// EarlyBirdMaxBps caps the early-entry payout bonus (2000 = +20%). The
	// bonus decays linearly to zero across the betting window.
	EarlyBirdMaxBps uint64 = 2000
)

// RoundStatus tracks where a round sits in its lifecycle.
type RoundStatus uint8

const (
	RoundBetting RoundStatus = iota
	RoundLocked
	RoundSettled
)

// Valid reports whether the status is one of the defined lifecycle states.
func (s RoundStatus) Valid() bool {
	return s <= RoundSettled
}

func (s RoundStatus) String() string {
	switch s {
	case RoundBetting:
		return "betting"
	case RoundLocked:
		return "locked"
	case RoundSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// BetSide is the direction a player backs.
type BetSide uint8

const (
	BetUp BetSide = iota
	BetDown
)

// Valid reports whether the side is a defined direction.
func (s BetSide) Valid() bool { return s == BetUp || s == BetDown }

func (s BetSide) String() string {
	switch s {
	case BetUp:
		return "up"
	case BetDown:
		return "down"
	default:
		return "unknown"
	}
}

// Winner is the settlement outcome of a round.
type Winner uint8

const (
	WinnerNone Winner = iota
	WinnerUp
	WinnerDown
	WinnerDraw
)

func (w Winner) String() string {
	switch w {
	case WinnerNone:
		return "none"
	case WinnerUp:
		return "up"
	case WinnerDown:
		return "down"
	case WinnerDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// GameState is the platform singleton for the rounds market.
type GameState struct {
	Authority [20]byte `json:"authority"`
	Treasury  [20]byte `json:"treasury"`
	// Symbol is the asset whose price drives settlement.
	Symbol string `json:"symbol"`
	// CurrentRound is the ID the next crank will open.
	CurrentRound       uint64 `json:"currentRound"`
	TotalVolume        uint64 `json:"totalVolume"`
	TotalFeesCollected uint64 `json:"totalFeesCollected"`
	Paused             bool   `json:"paused"`
}

// Clone returns a deep copy of the game state.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}

// Round is a single prediction window.
type Round struct {
	ID         uint64      `json:"id"`
	StartTime  int64       `json:"startTime"`
	LockTime   int64       `json:"lockTime"`
	EndTime    int64       `json:"endTime"`
	StartPrice uint64      `json:"startPrice"`
	EndPrice   uint64      `json:"endPrice"`
	UpPool     uint64      `json:"upPool"`
	DownPool   uint64      `json:"downPool"`
	TotalPool  uint64      `json:"totalPool"`
	Status     RoundStatus `json:"status"`
	Winner     Winner      `json:"winner"`
	// FeesWithdrawn marks the one-shot treasury sweep of the round's
	// residual escrow.
	FeesWithdrawn bool `json:"feesWithdrawn"`
}

// Clone returns a deep copy of the round.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Position is one player's stake in a round. At most one per (round, player).
type Position struct {
	Player   [20]byte `json:"player"`
	RoundID  uint64   `json:"roundId"`
	Side     BetSide  `json:"side"`
	Amount   uint64   `json:"amount"`
	PlacedAt int64    `json:"placedAt"`
	Claimed  bool     `json:"claimed"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

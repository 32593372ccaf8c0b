package rounds

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"arenachain/native/oracle"
)

type mockState struct {
	game      *GameState
	rounds    map[uint64]*Round
	positions map[string]*Position
	balances  map[[20]byte]uint64
}

func newMockState() *mockState {
	return &mockState{
		rounds:    make(map[uint64]*Round),
		positions: make(map[string]*Position),
		balances:  make(map[[20]byte]uint64),
	}
}

func positionKey(roundID uint64, player [20]byte) string {
	return strconv.FormatUint(roundID, 10) + "/" + string(player[:])
}

func (m *mockState) GameGet() (*GameState, bool) {
	if m.game == nil {
		return nil, false
	}
	return m.game.Clone(), true
}

func (m *mockState) GamePut(g *GameState) error {
	m.game = g.Clone()
	return nil
}

func (m *mockState) RoundGet(id uint64) (*Round, bool) {
	r, ok := m.rounds[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (m *mockState) RoundPut(r *Round) error {
	m.rounds[r.ID] = r.Clone()
	return nil
}

func (m *mockState) PositionGet(roundID uint64, player [20]byte) (*Position, bool) {
	p, ok := m.positions[positionKey(roundID, player)]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (m *mockState) PositionPut(p *Position) error {
	m.positions[positionKey(p.RoundID, p.Player)] = p.Clone()
	return nil
}

func (m *mockState) BalanceOf(addr [20]byte) (uint64, error) {
	return m.balances[addr], nil
}

func (m *mockState) Transfer(from, to [20]byte, amount uint64) error {
	if m.balances[from] < amount {
		return fmt.Errorf("insufficient balance for %x", from)
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *mockState) credit(addr [20]byte, amount uint64) {
	m.balances[addr] += amount
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

var (
	authority = newTestAddress(0xA1)
	treasury  = newTestAddress(0xB2)
	player1   = newTestAddress(0x21)
	player2   = newTestAddress(0x22)
	cranker   = newTestAddress(0x31)
)

type testClock struct {
	now int64
}

func (c *testClock) advance(secs int64) { c.now += secs }

const startPrice = uint64(15_000_000_000)

// newTestEngine wires a fresh engine, mock state, pinned clock, and a manual
// feed already holding a fresh quote, then initializes the game.
func newTestEngine(t *testing.T) (*Engine, *mockState, *testClock, *oracle.ManualFeed) {
	t.Helper()
	st := newMockState()
	clock := &testClock{now: 1_700_000_000}
	feed := oracle.NewManualFeed()
	feed.Set("SOL", startPrice, clock.now)
	engine := NewEngine()
	engine.SetState(st)
	engine.SetPriceFeed(feed)
	engine.SetNowFunc(func() int64 { return clock.now })
	if _, err := engine.InitializeGame(authority, treasury, "SOL"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return engine, st, clock, feed
}

func TestInitializeGame(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	game, err := engine.Game()
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if game.CurrentRound != 1 {
		t.Fatalf("current round %d, want 1", game.CurrentRound)
	}
	round, err := engine.Round(0)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if round.Status != RoundBetting || round.StartPrice != startPrice {
		t.Fatalf("round 0 not open at the oracle price: %+v", round)
	}
	if round.LockTime != clock.now+RoundDurationSecs-BettingLockBeforeEnd {
		t.Fatalf("unexpected lock time %d", round.LockTime)
	}
	if _, err := engine.InitializeGame(authority, treasury, "SOL"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected repeat init rejected, got %v", err)
	}
}

func TestInitializeRejectsZeroAddresses(t *testing.T) {
	st := newMockState()
	feed := oracle.NewManualFeed()
	engine := NewEngine()
	engine.SetState(st)
	engine.SetPriceFeed(feed)
	if _, err := engine.InitializeGame([20]byte{}, treasury, "SOL"); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
	if _, err := engine.InitializeGame(authority, [20]byte{}, "SOL"); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
}

func TestPlaceBetValidations(t *testing.T) {
	engine, st, clock, _ := newTestEngine(t)
	st.credit(player1, 100_000_000)

	if _, err := engine.PlaceBet(player1, BetUp, MinBet-1); !errors.Is(err, ErrBetTooSmall) {
		t.Fatalf("expected bet too small, got %v", err)
	}
	if _, err := engine.PlaceBet(player1, BetSide(9), MinBet); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected invalid side, got %v", err)
	}
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := engine.PlaceBet(player1, BetDown, MinBet); !errors.Is(err, ErrDuplicatePosition) {
		t.Fatalf("expected duplicate rejected, got %v", err)
	}

	round, _ := engine.Round(0)
	if round.UpPool != MinBet || round.TotalPool != MinBet {
		t.Fatalf("pools not updated: %+v", round)
	}
	if st.balances[VaultAddress(0)] != MinBet {
		t.Fatalf("stake not escrowed")
	}

	clock.advance(BettingDurationSecs)
	st.credit(player2, MinBet)
	if _, err := engine.PlaceBet(player2, BetDown, MinBet); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("expected betting closed at lock time, got %v", err)
	}
}

func TestPlaceBetBlockedWhilePaused(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	if err := engine.SetPaused(player1, true); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected not authority, got %v", err)
	}
	if err := engine.SetPaused(authority, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	st.credit(player1, MinBet)
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); !errors.Is(err, ErrGamePaused) {
		t.Fatalf("expected paused rejection, got %v", err)
	}
	if _, err := engine.Crank(cranker); !errors.Is(err, ErrGamePaused) {
		t.Fatalf("expected crank blocked, got %v", err)
	}
	if err := engine.SetPaused(authority, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); err != nil {
		t.Fatalf("bet after unpause: %v", err)
	}
}

func TestLockRound(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	if err := engine.LockRound(0); !errors.Is(err, ErrTooEarlyToLock) {
		t.Fatalf("expected too early, got %v", err)
	}
	clock.advance(BettingDurationSecs)
	if err := engine.LockRound(0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	round, _ := engine.Round(0)
	if round.Status != RoundLocked {
		t.Fatalf("status %v, want locked", round.Status)
	}
	if err := engine.LockRound(0); !errors.Is(err, ErrRoundNotBetting) {
		t.Fatalf("expected repeat lock rejected, got %v", err)
	}
}

func TestCrankTiming(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t)
	if _, err := engine.Crank(cranker); !errors.Is(err, ErrRoundNotEnded) {
		t.Fatalf("expected not ended, got %v", err)
	}
	clock.advance(RoundDurationSecs)
	if _, err := engine.Crank(cranker); err != nil {
		t.Fatalf("crank: %v", err)
	}
}

func TestCrankSettlesAndRotates(t *testing.T) {
	engine, st, clock, feed := newTestEngine(t)
	st.credit(player1, 100_000_000)
	st.credit(player2, 100_000_000)
	if _, err := engine.PlaceBet(player1, BetUp, 100_000_000); err != nil {
		t.Fatalf("bet up: %v", err)
	}
	if _, err := engine.PlaceBet(player2, BetDown, 100_000_000); err != nil {
		t.Fatalf("bet down: %v", err)
	}
	clock.advance(RoundDurationSecs)
	endPrice := uint64(16_000_000_000)
	feed.Set("SOL", endPrice, clock.now)

	settled, err := engine.Crank(cranker)
	if err != nil {
		t.Fatalf("crank: %v", err)
	}
	if settled.Winner != WinnerUp || settled.EndPrice != endPrice {
		t.Fatalf("unexpected settlement: %+v", settled)
	}
	game, _ := engine.Game()
	if game.CurrentRound != 2 {
		t.Fatalf("round counter %d, want 2", game.CurrentRound)
	}
	if game.TotalVolume != 200_000_000 {
		t.Fatalf("volume %d, want 200000000", game.TotalVolume)
	}
	if game.TotalFeesCollected != 10_000_000 {
		t.Fatalf("fees %d, want the 5%% rake", game.TotalFeesCollected)
	}
	next, err := engine.Round(1)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if next.Status != RoundBetting || next.StartPrice != endPrice {
		t.Fatalf("next round not opened at the settlement price: %+v", next)
	}
	if _, err := engine.Crank(cranker); !errors.Is(err, ErrRoundNotEnded) {
		t.Fatalf("expected fresh round not ended, got %v", err)
	}
}

func TestCrankRejectsStalePrice(t *testing.T) {
	engine, _, clock, feed := newTestEngine(t)
	clock.advance(RoundDurationSecs)
	feed.Set("SOL", startPrice, clock.now-oracle.MaxPriceAgeSecs-1)
	if _, err := engine.Crank(cranker); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected stale price, got %v", err)
	}
}

func TestOneSidedRoundIsDraw(t *testing.T) {
	engine, st, clock, feed := newTestEngine(t)
	st.credit(player1, MinBet)
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); err != nil {
		t.Fatalf("bet: %v", err)
	}
	clock.advance(RoundDurationSecs)
	feed.Set("SOL", 20_000_000_000, clock.now)
	settled, err := engine.Crank(cranker)
	if err != nil {
		t.Fatalf("crank: %v", err)
	}
	if settled.Winner != WinnerDraw {
		t.Fatalf("one-sided round must draw, got %v", settled.Winner)
	}
	game, _ := engine.Game()
	if game.TotalFeesCollected != 0 {
		t.Fatalf("draws must not accrue fees")
	}
	refund, err := engine.ClaimWinnings(0, player1)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund != MinBet {
		t.Fatalf("refund %d, want full stake", refund)
	}
}

func TestSubThresholdMoveIsDraw(t *testing.T) {
	engine, st, clock, feed := newTestEngine(t)
	st.credit(player1, MinBet)
	st.credit(player2, MinBet)
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); err != nil {
		t.Fatalf("bet up: %v", err)
	}
	if _, err := engine.PlaceBet(player2, BetDown, MinBet); err != nil {
		t.Fatalf("bet down: %v", err)
	}
	clock.advance(RoundDurationSecs)
	// 0.1% of 15e9 is 15e6; a move of exactly the threshold still draws.
	feed.Set("SOL", startPrice+15_000_000, clock.now)
	settled, err := engine.Crank(cranker)
	if err != nil {
		t.Fatalf("crank: %v", err)
	}
	if settled.Winner != WinnerDraw {
		t.Fatalf("threshold move must draw, got %v", settled.Winner)
	}
}

func TestClaimWinnings(t *testing.T) {
	engine, st, clock, feed := newTestEngine(t)
	st.credit(player1, 100_000_000)
	st.credit(player2, 100_000_000)
	// Bet one second before lock so the early-entry bonus is near zero and
	// the payout stays inside the escrow.
	clock.advance(BettingDurationSecs - 1)
	if _, err := engine.PlaceBet(player1, BetUp, 100_000_000); err != nil {
		t.Fatalf("bet up: %v", err)
	}
	if _, err := engine.PlaceBet(player2, BetDown, 100_000_000); err != nil {
		t.Fatalf("bet down: %v", err)
	}
	clock.advance(RoundDurationSecs - BettingDurationSecs + 1)
	feed.Set("SOL", 16_000_000_000, clock.now)
	if _, err := engine.Crank(cranker); err != nil {
		t.Fatalf("crank: %v", err)
	}

	if _, err := engine.ClaimWinnings(0, player2); !errors.Is(err, ErrNotAWinner) {
		t.Fatalf("expected loser rejected, got %v", err)
	}
	// Pool 200m, 5% rake leaves 190m, whole winning side, bonus 80bps for
	// a bet one second into the remaining window: 190m * 10080 / 10000.
	payout, err := engine.ClaimWinnings(0, player1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if payout != 191_520_000 {
		t.Fatalf("payout %d, want 191520000", payout)
	}
	if _, err := engine.ClaimWinnings(0, player1); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if _, err := engine.ClaimWinnings(0, cranker); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected position not found, got %v", err)
	}
}

func TestClaimRequiresSettledRound(t *testing.T) {
	engine, st, _, _ := newTestEngine(t)
	st.credit(player1, MinBet)
	if _, err := engine.PlaceBet(player1, BetUp, MinBet); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := engine.ClaimWinnings(0, player1); !errors.Is(err, ErrRoundNotSettled) {
		t.Fatalf("expected not settled, got %v", err)
	}
}

func TestEarlyBirdMultiplier(t *testing.T) {
	round := &Round{StartTime: 1_000}
	cases := []struct {
		placedAt int64
		want     uint64
	}{
		{1_000, 12_000},
		{1_000 + BettingDurationSecs/5, 11_600},
		{1_000 + BettingDurationSecs, 10_000},
		{0, 10_000},
	}
	for _, tc := range cases {
		got := earlyBirdMultiplier(round, &Position{PlacedAt: tc.placedAt})
		if got != tc.want {
			t.Fatalf("multiplier at %d = %d, want %d", tc.placedAt, got, tc.want)
		}
	}
}

func TestWithdrawFees(t *testing.T) {
	engine, st, clock, feed := newTestEngine(t)
	st.credit(player1, 100_000_000)
	st.credit(player2, 100_000_000)
	clock.advance(BettingDurationSecs - 1)
	if _, err := engine.PlaceBet(player1, BetUp, 100_000_000); err != nil {
		t.Fatalf("bet up: %v", err)
	}
	if _, err := engine.PlaceBet(player2, BetDown, 100_000_000); err != nil {
		t.Fatalf("bet down: %v", err)
	}
	clock.advance(RoundDurationSecs - BettingDurationSecs + 1)
	feed.Set("SOL", 16_000_000_000, clock.now)
	if _, err := engine.Crank(cranker); err != nil {
		t.Fatalf("crank: %v", err)
	}

	if _, err := engine.WithdrawFees(0, player1); !errors.Is(err, ErrNotAuthority) {
		t.Fatalf("expected not authority, got %v", err)
	}
	if _, err := engine.WithdrawFees(1, authority); !errors.Is(err, ErrRoundNotSettled) {
		t.Fatalf("expected open round rejected, got %v", err)
	}
	if _, err := engine.ClaimWinnings(0, player1); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// Residual escrow after the winner's claim is the effective rake.
	swept, err := engine.WithdrawFees(0, authority)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if swept != 8_480_000 {
		t.Fatalf("swept %d, want 8480000", swept)
	}
	if st.balances[treasury] != 8_480_000 {
		t.Fatalf("treasury not credited")
	}
	if _, err := engine.WithdrawFees(0, authority); !errors.Is(err, ErrFeesWithdrawn) {
		t.Fatalf("expected repeat withdrawal rejected, got %v", err)
	}
}

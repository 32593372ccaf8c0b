package state

import (
	"errors"
	"testing"

	"arenachain/native/battle"
	"arenachain/native/oracle"
	"arenachain/native/rounds"
	"arenachain/storage"
)

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestLedgerTransfer(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)

	if err := m.Credit(alice, 1_000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := m.Transfer(alice, bob, 2_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if err := m.Transfer(alice, bob, 600); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got, _ := m.BalanceOf(alice); got != 400 {
		t.Fatalf("alice balance %d, want 400", got)
	}
	if got, _ := m.BalanceOf(bob); got != 600 {
		t.Fatalf("bob balance %d, want 600", got)
	}
	// A failed transfer must leave the ledger untouched.
	if err := m.Transfer(alice, bob, 500); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got, _ := m.BalanceOf(alice); got != 400 {
		t.Fatalf("alice balance moved on failed transfer: %d", got)
	}
}

func TestCreditOverflow(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := newTestAddress(0x03)
	if err := m.Credit(addr, ^uint64(0)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := m.Credit(addr, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestBattleRecordsSurviveRoundtrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	b := &battle.Battle{
		ID:       7,
		Creator:  newTestAddress(0x11),
		Opponent: newTestAddress(0x12),
		EntryFee: 100_000_000,
		Status:   battle.StatusActive,
	}
	if err := m.BattlePut(b); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := m.BattleGet(7)
	if !ok {
		t.Fatalf("battle missing after put")
	}
	if *got != *b {
		t.Fatalf("roundtrip mismatch: %+v != %+v", got, b)
	}
	if _, ok := m.BattleGet(8); ok {
		t.Fatalf("unexpected record for unknown id")
	}
}

// The manager must plug straight into the battle engine: run a lobby through
// create and join against the persistent store.
func TestManagerBacksBattleEngine(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	engine := battle.NewEngine()
	engine.SetState(m)
	base := int64(1_700_000_000)
	engine.SetNowFunc(func() int64 { return base })

	authority := newTestAddress(0xA1)
	treasury := newTestAddress(0xB2)
	creator := newTestAddress(0x01)
	opponent := newTestAddress(0x02)
	if _, err := engine.Initialize(authority, treasury); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := m.Credit(creator, battle.MinEntry); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := m.Credit(opponent, battle.MinEntry); err != nil {
		t.Fatalf("credit: %v", err)
	}
	b, err := engine.CreateBattle(creator, battle.MinEntry)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.JoinBattle(b.ID, opponent); err != nil {
		t.Fatalf("join: %v", err)
	}
	stored, ok := m.BattleGet(b.ID)
	if !ok || stored.Status != battle.StatusActive {
		t.Fatalf("persisted battle not active: %+v", stored)
	}
	if got, _ := m.BalanceOf(battle.VaultAddress(b.ID)); got != 2*battle.MinEntry {
		t.Fatalf("escrow holds %d, want both entries", got)
	}
}

// The manager must also back the rounds engine.
func TestManagerBacksRoundsEngine(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	engine := rounds.NewEngine()
	engine.SetState(m)
	base := int64(1_700_000_000)
	engine.SetNowFunc(func() int64 { return base })
	feed := oracle.NewManualFeed()
	feed.Set("SOL", 15_000_000_000, base)
	engine.SetPriceFeed(feed)

	authority := newTestAddress(0xA1)
	treasury := newTestAddress(0xB2)
	player := newTestAddress(0x21)
	if _, err := engine.InitializeGame(authority, treasury, "SOL"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := m.Credit(player, rounds.MinBet); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := engine.PlaceBet(player, rounds.BetUp, rounds.MinBet); err != nil {
		t.Fatalf("bet: %v", err)
	}
	round, ok := m.RoundGet(0)
	if !ok || round.UpPool != rounds.MinBet {
		t.Fatalf("persisted round missing stake: %+v", round)
	}
}

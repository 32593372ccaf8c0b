package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"arenachain/core/types"
	"arenachain/native/battle"
	"arenachain/native/rounds"
	"arenachain/storage"
)

var (
	// ErrInsufficientFunds is returned by Transfer when the source account
	// cannot cover the amount.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
	// ErrBalanceOverflow is returned when a credit would overflow the
	// destination balance.
	ErrBalanceOverflow = errors.New("state: balance overflow")
)

// Manager persists engine records and the fund ledger in a key-value store.
// It satisfies the state interfaces of both the battle and the rounds engine.
// Records are stored as JSON under deterministic keys so any node replaying
// the same operations lands on the same byte-for-byte state.
type Manager struct {
	db storage.Database
}

// NewManager wraps the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

const (
	battleConfigKey = "battle/config"
	roundsGameKey   = "rounds/game"
)

func battleKey(id uint64) string {
	return fmt.Sprintf("battle/%d", id)
}

func betKey(battleID uint64, bettor [20]byte) string {
	return fmt.Sprintf("bet/%d/%x", battleID, bettor)
}

func disputeKey(battleID uint64) string {
	return fmt.Sprintf("dispute/%d", battleID)
}

func drawRefundKey(battleID uint64, player [20]byte) string {
	return fmt.Sprintf("drawrefund/%d/%x", battleID, player)
}

func accountKey(addr [20]byte) string {
	return fmt.Sprintf("account/%x", addr)
}

func roundKey(id uint64) string {
	return fmt.Sprintf("round/%d", id)
}

func positionKey(roundID uint64, player [20]byte) string {
	return fmt.Sprintf("position/%d/%x", roundID, player)
}

// getJSON decodes the value at key into out. A missing key or an undecodable
// value reports false; engines treat both as an absent record.
func (m *Manager) getJSON(key string, out interface{}) bool {
	raw, err := m.db.Get([]byte(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (m *Manager) putJSON(key string, in interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put([]byte(key), raw)
}

// --- battle engine state ---

func (m *Manager) ConfigGet() (*battle.GlobalConfig, bool) {
	cfg := new(battle.GlobalConfig)
	if !m.getJSON(battleConfigKey, cfg) {
		return nil, false
	}
	return cfg, true
}

func (m *Manager) ConfigPut(cfg *battle.GlobalConfig) error {
	return m.putJSON(battleConfigKey, cfg)
}

func (m *Manager) BattleGet(id uint64) (*battle.Battle, bool) {
	b := new(battle.Battle)
	if !m.getJSON(battleKey(id), b) {
		return nil, false
	}
	return b, true
}

func (m *Manager) BattlePut(b *battle.Battle) error {
	return m.putJSON(battleKey(b.ID), b)
}

func (m *Manager) BetGet(battleID uint64, bettor [20]byte) (*battle.SpectatorBet, bool) {
	bet := new(battle.SpectatorBet)
	if !m.getJSON(betKey(battleID, bettor), bet) {
		return nil, false
	}
	return bet, true
}

func (m *Manager) BetPut(bet *battle.SpectatorBet) error {
	return m.putJSON(betKey(bet.BattleID, bet.Bettor), bet)
}

func (m *Manager) DisputeGet(battleID uint64) (*battle.Dispute, bool) {
	d := new(battle.Dispute)
	if !m.getJSON(disputeKey(battleID), d) {
		return nil, false
	}
	return d, true
}

func (m *Manager) DisputePut(d *battle.Dispute) error {
	return m.putJSON(disputeKey(d.BattleID), d)
}

func (m *Manager) DrawRefundGet(battleID uint64, player [20]byte) (*battle.DrawRefund, bool) {
	r := new(battle.DrawRefund)
	if !m.getJSON(drawRefundKey(battleID, player), r) {
		return nil, false
	}
	return r, true
}

func (m *Manager) DrawRefundPut(r *battle.DrawRefund) error {
	return m.putJSON(drawRefundKey(r.BattleID, r.Player), r)
}

// --- rounds engine state ---

func (m *Manager) GameGet() (*rounds.GameState, bool) {
	g := new(rounds.GameState)
	if !m.getJSON(roundsGameKey, g) {
		return nil, false
	}
	return g, true
}

func (m *Manager) GamePut(g *rounds.GameState) error {
	return m.putJSON(roundsGameKey, g)
}

func (m *Manager) RoundGet(id uint64) (*rounds.Round, bool) {
	r := new(rounds.Round)
	if !m.getJSON(roundKey(id), r) {
		return nil, false
	}
	return r, true
}

func (m *Manager) RoundPut(r *rounds.Round) error {
	return m.putJSON(roundKey(r.ID), r)
}

func (m *Manager) PositionGet(roundID uint64, player [20]byte) (*rounds.Position, bool) {
	p := new(rounds.Position)
	if !m.getJSON(positionKey(roundID, player), p) {
		return nil, false
	}
	return p, true
}

func (m *Manager) PositionPut(p *rounds.Position) error {
	return m.putJSON(positionKey(p.RoundID, p.Player), p)
}

// --- ledger ---

func (m *Manager) account(addr [20]byte) *types.Account {
	acc := new(types.Account)
	if !m.getJSON(accountKey(addr), acc) {
		return &types.Account{}
	}
	return acc
}

// BalanceOf returns the current balance of the address. Unknown addresses
// hold zero.
func (m *Manager) BalanceOf(addr [20]byte) (uint64, error) {
	return m.account(addr).Balance, nil
}

// Transfer moves amount between accounts with checked arithmetic. The debit
// and credit are applied together; a failure on either side leaves the ledger
// untouched.
func (m *Manager) Transfer(from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		src := m.account(from)
		if src.Balance < amount {
			return ErrInsufficientFunds
		}
		return nil
	}
	src := m.account(from)
	if src.Balance < amount {
		return ErrInsufficientFunds
	}
	dst := m.account(to)
	if dst.Balance > ^uint64(0)-amount {
		return ErrBalanceOverflow
	}
	src.Balance -= amount
	dst.Balance += amount
	if err := m.putJSON(accountKey(from), src); err != nil {
		return err
	}
	return m.putJSON(accountKey(to), dst)
}

// Credit mints balance onto an address. Used for genesis allocations and
// test fixtures only; engine operations always move existing funds.
func (m *Manager) Credit(addr [20]byte, amount uint64) error {
	acc := m.account(addr)
	if acc.Balance > ^uint64(0)-amount {
		return ErrBalanceOverflow
	}
	acc.Balance += amount
	return m.putJSON(accountKey(addr), acc)
}

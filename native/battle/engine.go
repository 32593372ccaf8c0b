package battle

import (
	"encoding/binary"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"arenachain/core/events"
	"arenachain/core/types"
)

// engineState is the narrow view of the ledger and record store the engine
// mutates. Implementations must apply each call atomically; the engine itself
// never retries or partially applies an operation.
type engineState interface {
	ConfigGet() (*GlobalConfig, bool)
	ConfigPut(*GlobalConfig) error
	BattleGet(id uint64) (*Battle, bool)
	BattlePut(*Battle) error
	BetGet(battleID uint64, bettor [20]byte) (*SpectatorBet, bool)
	BetPut(*SpectatorBet) error
	DisputeGet(battleID uint64) (*Dispute, bool)
	DisputePut(*Dispute) error
	DrawRefundGet(battleID uint64, player [20]byte) (*DrawRefund, bool)
	DrawRefundPut(*DrawRefund) error
	BalanceOf(addr [20]byte) (uint64, error)
	Transfer(from, to [20]byte, amount uint64) error
}

type battleEvent struct {
	evt *types.Event
}

func (e battleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e battleEvent) Event() *types.Event { return e.evt }

// Engine owns every mutation of the battle records and the per-battle escrow
// vaults. Callers are assumed to be authenticated principals; the engine only
// consumes caller addresses.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a battle engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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
	e.emitter.Emit(battleEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// VaultAddress derives the fund-holding address for a battle's escrow. Only
// the engine moves value out of it; no caller-supplied principal can collide
// with the derived address space.
func VaultAddress(id uint64) [20]byte {
	return deriveAddress("arena/escrow", id)
}

// DisputeVaultAddress derives the fund-holding address for a battle's dispute
// bond.
func DisputeVaultAddress(id uint64) [20]byte {
	return deriveAddress("arena/dispute_escrow", id)
}

func deriveAddress(seed string, id uint64) [20]byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	hash := ethcrypto.Keccak256([]byte(seed), buf[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

func (e *Engine) loadConfig() (*GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, ok := e.state.ConfigGet()
	if !ok {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (e *Engine) loadBattle(id uint64) (*Battle, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	b, ok := e.state.BattleGet(id)
	if !ok {
		return nil, ErrBattleNotFound
	}
	return b, nil
}

// requireAuthority loads the config and checks the caller against the
// platform authority.
func (e *Engine) requireAuthority(caller [20]byte) (*GlobalConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Authority {
		return nil, ErrNotAuthority
	}
	return cfg, nil
}

// Initialize bootstraps the platform singleton. Called once; the caller
// becomes the authority.
func (e *Engine) Initialize(authority, treasury [20]byte) (*GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if authority == ([20]byte{}) || treasury == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if _, ok := e.state.ConfigGet(); ok {
		return nil, ErrAlreadyInitialized
	}
	cfg := &GlobalConfig{Authority: authority, Treasury: treasury}
	if err := e.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(NewConfigInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// UpdateTreasury points fee collection at a new address (authority only).
func (e *Engine) UpdateTreasury(caller, newTreasury [20]byte) error {
	if newTreasury == ([20]byte{}) {
		return ErrZeroAddress
	}
	cfg, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	cfg.Treasury = newTreasury
	if err := e.state.ConfigPut(cfg); err != nil {
		return err
	}
	e.emit(NewTreasuryUpdatedEvent(cfg))
	return nil
}

// ProposeAuthority is step one of the two-step authority transfer.
func (e *Engine) ProposeAuthority(caller, newAuthority [20]byte) error {
	if newAuthority == ([20]byte{}) {
		return ErrZeroAddress
	}
	cfg, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	cfg.PendingAuthority = newAuthority
	if err := e.state.ConfigPut(cfg); err != nil {
		return err
	}
	e.emit(NewAuthorityProposedEvent(cfg))
	return nil
}

// AcceptAuthority is step two: the proposed authority claims the role.
func (e *Engine) AcceptAuthority(caller [20]byte) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if cfg.PendingAuthority == ([20]byte{}) || caller != cfg.PendingAuthority {
		return ErrInvalidAuthority
	}
	cfg.Authority = cfg.PendingAuthority
	cfg.PendingAuthority = [20]byte{}
	if err := e.state.ConfigPut(cfg); err != nil {
		return err
	}
	e.emit(NewAuthorityTransferredEvent(cfg))
	return nil
}

// Config returns a copy of the platform singleton.
func (e *Engine) Config() (*GlobalConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Battle returns a copy of the battle record.
func (e *Engine) Battle(id uint64) (*Battle, error) {
	b, err := e.loadBattle(id)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Bet returns a copy of a spectator's position on a battle.
func (e *Engine) Bet(battleID uint64, bettor [20]byte) (*SpectatorBet, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	bet, ok := e.state.BetGet(battleID, bettor)
	if !ok {
		return nil, ErrBetNotFound
	}
	return bet.Clone(), nil
}

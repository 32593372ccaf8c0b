package core

import (
	"sync"

	"arenachain/core/events"
	"arenachain/core/state"
	"arenachain/native/battle"
	"arenachain/native/oracle"
	"arenachain/native/rounds"
	"arenachain/storage"
)

// Node is the central controller wiring the engines to the persistent state.
// Every operation takes stateMu for its full duration, so concurrent callers
// observe record-level serialization: an operation either applies completely
// or not at all, and no two operations interleave on the same record.
type Node struct {
	db      storage.Database
	manager *state.Manager
	emitter events.Emitter
	nowFn   func() int64
	feed    oracle.PriceFeed

	stateMu sync.Mutex
}

// NewNode builds a node on top of the provided database.
func NewNode(db storage.Database) *Node {
	return &Node{
		db:      db,
		manager: state.NewManager(db),
		emitter: events.NoopEmitter{},
	}
}

// SetEmitter configures the emitter both engines publish events through.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	n.emitter = emitter
}

// SetNowFunc overrides the time source for both engines.
func (n *Node) SetNowFunc(now func() int64) { n.nowFn = now }

// SetPriceFeed configures the oracle feed consumed by the rounds engine.
func (n *Node) SetPriceFeed(feed oracle.PriceFeed) { n.feed = feed }

func (n *Node) newBattleEngine() *battle.Engine {
	engine := battle.NewEngine()
	engine.SetState(n.manager)
	engine.SetEmitter(n.emitter)
	if n.nowFn != nil {
		engine.SetNowFunc(n.nowFn)
	}
	return engine
}

func (n *Node) newRoundsEngine() *rounds.Engine {
	engine := rounds.NewEngine()
	engine.SetState(n.manager)
	engine.SetEmitter(n.emitter)
	engine.SetPriceFeed(n.feed)
	if n.nowFn != nil {
		engine.SetNowFunc(n.nowFn)
	}
	return engine
}

// Credit mints balance onto an address. Genesis allocations only.
func (n *Node) Credit(addr [20]byte, amount uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.manager.Credit(addr, amount)
}

// Balance returns the ledger balance of an address.
func (n *Node) Balance(addr [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.manager.BalanceOf(addr)
}

// --- battle operations ---

func (n *Node) BattleInitialize(authority, treasury [20]byte) (*battle.GlobalConfig, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().Initialize(authority, treasury)
}

func (n *Node) BattleUpdateTreasury(caller, newTreasury [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().UpdateTreasury(caller, newTreasury)
}

func (n *Node) BattleProposeAuthority(caller, newAuthority [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ProposeAuthority(caller, newAuthority)
}

func (n *Node) BattleAcceptAuthority(caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().AcceptAuthority(caller)
}

func (n *Node) BattleCreate(creator [20]byte, entryFee uint64) (*battle.Battle, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().CreateBattle(creator, entryFee)
}

func (n *Node) BattleJoin(id uint64, opponent [20]byte) (*battle.Battle, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().JoinBattle(id, opponent)
}

func (n *Node) BattleCancel(id uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().CancelBattle(id, caller)
}

func (n *Node) BattlePlaceBet(id uint64, bettor [20]byte, side battle.Side, amount uint64) (*battle.SpectatorBet, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().PlaceSpectatorBet(id, bettor, side, amount)
}

func (n *Node) BattleLockBetting(id uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().LockBetting(id)
}

func (n *Node) BattleProposeSettlement(id uint64, caller [20]byte, winner battle.Side) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ProposeSettlement(id, caller, winner)
}

func (n *Node) BattleFileDispute(id uint64, disputer [20]byte, evidenceHash [32]byte) (*battle.Dispute, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().FileDispute(id, disputer, evidenceHash)
}

func (n *Node) BattleResolveDispute(id uint64, caller [20]byte, upheld bool) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ResolveDispute(id, caller, upheld)
}

func (n *Node) BattleFinalize(id uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().FinalizeSettlement(id)
}

func (n *Node) BattleClaimPrize(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ClaimPlayerPrize(id, caller)
}

func (n *Node) BattleClaimSpectatorWinnings(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ClaimSpectatorWinnings(id, caller)
}

func (n *Node) BattleClaimDrawRefund(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().ClaimPlayerDrawRefund(id, caller)
}

func (n *Node) BattleRefundSpectatorDrawBet(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().RefundSpectatorDrawBet(id, caller)
}

func (n *Node) BattleRefundSpectatorBet(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().RefundSpectatorBet(id, caller)
}

func (n *Node) BattleWithdrawFees(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().WithdrawFees(id, caller)
}

func (n *Node) BattleSweepUnclaimed(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().SweepUnclaimed(id, caller)
}

func (n *Node) BattleGet(id uint64) (*battle.Battle, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().Battle(id)
}

func (n *Node) BattleConfig() (*battle.GlobalConfig, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().Config()
}

func (n *Node) BattleBet(id uint64, bettor [20]byte) (*battle.SpectatorBet, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newBattleEngine().Bet(id, bettor)
}

// --- rounds operations ---

func (n *Node) RoundsInitialize(authority, treasury [20]byte, symbol string) (*rounds.GameState, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().InitializeGame(authority, treasury, symbol)
}

func (n *Node) RoundsPlaceBet(caller [20]byte, side rounds.BetSide, amount uint64) (*rounds.Position, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().PlaceBet(caller, side, amount)
}

func (n *Node) RoundsLock(id uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().LockRound(id)
}

func (n *Node) RoundsCrank(caller [20]byte) (*rounds.Round, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().Crank(caller)
}

func (n *Node) RoundsClaim(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().ClaimWinnings(id, caller)
}

func (n *Node) RoundsSetPaused(caller [20]byte, paused bool) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().SetPaused(caller, paused)
}

func (n *Node) RoundsWithdrawFees(id uint64, caller [20]byte) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().WithdrawFees(id, caller)
}

func (n *Node) RoundsGame() (*rounds.GameState, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().Game()
}

func (n *Node) RoundsGet(id uint64) (*rounds.Round, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().Round(id)
}

func (n *Node) RoundsPosition(id uint64, player [20]byte) (*rounds.Position, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newRoundsEngine().Position(id, player)
}

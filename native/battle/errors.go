package battle

import "errors"

var (
	errNilState = errors.New("battle engine: state not configured")

	// Record lookups.
	ErrNotInitialized     = errors.New("battle: platform config not initialized")
	ErrAlreadyInitialized = errors.New("battle: platform config already initialized")
	ErrBattleNotFound     = errors.New("battle: battle not found")
	ErrBetNotFound        = errors.New("battle: spectator bet not found")
	ErrDisputeNotFound    = errors.New("battle: dispute not found")

	// Identity faults.
	ErrZeroAddress      = errors.New("battle: zero address supplied")
	ErrNotAuthority     = errors.New("battle: caller is not the authority")
	ErrInvalidAuthority = errors.New("battle: caller does not match pending authority")
	ErrNotCreator       = errors.New("battle: caller is not the battle creator")
	ErrNotWinner        = errors.New("battle: caller is not the winner")
	ErrNotAPlayer       = errors.New("battle: caller is not a player in this battle")
	ErrNotBetOwner      = errors.New("battle: caller does not own this bet")

	// Precondition violations.
	ErrEntryFeeTooLow      = errors.New("battle: entry fee below minimum")
	ErrBetTooSmall         = errors.New("battle: bet amount below minimum")
	ErrInvalidSide         = errors.New("battle: invalid player side")
	ErrBattleNotWaiting    = errors.New("battle: battle is not waiting for an opponent")
	ErrCannotJoinOwn       = errors.New("battle: cannot join your own battle")
	ErrCannotCancel        = errors.New("battle: battle already started or settled")
	ErrBattleNotActive     = errors.New("battle: battle is not active")
	ErrBattleNotEnded      = errors.New("battle: battle has not ended yet")
	ErrBattleNotSettled    = errors.New("battle: battle is not settled")
	ErrBattleNotCancelled  = errors.New("battle: battle is not cancelled")
	ErrNotADraw            = errors.New("battle: battle did not end in a draw")
	ErrBettingLocked       = errors.New("battle: betting is locked")
	ErrTooEarlyToLock      = errors.New("battle: too early to lock betting")
	ErrNotPendingDispute   = errors.New("battle: battle is not pending dispute")
	ErrNotDisputed         = errors.New("battle: battle is not disputed")
	ErrDisputeWindowClosed = errors.New("battle: dispute window has closed")
	ErrDisputeWindowOpen   = errors.New("battle: dispute window is still open")
	ErrClaimTimeoutNotMet  = errors.New("battle: claim timeout has not been reached")

	// Double-action faults.
	ErrAlreadyClaimed     = errors.New("battle: already claimed")
	ErrDuplicateBet       = errors.New("battle: bettor already holds a position on this battle")
	ErrDisputeResolved    = errors.New("battle: dispute has already been resolved")
	ErrFeesWithdrawn      = errors.New("battle: fees already withdrawn for this battle")
	ErrPrizeNotYetClaimed = errors.New("battle: prize not yet claimed")

	// Arithmetic and payout faults.
	ErrPoolOverflow  = errors.New("battle: pool overflow")
	ErrBetLost       = errors.New("battle: bet backed the losing side")
	ErrInvalidPayout = errors.New("battle: invalid payout calculation")

	// Ledger faults.
	ErrInsufficientFunds = errors.New("battle: insufficient balance")
)

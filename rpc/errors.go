package rpc

import (
	"errors"
	"net/http"

	"arenachain/core/state"
	"arenachain/native/battle"
	"arenachain/native/oracle"
	"arenachain/native/rounds"
)

// statusForError maps engine sentinels to HTTP status codes: 404 for missing
// records, 403 for identity failures, 400 for malformed input, 409 for
// operations that are valid but not in this state, 502 for upstream oracle
// trouble, 500 for everything unexpected.
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, battle.ErrBattleNotFound),
		errors.Is(err, battle.ErrBetNotFound),
		errors.Is(err, battle.ErrDisputeNotFound),
		errors.Is(err, rounds.ErrRoundNotFound),
		errors.Is(err, rounds.ErrPositionNotFound):
		return http.StatusNotFound
	case errors.Is(err, battle.ErrNotAuthority),
		errors.Is(err, battle.ErrInvalidAuthority),
		errors.Is(err, battle.ErrNotCreator),
		errors.Is(err, battle.ErrNotWinner),
		errors.Is(err, battle.ErrNotAPlayer),
		errors.Is(err, battle.ErrNotBetOwner),
		errors.Is(err, battle.ErrBetLost),
		errors.Is(err, rounds.ErrNotAuthority),
		errors.Is(err, rounds.ErrNotAWinner),
		errors.Is(err, ErrMissingSignature),
		errors.Is(err, ErrBadSignature):
		return http.StatusForbidden
	case errors.Is(err, battle.ErrZeroAddress),
		errors.Is(err, battle.ErrEntryFeeTooLow),
		errors.Is(err, battle.ErrBetTooSmall),
		errors.Is(err, battle.ErrInvalidSide),
		errors.Is(err, battle.ErrCannotJoinOwn),
		errors.Is(err, rounds.ErrZeroAddress),
		errors.Is(err, rounds.ErrBetTooSmall),
		errors.Is(err, rounds.ErrInvalidSide):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrNoFreshQuote),
		errors.Is(err, rounds.ErrStalePrice),
		errors.Is(err, rounds.ErrInvalidPrice):
		return http.StatusBadGateway
	case errors.Is(err, battle.ErrNotInitialized),
		errors.Is(err, rounds.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, battle.ErrAlreadyInitialized),
		errors.Is(err, battle.ErrBattleNotWaiting),
		errors.Is(err, battle.ErrBattleNotActive),
		errors.Is(err, battle.ErrBattleNotEnded),
		errors.Is(err, battle.ErrBattleNotSettled),
		errors.Is(err, battle.ErrBattleNotCancelled),
		errors.Is(err, battle.ErrNotADraw),
		errors.Is(err, battle.ErrCannotCancel),
		errors.Is(err, battle.ErrBettingLocked),
		errors.Is(err, battle.ErrTooEarlyToLock),
		errors.Is(err, battle.ErrNotPendingDispute),
		errors.Is(err, battle.ErrNotDisputed),
		errors.Is(err, battle.ErrDisputeWindowClosed),
		errors.Is(err, battle.ErrDisputeWindowOpen),
		errors.Is(err, battle.ErrDisputeResolved),
		errors.Is(err, battle.ErrClaimTimeoutNotMet),
		errors.Is(err, battle.ErrAlreadyClaimed),
		errors.Is(err, battle.ErrDuplicateBet),
		errors.Is(err, battle.ErrFeesWithdrawn),
		errors.Is(err, battle.ErrPrizeNotYetClaimed),
		errors.Is(err, battle.ErrPoolOverflow),
		errors.Is(err, battle.ErrInsufficientFunds),
		errors.Is(err, rounds.ErrAlreadyInitialized),
		errors.Is(err, rounds.ErrGamePaused),
		errors.Is(err, rounds.ErrRoundNotBetting),
		errors.Is(err, rounds.ErrRoundNotOpen),
		errors.Is(err, rounds.ErrBettingClosed),
		errors.Is(err, rounds.ErrTooEarlyToLock),
		errors.Is(err, rounds.ErrDuplicatePosition),
		errors.Is(err, rounds.ErrRoundNotEnded),
		errors.Is(err, rounds.ErrRoundNotSettled),
		errors.Is(err, rounds.ErrAlreadyClaimed),
		errors.Is(err, rounds.ErrFeesWithdrawn),
		errors.Is(err, rounds.ErrPoolOverflow),
		errors.Is(err, state.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

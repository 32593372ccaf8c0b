package rounds

import "errors"

var (
	errNilState = errors.New("rounds: engine state not configured")

	ErrNotInitialized     = errors.New("rounds: game not initialized")
	ErrAlreadyInitialized = errors.New("rounds: game already initialized")
	ErrRoundNotFound      = errors.New("rounds: round not found")
	ErrPositionNotFound   = errors.New("rounds: position not found")
	ErrZeroAddress        = errors.New("rounds: zero address not allowed")
	ErrNotAuthority       = errors.New("rounds: caller is not the authority")
	ErrGamePaused         = errors.New("rounds: game is paused")
	ErrRoundNotBetting    = errors.New("rounds: round is not accepting bets")
	ErrRoundNotOpen       = errors.New("rounds: round already settled")
	ErrBettingClosed      = errors.New("rounds: betting is closed for this round")
	ErrTooEarlyToLock     = errors.New("rounds: betting window still open")
	ErrBetTooSmall        = errors.New("rounds: bet below minimum")
	ErrInvalidSide        = errors.New("rounds: invalid bet side")
	ErrDuplicatePosition  = errors.New("rounds: player already has a position this round")
	ErrRoundNotEnded      = errors.New("rounds: round has not ended yet")
	ErrRoundNotSettled    = errors.New("rounds: round is not settled")
	ErrNotAWinner         = errors.New("rounds: position did not win")
	ErrAlreadyClaimed     = errors.New("rounds: winnings already claimed")
	ErrFeesWithdrawn      = errors.New("rounds: fees already withdrawn")
	ErrPoolOverflow       = errors.New("rounds: pool size limit exceeded")
	ErrInvalidPayout      = errors.New("rounds: payout computation failed")
	ErrInvalidPrice       = errors.New("rounds: invalid oracle price")
	ErrStalePrice         = errors.New("rounds: oracle price is stale")
)

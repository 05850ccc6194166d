package engine

import "errors"

var (
	// ErrIllegalMove rejects a placement on an occupied cell or an
	// out-of-range index.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNotYourTurn rejects a move from the participant who does not own
	// the current turn.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrNotAParticipant rejects an operation from a connection that is not
	// bound to the match.
	ErrNotAParticipant = errors.New("connection is not a participant")

	// ErrMatchUnavailable rejects an operation the match's current status
	// does not permit: joining a started or finished match, or moving on a
	// match that is not in progress.
	ErrMatchUnavailable = errors.New("match unavailable")

	// ErrAlreadyInMatch rejects a connection joining a match it created.
	ErrAlreadyInMatch = errors.New("connection already in match")
)

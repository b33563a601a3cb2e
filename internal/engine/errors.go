package engine

import (
	"errors"

	"gridlock/internal/store"
)

// Validation errors returned by engine operations. Each maps to the status
// code sent back on the triggering connection; none of them leaves any
// state mutated.
var (
	// ErrInvalidMove covers every move rejection: acting user is not a
	// player, out of turn, occupied cell, or game already over.
	ErrInvalidMove = errors.New("invalid move")

	// ErrForbidden means the actor is not a member of the room they are
	// acting on.
	ErrForbidden = errors.New("not part of this room")

	// ErrNotInRoom is the leave-specific rejection for non-members.
	ErrNotInRoom = errors.New("user not in room")

	// ErrAlreadyInRoom guards double-join: one live room per user.
	ErrAlreadyInRoom = errors.New("user already in a room")

	// ErrBadRequest covers malformed input such as out-of-range
	// coordinates.
	ErrBadRequest = errors.New("bad request")
)

// StatusFor maps an engine error to the protocol status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrInvalidMove),
		errors.Is(err, ErrNotInRoom),
		errors.Is(err, ErrAlreadyInRoom),
		errors.Is(err, ErrBadRequest):
		return 400
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, store.ErrRoomNotFound):
		return 404
	default:
		return 500
	}
}

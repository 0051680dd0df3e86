package errors

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrNotLive           = errors.New("moves are only accepted at the live position")
	ErrCorruptHistory    = errors.New("move history can no longer be replayed")
	ErrGameNotFound      = errors.New("game not found")
	ErrEngineClosed      = errors.New("engine connection is closed")
	ErrEngineHandshake   = errors.New("engine handshake failed")
	ErrEngineUnavailable = errors.New("chess engine unavailable")
	ErrInvalidSquare     = errors.New("invalid square")
	ErrInternal          = errors.New("internal error")
)

// CorruptHistoryError reports the ply at which replay of a recorded history failed.
type CorruptHistoryError struct {
	Ply  int
	Move string
	Err  error
}

func (e *CorruptHistoryError) Error() string {
	return fmt.Sprintf("replay failed at ply %d (%s): %v", e.Ply, e.Move, e.Err)
}

func (e *CorruptHistoryError) Unwrap() []error {
	return []error{ErrCorruptHistory, e.Err}
}

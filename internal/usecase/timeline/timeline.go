package timeline

import (
	"errors"
	"fmt"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
)

// Rules is the part of the rules engine the timeline needs.
type Rules interface {
	Initial() game.Position
	ApplyMove(pos game.Position, from, to game.Square, promotion game.PieceKind) (game.Position, game.Move, error)
	Replay(moves []game.Move) (game.Position, error)
}

// Timeline owns the move history and the index currently on display.
// Invariant: 0 <= view <= len(history). It is not safe for concurrent use.
type Timeline struct {
	rules   Rules
	history []game.Move
	view    int
}

func New(rules Rules) *Timeline {
	return &Timeline{rules: rules}
}

// AttemptMove plays from→to at the live point and advances the view to it.
// On any failure the history and view are left untouched.
func (t *Timeline) AttemptMove(req game.MoveRequest) (game.Move, error) {
	if !t.IsLive() {
		return "", apperrors.ErrNotLive
	}
	pos, err := t.CurrentPosition()
	if err != nil {
		return "", err
	}
	_, move, err := t.rules.ApplyMove(pos, req.From, req.To, req.Promotion)
	if err != nil {
		if !errors.Is(err, apperrors.ErrIllegalMove) {
			err = fmt.Errorf("%w: %w", apperrors.ErrIllegalMove, err)
		}
		return "", err
	}
	t.history = append(t.history, move)
	t.view = len(t.history)
	return move, nil
}

func (t *Timeline) StepBack() {
	t.SeekTo(t.view - 1)
}

func (t *Timeline) StepForward() {
	t.SeekTo(t.view + 1)
}

// SeekTo moves the view to index i, clamped to [0, len(history)].
func (t *Timeline) SeekTo(i int) {
	t.view = clamp(i, 0, len(t.history))
}

func (t *Timeline) DeleteLastMove() {
	if len(t.history) == 0 {
		return
	}
	t.history = t.history[:len(t.history)-1]
	t.view = min(t.view, len(t.history))
}

// CurrentPosition replays the first ViewIndex moves. An error here means the
// history itself is broken and wraps errors.ErrCorruptHistory.
func (t *Timeline) CurrentPosition() (game.Position, error) {
	pos, err := t.rules.Replay(t.history[:t.view])
	if err != nil {
		if !errors.Is(err, apperrors.ErrCorruptHistory) {
			err = &apperrors.CorruptHistoryError{Ply: t.view, Err: err}
		}
		return game.Position{}, err
	}
	return pos, nil
}

func (t *Timeline) IsLive() bool {
	return t.view == len(t.history)
}

func (t *Timeline) ViewIndex() int {
	return t.view
}

func (t *Timeline) Len() int {
	return len(t.history)
}

func (t *Timeline) Moves() []game.Move {
	return append([]game.Move(nil), t.history...)
}

// LastViewedMove is the move that produced the position on display.
func (t *Timeline) LastViewedMove() (game.Move, bool) {
	if t.view == 0 {
		return "", false
	}
	return t.history[t.view-1], true
}

func (t *Timeline) Rows() []game.MoveRow {
	return game.Rows(t.history)
}

// Reset starts a new game.
func (t *Timeline) Reset() {
	t.history = nil
	t.view = 0
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

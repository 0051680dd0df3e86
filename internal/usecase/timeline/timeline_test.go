package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
	"chess_review/internal/rules"
)

func play(t *testing.T, tl *Timeline, from, to game.Square) game.Move {
	t.Helper()
	move, err := tl.AttemptMove(game.MoveRequest{From: from, To: to})
	require.NoError(t, err)
	return move
}

func TestScenarioReviewAndResume(t *testing.T) {
	r := rules.NewAdapter()
	tl := New(r)

	play(t, tl, "e2", "e4")
	play(t, tl, "e7", "e5")
	assert.Equal(t, []game.Move{"e4", "e5"}, tl.Moves())
	assert.Equal(t, 2, tl.ViewIndex())

	tl.StepBack()
	tl.StepBack()
	assert.Equal(t, 0, tl.ViewIndex())
	pos, err := tl.CurrentPosition()
	require.NoError(t, err)
	assert.Equal(t, r.Initial(), pos)

	_, err = tl.AttemptMove(game.MoveRequest{From: "g1", To: "f3"})
	assert.ErrorIs(t, err, apperrors.ErrNotLive)
	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 0, tl.ViewIndex())

	tl.StepForward()
	assert.Equal(t, 1, tl.ViewIndex())
	pos, err = tl.CurrentPosition()
	require.NoError(t, err)
	afterE4, err := r.Replay([]game.Move{"e4"})
	require.NoError(t, err)
	assert.Equal(t, afterE4, pos)
}

func TestPrefixConsistency(t *testing.T) {
	r := rules.NewAdapter()
	tl := New(r)
	for _, step := range [][2]game.Square{{"d2", "d4"}, {"d7", "d5"}, {"c2", "c4"}, {"e7", "e6"}, {"b1", "c3"}} {
		play(t, tl, step[0], step[1])
	}
	history := tl.Moves()
	for i := 0; i <= len(history); i++ {
		tl.SeekTo(i)
		got, err := tl.CurrentPosition()
		require.NoError(t, err)
		want, err := r.Replay(history[:i])
		require.NoError(t, err)
		assert.Equal(t, want, got, "view index %d", i)
	}
}

func TestRejectedMoveLeavesStateUnchanged(t *testing.T) {
	tl := New(rules.NewAdapter())
	play(t, tl, "e2", "e4")

	before := tl.Moves()
	_, err := tl.AttemptMove(game.MoveRequest{From: "e4", To: "e6"})
	assert.ErrorIs(t, err, apperrors.ErrIllegalMove)
	_, err = tl.AttemptMove(game.MoveRequest{From: "e1", To: "e9"})
	assert.ErrorIs(t, err, apperrors.ErrIllegalMove)

	assert.Equal(t, before, tl.Moves())
	assert.Equal(t, 1, tl.ViewIndex())
	assert.True(t, tl.IsLive())
}

func TestSuccessfulMoveAdvancesToLive(t *testing.T) {
	tl := New(rules.NewAdapter())
	for i, step := range [][2]game.Square{{"e2", "e4"}, {"c7", "c5"}, {"g1", "f3"}} {
		play(t, tl, step[0], step[1])
		assert.True(t, tl.IsLive())
		assert.Equal(t, i+1, tl.Len())
		assert.Equal(t, tl.Len(), tl.ViewIndex())
	}
}

func TestStepRoundTrip(t *testing.T) {
	tl := New(rules.NewAdapter())
	play(t, tl, "e2", "e4")
	play(t, tl, "e7", "e5")
	play(t, tl, "g1", "f3")
	tl.SeekTo(1)
	history := tl.Moves()

	tl.StepBack()
	tl.StepForward()
	assert.Equal(t, 1, tl.ViewIndex())
	assert.Equal(t, history, tl.Moves())

	tl.StepForward()
	tl.StepBack()
	assert.Equal(t, 1, tl.ViewIndex())
}

func TestStepsClampAtBounds(t *testing.T) {
	tl := New(rules.NewAdapter())
	tl.StepBack()
	assert.Equal(t, 0, tl.ViewIndex())
	tl.StepForward()
	assert.Equal(t, 0, tl.ViewIndex())

	play(t, tl, "e2", "e4")
	tl.StepForward()
	assert.Equal(t, 1, tl.ViewIndex())
	tl.SeekTo(-5)
	assert.Equal(t, 0, tl.ViewIndex())
	tl.SeekTo(99)
	assert.Equal(t, 1, tl.ViewIndex())
}

func TestDeleteLastMove(t *testing.T) {
	tl := New(rules.NewAdapter())
	tl.DeleteLastMove()
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0, tl.ViewIndex())

	play(t, tl, "e2", "e4")
	play(t, tl, "e7", "e5")
	play(t, tl, "g1", "f3")

	tl.DeleteLastMove()
	assert.Equal(t, []game.Move{"e4", "e5"}, tl.Moves())
	assert.Equal(t, 2, tl.ViewIndex())

	tl.SeekTo(1)
	tl.DeleteLastMove()
	assert.Equal(t, 1, tl.Len())
	assert.Equal(t, 1, tl.ViewIndex())
	assert.True(t, tl.IsLive())

	tl.SeekTo(0)
	tl.DeleteLastMove()
	assert.Equal(t, 0, tl.Len())
	assert.Equal(t, 0, tl.ViewIndex())
}

func TestDeleteThenReplayDifferentMove(t *testing.T) {
	tl := New(rules.NewAdapter())
	play(t, tl, "e2", "e4")
	tl.DeleteLastMove()
	move := play(t, tl, "d2", "d4")
	assert.Equal(t, game.Move("d4"), move)
	assert.Equal(t, []game.Move{"d4"}, tl.Moves())
}

func TestRowsAndLastViewedMove(t *testing.T) {
	tl := New(rules.NewAdapter())
	_, ok := tl.LastViewedMove()
	assert.False(t, ok)

	play(t, tl, "e2", "e4")
	play(t, tl, "e7", "e5")
	play(t, tl, "g1", "f3")
	assert.Equal(t, []game.MoveRow{
		{Number: 1, White: "e4", Black: "e5"},
		{Number: 2, White: "Nf3"},
	}, tl.Rows())

	tl.StepBack()
	last, ok := tl.LastViewedMove()
	require.True(t, ok)
	assert.Equal(t, game.Move("e5"), last)

	tl.Reset()
	assert.Equal(t, 0, tl.Len())
	assert.True(t, tl.IsLive())
}

type brokenRules struct {
	*rules.Adapter
}

func (brokenRules) Replay(moves []game.Move) (game.Position, error) {
	if len(moves) > 0 {
		return game.Position{}, errors.New("rules engine lost its mind")
	}
	return rules.NewAdapter().Initial(), nil
}

func TestReplayFailureIsCorruptHistory(t *testing.T) {
	tl := New(brokenRules{rules.NewAdapter()})
	play(t, tl, "e2", "e4")

	_, err := tl.CurrentPosition()
	assert.ErrorIs(t, err, apperrors.ErrCorruptHistory)
	assert.False(t, errors.Is(err, apperrors.ErrIllegalMove))

	_, err = tl.AttemptMove(game.MoveRequest{From: "e7", To: "e5"})
	assert.ErrorIs(t, err, apperrors.ErrCorruptHistory)
	assert.Equal(t, 1, tl.Len())
}

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chess_review/internal/domain/game"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		score Score
		side  game.Side
		kind  ScoreKind
		pawns float64
		mate  int
		text  string
	}{
		{"cp white to move", Centipawns(34), game.White, KindCentipawns, 0.34, 0, "+0.34"},
		{"cp black to move", Centipawns(34), game.Black, KindCentipawns, -0.34, 0, "-0.34"},
		{"negative cp black to move", Centipawns(-120), game.Black, KindCentipawns, 1.2, 0, "+1.20"},
		{"zero", Centipawns(0), game.Black, KindCentipawns, 0, 0, "+0.00"},
		{"mate white to move", MateIn(3), game.White, KindMate, 0, 3, "#3"},
		{"mate black to move", MateIn(3), game.Black, KindMate, 0, -3, "#-3"},
		{"getting mated black to move", MateIn(-2), game.Black, KindMate, 0, 2, "#2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.score, tc.side)
			assert.Equal(t, tc.kind, got.Kind)
			assert.InDelta(t, tc.pawns, got.Pawns, 1e-9)
			assert.Equal(t, tc.mate, got.Mate)
			assert.Equal(t, tc.text, got.String())
		})
	}
}

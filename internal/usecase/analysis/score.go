package analysis

import (
	"strconv"

	"chess_review/internal/domain/game"
)

type ScoreKind string

const (
	KindCentipawns ScoreKind = "cp"
	KindMate       ScoreKind = "mate"
)

// Score is an engine score from the perspective of the side to move in the
// analysed position. Mate values are signed: positive means the side to move mates.
type Score struct {
	Kind  ScoreKind `json:"kind" bson:"kind"`
	Value int       `json:"value" bson:"value"`
}

func Centipawns(cp int) Score {
	return Score{Kind: KindCentipawns, Value: cp}
}

func MateIn(n int) Score {
	return Score{Kind: KindMate, Value: n}
}

// Evaluation is a score seen from White's side: positive favours White.
type Evaluation struct {
	Kind  ScoreKind
	Pawns float64
	Mate  int
}

// Normalize converts a side-to-move score into a White-perspective evaluation.
// Both centipawn and mate scores are flipped when Black is to move.
func Normalize(score Score, sideToMove game.Side) Evaluation {
	v := score.Value
	if sideToMove == game.Black {
		v = -v
	}
	if score.Kind == KindMate {
		return Evaluation{Kind: KindMate, Mate: v}
	}
	return Evaluation{Kind: KindCentipawns, Pawns: float64(v) / 100}
}

// String renders "+0.34", "-1.20", "#3" or "#-5".
func (e Evaluation) String() string {
	if e.Kind == KindMate {
		return "#" + strconv.Itoa(e.Mate)
	}
	s := strconv.FormatFloat(e.Pawns, 'f', 2, 64)
	if e.Pawns >= 0 {
		return "+" + s
	}
	return s
}

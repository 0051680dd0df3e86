package rules

import "github.com/corentings/chess/v2"

var (
	knightJumps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straightRay = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRay = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// inCheck reports whether the side to move in p has its king attacked.
func inCheck(p *chess.Position) bool {
	board := p.Board()
	us := p.Turn()
	them := chess.Black
	if us == chess.Black {
		them = chess.White
	}

	kf, kr, ok := findKing(board, us)
	if !ok {
		return false
	}

	at := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
	}
	enemy := func(pc chess.Piece, types ...chess.PieceType) bool {
		if pc == chess.NoPiece || pc.Color() != them {
			return false
		}
		for _, t := range types {
			if pc.Type() == t {
				return true
			}
		}
		return false
	}

	// Enemy pawns attack toward our side: a white king is hit from the rank above.
	pawnRank := kr + 1
	if us == chess.Black {
		pawnRank = kr - 1
	}
	if enemy(at(kf-1, pawnRank), chess.Pawn) || enemy(at(kf+1, pawnRank), chess.Pawn) {
		return true
	}
	for _, d := range knightJumps {
		if enemy(at(kf+d[0], kr+d[1]), chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if enemy(at(kf+d[0], kr+d[1]), chess.King) {
			return true
		}
	}
	slide := func(rays [4][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for f, r := kf+d[0], kr+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
				pc := at(f, r)
				if pc == chess.NoPiece {
					continue
				}
				if enemy(pc, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(straightRay, chess.Rook, chess.Queen) || slide(diagonalRay, chess.Bishop, chess.Queen)
}

func findKing(board *chess.Board, c chess.Color) (int, int, bool) {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			pc := board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
			if pc.Type() == chess.King && pc.Color() == c {
				return f, r, true
			}
		}
	}
	return 0, 0, false
}

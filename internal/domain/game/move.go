package game

import "strings"

// Move is a played move in standard algebraic notation, e.g. "Nf3" or "exd8=Q+".
type Move string

// Square is a board coordinate in algebraic form, "a1".."h8".
type Square string

func (s Square) Valid() bool {
	if len(s) != 2 {
		return false
	}
	file, rank := s[0], s[1]
	return file >= 'a' && file <= 'h' && rank >= '1' && rank <= '8'
}

// PieceKind is a promotion choice: "q", "r", "b", "n", or empty for none.
type PieceKind string

const (
	NoPiece PieceKind = ""
	Queen   PieceKind = "q"
	Rook    PieceKind = "r"
	Bishop  PieceKind = "b"
	Knight  PieceKind = "n"
)

// ParsePieceKind accepts upper or lower case letters and full names.
// Anything unrecognised yields NoPiece.
func ParsePieceKind(s string) PieceKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "queen":
		return Queen
	case "r", "rook":
		return Rook
	case "b", "bishop":
		return Bishop
	case "n", "knight":
		return Knight
	}
	return NoPiece
}

// @name MoveRequest
type MoveRequest struct {
	From      Square    `json:"from"`
	To        Square    `json:"to"`
	Promotion PieceKind `json:"promotion,omitempty"`
}

// @name MoveRow
type MoveRow struct {
	Number int  `json:"number"`
	White  Move `json:"white"`
	Black  Move `json:"black,omitempty"`
}

// Rows groups a move list into numbered White/Black pairs for the move table.
func Rows(moves []Move) []MoveRow {
	rows := make([]MoveRow, 0, (len(moves)+1)/2)
	for i := 0; i < len(moves); i += 2 {
		row := MoveRow{Number: i/2 + 1, White: moves[i]}
		if i+1 < len(moves) {
			row.Black = moves[i+1]
		}
		rows = append(rows, row)
	}
	return rows
}

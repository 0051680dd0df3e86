// Package rules wraps the chess rules engine behind the small contract the
// timeline depends on: apply one move, replay a notated history, report the
// side to move.
package rules

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"chess_review/internal/domain/game"
	apperrors "chess_review/internal/errors"
)

type Adapter struct {
	start *chess.Position
}

func NewAdapter() *Adapter {
	return &Adapter{start: chess.NewGame().Position()}
}

func (a *Adapter) Initial() game.Position {
	return toDomain(a.start)
}

// ApplyMove plays from→to on pos. The promotion hint only matters when a pawn
// reaches the last rank; an empty or unknown hint promotes to a queen there.
func (a *Adapter) ApplyMove(pos game.Position, from, to game.Square, promotion game.PieceKind) (game.Position, game.Move, error) {
	p, err := a.load(pos)
	if err != nil {
		return game.Position{}, "", err
	}
	s1, err := parseSquare(from)
	if err != nil {
		return game.Position{}, "", err
	}
	s2, err := parseSquare(to)
	if err != nil {
		return game.Position{}, "", err
	}

	promo := chess.NoPieceType
	if isPromotion(p, s1, s2) {
		promo = promotionType(promotion)
	}

	moves := p.ValidMoves()
	for i := range moves {
		m := &moves[i]
		if m.S1() != s1 || m.S2() != s2 || m.Promo() != promo {
			continue
		}
		next := p.Update(m)
		return toDomain(next), game.Move(sanWithCheck(chess.AlgebraicNotation{}.Encode(p, m), next)), nil
	}
	return game.Position{}, "", fmt.Errorf("%w: %s-%s", apperrors.ErrIllegalMove, from, to)
}

// Replay plays moves from the initial position. A failure means the history was
// not produced by this adapter and is reported as a CorruptHistoryError.
func (a *Adapter) Replay(moves []game.Move) (game.Position, error) {
	p := a.start
	for i, san := range moves {
		m, err := chess.AlgebraicNotation{}.Decode(p, string(san))
		if err == nil && !isLegal(p, m) {
			err = apperrors.ErrIllegalMove
		}
		if err != nil {
			return game.Position{}, &apperrors.CorruptHistoryError{Ply: i + 1, Move: string(san), Err: err}
		}
		p = p.Update(m)
	}
	return toDomain(p), nil
}

func (a *Adapter) SideToMove(pos game.Position) game.Side {
	if pos.SideToMove != "" {
		return pos.SideToMove
	}
	p, err := a.load(pos)
	if err != nil {
		return game.White
	}
	return side(p.Turn())
}

// PromotionTarget reports whether from→to moves a pawn onto its last rank.
func (a *Adapter) PromotionTarget(pos game.Position, from, to game.Square) bool {
	p, err := a.load(pos)
	if err != nil {
		return false
	}
	s1, err1 := parseSquare(from)
	s2, err2 := parseSquare(to)
	if err1 != nil || err2 != nil {
		return false
	}
	return isPromotion(p, s1, s2)
}

// Status reports mate, stalemate, material draws and check for the side to move.
func (a *Adapter) Status(pos game.Position) game.Status {
	opt, err := chess.FEN(pos.FEN)
	if err != nil {
		return game.StatusOngoing
	}
	g := chess.NewGame(opt)
	checked := inCheck(g.Position())
	if len(g.Position().ValidMoves()) == 0 {
		if checked {
			return game.StatusCheckmate
		}
		return game.StatusStalemate
	}
	if g.Method() == chess.InsufficientMaterial {
		return game.StatusDraw
	}
	if checked {
		return game.StatusCheck
	}
	return game.StatusOngoing
}

// sanWithCheck replaces the library's check marker with one derived from the
// position after the move. The library tags every promotion as a check.
func sanWithCheck(san string, next *chess.Position) string {
	san = strings.TrimRight(san, "+#")
	if !inCheck(next) {
		return san
	}
	if len(next.ValidMoves()) == 0 {
		return san + "#"
	}
	return san + "+"
}

func (a *Adapter) load(pos game.Position) (*chess.Position, error) {
	opt, err := chess.FEN(pos.FEN)
	if err != nil {
		return nil, fmt.Errorf("load position %q: %w", pos.FEN, err)
	}
	return chess.NewGame(opt).Position(), nil
}

func isPromotion(p *chess.Position, from, to chess.Square) bool {
	piece := p.Board().Piece(from)
	if piece.Type() != chess.Pawn {
		return false
	}
	if piece.Color() == chess.White {
		return to.Rank() == chess.Rank8
	}
	return to.Rank() == chess.Rank1
}

func isLegal(p *chess.Position, m *chess.Move) bool {
	for _, valid := range p.ValidMoves() {
		if valid.S1() == m.S1() && valid.S2() == m.S2() && valid.Promo() == m.Promo() {
			return true
		}
	}
	return false
}

func promotionType(kind game.PieceKind) chess.PieceType {
	switch kind {
	case game.Rook:
		return chess.Rook
	case game.Bishop:
		return chess.Bishop
	case game.Knight:
		return chess.Knight
	}
	return chess.Queen
}

func parseSquare(s game.Square) (chess.Square, error) {
	if !s.Valid() {
		return chess.NoSquare, fmt.Errorf("%w: %w %q", apperrors.ErrIllegalMove, apperrors.ErrInvalidSquare, string(s))
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), nil
}

func side(c chess.Color) game.Side {
	if c == chess.Black {
		return game.Black
	}
	return game.White
}

func toDomain(p *chess.Position) game.Position {
	return game.Position{FEN: p.String(), SideToMove: side(p.Turn())}
}

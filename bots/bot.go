// bot.go
package bots

import (
	"errors"

	"github.com/notnil/chess"
)

var (
	// ErrInvalidDepth is returned for negative search depths, or depth 0 at the root.
	ErrInvalidDepth = errors.New("invalid search depth")

	// ErrNilPosition is returned when no position is given.
	ErrNilPosition = errors.New("nil position")

	// ErrInvalidSide is returned when the searching side is neither White nor Black.
	ErrInvalidSide = errors.New("invalid side")
)

// Position is the part of the rules engine the search relies on. Make and
// MakeNull must be undone by Unmake, and a position must come back
// unchanged after every paired call.
type Position interface {
	LegalMoves() []*chess.Move
	Make(m *chess.Move)
	MakeNull()
	Unmake() bool

	IsGameOver() bool
	IsCheckmate() bool
	IsStalemate() bool
	IsRepetition(count int) bool

	Turn() chess.Color
	PieceAt(sq chess.Square) chess.Piece
	ColorAt(sq chess.Square) chess.Color
	KingSquare(c chess.Color) (chess.Square, bool)
}

// ChessBot интерфейс для всех ботов
type ChessBot interface {
	BestMove(pos Position) *chess.Move
	Name() string
}

// PositionEvaluator scores a position, positive favouring White.
type PositionEvaluator interface {
	Evaluate(pos Position) float64
}

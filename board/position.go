// Package board adapts github.com/notnil/chess to a mutable make/unmake
// position with game history, which is what the search in package bots
// works against.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/notnil/chess"
)

var (
	// ErrInvalidFEN is returned when a FEN string cannot be decoded.
	ErrInvalidFEN = errors.New("invalid FEN")

	// ErrIllegalMove is returned by Play* for moves not legal in the current position.
	ErrIllegalMove = errors.New("illegal move")
)

type frame struct {
	pos  *chess.Position
	move *chess.Move // nil for the root frame and for null moves
	key  uint64
	null bool
}

// Position is a chess position plus the history that led to it. notnil
// positions are immutable, so Make pushes a new frame and Unmake pops it.
//
// A Position is not safe for concurrent use. Use Clone to hand a copy to
// another goroutine.
type Position struct {
	frames []frame
}

// New returns the standard starting position.
func New() *Position {
	return newPosition(chess.StartingPosition())
}

// FromFEN returns a position with no history set up from fen.
func FromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return newPosition(chess.NewGame(opt).Position()), nil
}

// FromGame replays the history of g so that repetitions are visible.
func FromGame(g *chess.Game) *Position {
	positions := g.Positions()
	moves := g.Moves()
	p := newPosition(positions[0])
	for i, m := range moves {
		if i+1 >= len(positions) {
			break
		}
		p.push(frame{pos: positions[i+1], move: m})
	}
	return p
}

func newPosition(pos *chess.Position) *Position {
	p := &Position{}
	p.push(frame{pos: pos})
	return p
}

// push appends f after filling notnil's lazy move cache, so every frame
// is read-only once published and clones may share it across goroutines.
func (p *Position) push(f frame) {
	f.pos.ValidMoves()
	f.key = positionKey(f.pos)
	p.frames = append(p.frames, f)
}

// Clone returns an independent copy sharing the notnil positions of the
// history; those are never written after push.
func (p *Position) Clone() *Position {
	frames := make([]frame, len(p.frames))
	copy(frames, p.frames)
	return &Position{frames: frames}
}

func (p *Position) top() *frame {
	return &p.frames[len(p.frames)-1]
}

// Chess returns the underlying notnil position of the current frame.
func (p *Position) Chess() *chess.Position {
	return p.top().pos
}

// LegalMoves returns the legal moves for the side to move in notnil's
// generation order.
func (p *Position) LegalMoves() []*chess.Move {
	return p.top().pos.ValidMoves()
}

// Make applies m, which must be one of LegalMoves. It does not validate.
func (p *Position) Make(m *chess.Move) {
	p.push(frame{pos: p.top().pos.Update(m), move: m})
}

// MakeNull passes the turn to the other side. The en passant square is
// cleared and castling rights are kept.
func (p *Position) MakeNull() {
	cur := p.top().pos
	fields := strings.Fields(cur.String())
	if cur.Turn() == chess.White {
		fields[1] = "b"
	} else {
		fields[1] = "w"
		fields[5] = incrementField(fields[5])
	}
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		// The fields come from a valid position; a decode failure means
		// notnil rejected its own output.
		panic(fmt.Sprintf("board: null move produced bad FEN %q: %v", strings.Join(fields, " "), err))
	}
	p.push(frame{pos: chess.NewGame(opt).Position(), null: true})
}

// Unmake reverts the last Make or MakeNull. It reports false when only the
// root frame is left.
func (p *Position) Unmake() bool {
	if len(p.frames) <= 1 {
		return false
	}
	p.frames = p.frames[:len(p.frames)-1]
	return true
}

// Play applies m after checking that it is legal. Promotion must match.
func (p *Position) Play(m *chess.Move) error {
	if m == nil {
		return ErrIllegalMove
	}
	for _, legal := range p.LegalMoves() {
		if legal.S1() == m.S1() && legal.S2() == m.S2() && legal.Promo() == m.Promo() {
			p.Make(legal)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, m)
}

// PlayNotation applies a move given in UCI ("e2e4", "e7e8q") or SAN ("Nf3").
func (p *Position) PlayNotation(text string) error {
	text = strings.TrimSpace(text)
	for _, legal := range p.LegalMoves() {
		if legal.String() == strings.ToLower(text) {
			p.Make(legal)
			return nil
		}
	}
	m, err := chess.AlgebraicNotation{}.Decode(p.top().pos, text)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrIllegalMove, text)
	}
	return p.Play(m)
}

// Find returns the legal move from one square to another. Pawns reaching
// the last rank are promoted to a queen.
func (p *Position) Find(from, to chess.Square) *chess.Move {
	for _, m := range p.LegalMoves() {
		if m.S1() != from || m.S2() != to {
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen {
			return m
		}
	}
	return nil
}

// Turn returns the side to move.
func (p *Position) Turn() chess.Color {
	return p.top().pos.Turn()
}

// PieceAt returns the piece on sq, or chess.NoPiece.
func (p *Position) PieceAt(sq chess.Square) chess.Piece {
	return p.top().pos.Board().Piece(sq)
}

// ColorAt returns the colour of the piece on sq, or chess.NoColor.
func (p *Position) ColorAt(sq chess.Square) chess.Color {
	return p.PieceAt(sq).Color()
}

// KingSquare returns the square of c's king. ok is false when the board
// has no such king.
func (p *Position) KingSquare(c chess.Color) (sq chess.Square, ok bool) {
	board := p.top().pos.Board()
	for s := chess.A1; s <= chess.H8; s++ {
		piece := board.Piece(s)
		if piece.Type() == chess.King && piece.Color() == c {
			return s, true
		}
	}
	return chess.NoSquare, false
}

// FEN returns the current position in FEN.
func (p *Position) FEN() string {
	return p.top().pos.String()
}

// Ply returns the number of moves (null moves included) made since the root.
func (p *Position) Ply() int {
	return len(p.frames) - 1
}

// Moves returns the moves played since the root, skipping null moves.
func (p *Position) Moves() []*chess.Move {
	var moves []*chess.Move
	for _, f := range p.frames[1:] {
		if f.move != nil {
			moves = append(moves, f.move)
		}
	}
	return moves
}

// LastMove returns the last real move played, or nil.
func (p *Position) LastMove() *chess.Move {
	top := p.top()
	if top.null {
		return nil
	}
	return top.move
}

// Snapshot captures everything make/unmake may touch.
type Snapshot struct {
	FEN  string
	Ply  int
	Keys []uint64
}

// Snapshot returns the current state for comparison.
func (p *Position) Snapshot() Snapshot {
	keys := make([]uint64, len(p.frames))
	for i, f := range p.frames {
		keys[i] = f.key
	}
	return Snapshot{FEN: p.FEN(), Ply: p.Ply(), Keys: keys}
}

// Square converts 0-7 file and rank indices to a square.
func Square(file, rank int) (chess.Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(file), chess.Rank(rank)), true
}

// positionKey hashes placement, side to move, castling rights and the en
// passant square. The en passant square only counts when a capture on it
// is legal, so a double pawn push alone doesn't break a repetition.
func positionKey(pos *chess.Position) uint64 {
	fields := strings.Fields(pos.String())
	ep := "-"
	if fields[3] != "-" {
		for _, m := range pos.ValidMoves() {
			if m.HasTag(chess.EnPassant) {
				ep = fields[3]
				break
			}
		}
	}
	return xxhash.Sum64String(fields[0] + " " + fields[1] + " " + fields[2] + " " + ep)
}

func incrementField(s string) string {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return s
	}
	return fmt.Sprint(n + 1)
}

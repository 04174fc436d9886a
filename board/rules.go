package board

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

const (
	// seventyFiveMoveClock is the halfmove clock at which the game ends
	// without a claim.
	seventyFiveMoveClock = 150

	// fivefold is the repetition count that ends the game without a claim.
	fivefold = 5
)

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.top().pos.Status() == chess.Checkmate
}

// IsStalemate reports whether the side to move has no legal move and is
// not in check.
func (p *Position) IsStalemate() bool {
	return p.top().pos.Status() == chess.Stalemate
}

// IsRepetition reports whether the current position has occurred at least
// count times in the history, the current occurrence included.
func (p *Position) IsRepetition(count int) bool {
	key := p.top().key
	seen := 0
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].key == key {
			seen++
			if seen >= count {
				return true
			}
		}
	}
	return false
}

// HalfMoveClock returns the number of halfmoves since the last capture or
// pawn move.
func (p *Position) HalfMoveClock() int {
	fields := strings.Fields(p.top().pos.String())
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// IsGameOver reports the conditions that end a game without any claim:
// checkmate, stalemate, insufficient material, the 75-move rule and
// fivefold repetition.
func (p *Position) IsGameOver() bool {
	if p.top().pos.Status() != chess.NoMethod {
		return true
	}
	return p.IsInsufficientMaterial() ||
		p.HalfMoveClock() >= seventyFiveMoveClock ||
		p.IsRepetition(fivefold)
}

// IsInsufficientMaterial reports whether neither side can mate: no pawns,
// rooks or queens, and either a single minor piece on the board or only
// bishops standing on one square colour.
func (p *Position) IsInsufficientMaterial() bool {
	board := p.top().pos.Board()
	var knights, bishops int
	var lightBishop, darkBishop bool
	for sq := chess.A1; sq <= chess.H8; sq++ {
		switch board.Piece(sq).Type() {
		case chess.Pawn, chess.Rook, chess.Queen:
			return false
		case chess.Knight:
			knights++
		case chess.Bishop:
			bishops++
			if isLightSquare(sq) {
				lightBishop = true
			} else {
				darkBishop = true
			}
		}
	}
	if knights+bishops <= 1 {
		return true
	}
	return knights == 0 && !(lightBishop && darkBishop)
}

func isLightSquare(sq chess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 1
}

// Outcome returns the result of the game and a human readable reason. The
// outcome is chess.NoOutcome while the game is running.
func (p *Position) Outcome() (chess.Outcome, string) {
	switch {
	case p.IsCheckmate():
		if p.Turn() == chess.Black {
			return chess.WhiteWon, "White wins by checkmate"
		}
		return chess.BlackWon, "Black wins by checkmate"
	case p.IsStalemate():
		return chess.Draw, "Draw by stalemate"
	case p.IsInsufficientMaterial():
		return chess.Draw, "Draw by insufficient material"
	case p.HalfMoveClock() >= seventyFiveMoveClock:
		return chess.Draw, "Draw by the 75-move rule"
	case p.IsRepetition(fivefold):
		return chess.Draw, "Draw by fivefold repetition"
	}
	return chess.NoOutcome, ""
}

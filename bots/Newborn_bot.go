package bots

import (
	"context"

	"github.com/notnil/chess"
)

// NewbornBot always plays the first move in generation order.
type NewbornBot struct{}

func NewNewbornBot() *NewbornBot {
	return &NewbornBot{}
}

func (b *NewbornBot) BestMove(pos Position) *chess.Move {
	moves := pos.LegalMoves()
	if len(moves) > 0 {
		return moves[0]
	}
	return nil
}

func (b *NewbornBot) Name() string {
	return "Newborn"
}

// Search reports the first legal move without scoring it.
func (b *NewbornBot) Search(ctx context.Context, pos Position) (Result, error) {
	if pos == nil {
		return Result{}, ErrNilPosition
	}
	return Result{Move: b.BestMove(pos), Side: pos.Turn()}, nil
}

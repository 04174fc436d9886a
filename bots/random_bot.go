package bots

import (
	"context"

	"github.com/notnil/chess"
	"lukechampine.com/frand"
)

// RandomBot plays a uniformly random legal move.
type RandomBot struct{}

func NewRandomBot() *RandomBot {
	return &RandomBot{}
}

func (b *RandomBot) BestMove(pos Position) *chess.Move {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil
	}
	return moves[frand.Intn(len(moves))]
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}

func (b *RandomBot) Search(ctx context.Context, pos Position) (Result, error) {
	if pos == nil {
		return Result{}, ErrNilPosition
	}
	return Result{Move: b.BestMove(pos), Side: pos.Turn()}, nil
}

package bots

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessai/board"
)

const eps = 1e-9

func TestPieceValues(t *testing.T) {
	v := DefaultWeights().Pieces
	assert.Equal(t, 1.0, v.Of(chess.Pawn))
	assert.Equal(t, 3.0, v.Of(chess.Knight))
	assert.Equal(t, 3.25, v.Of(chess.Bishop))
	assert.Equal(t, 5.0, v.Of(chess.Rook))
	assert.Equal(t, 9.0, v.Of(chess.Queen))
	assert.Equal(t, 0.0, v.Of(chess.King))
	assert.Equal(t, 0.0, v.Of(chess.NoPieceType))
}

func TestEvaluateStartingPosition(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	b := e.Breakdown(board.New())
	assert.InDelta(t, 0, b.Material, eps)
	assert.InDelta(t, 0, b.Center, eps)
	assert.InDelta(t, 0, b.Mobility, eps)
	assert.InDelta(t, 0, b.KingSafety, eps)
	assert.Zero(t, b.Repetition)
	assert.InDelta(t, 0, e.Evaluate(board.New()), eps)
}

func TestEvaluateMissingQueen(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	balanced := e.Evaluate(board.New())

	noWhiteQueen := e.Evaluate(mustFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR w KQkq - 0 1"))
	assert.InDelta(t, -9, noWhiteQueen-balanced, 0.5)

	noBlackQueen := e.Evaluate(mustFEN(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	assert.InDelta(t, 9, noBlackQueen-balanced, 0.5)
}

func TestEvaluateTerms(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Breakdown
	}{
		{
			name: "white center pawn",
			fen:  "4k3/8/8/8/3P4/8/8/4K3 w - - 0 1",
			// white: five king moves and d5; black: five king moves
			want: Breakdown{Material: 1, Center: 0.1, Mobility: 0.05},
		},
		{
			name: "black center pawn",
			fen:  "4k3/8/8/4p3/8/8/8/4K3 b - - 0 1",
			want: Breakdown{Material: -1, Center: -0.1, Mobility: -0.05},
		},
		{
			name: "white pawn shield",
			fen:  "k7/8/8/8/8/8/5PPP/6K1 w - - 0 1",
			want: Breakdown{Material: 3, Mobility: 0.05 * float64(2+6-3), KingSafety: 0.3},
		},
		{
			name: "shield on the edge file",
			fen:  "k7/8/8/8/8/8/6PP/7K w - - 0 1",
			want: Breakdown{Material: 2, Mobility: 0.05 * float64(1+4-3), KingSafety: 0.2},
		},
		{
			name: "black pawn shield",
			fen:  "6k1/5ppp/8/8/8/8/8/K7 b - - 0 1",
			want: Breakdown{Material: -3, Mobility: 0.05 * float64(3-(2+6)), KingSafety: -0.3},
		},
	}
	e := NewEvaluator(DefaultWeights())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Breakdown(mustFEN(t, tt.fen))
			assert.InDelta(t, tt.want.Material, got.Material, eps, "material")
			assert.InDelta(t, tt.want.Center, got.Center, eps, "center")
			assert.InDelta(t, tt.want.Mobility, got.Mobility, eps, "mobility")
			assert.InDelta(t, tt.want.KingSafety, got.KingSafety, eps, "king safety")
			assert.InDelta(t, tt.want.Total(), got.Total(), eps, "total")
		})
	}
}

func TestEvaluateWithoutKings(t *testing.T) {
	pos := &stubPosition{
		pieces: map[chess.Square]chess.Piece{chess.E4: chess.WhitePawn},
		turn:   chess.White,
	}
	e := NewEvaluator(DefaultWeights())

	var b Breakdown
	require.NotPanics(t, func() { b = e.Breakdown(pos) })
	assert.InDelta(t, 1, b.Material, eps)
	assert.InDelta(t, 0.1, b.Center, eps)
	assert.Zero(t, b.KingSafety)
	assert.Equal(t, 1, pos.nulls)
	assert.Empty(t, pos.stack)
	assert.Equal(t, chess.White, pos.turn)
}

func TestRepetitionPenalty(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	first := e.Evaluate(board.New())
	second := e.Evaluate(knightShuffle(t, 1))
	third := e.Evaluate(knightShuffle(t, 2))

	assert.InDelta(t, first, second, eps, "second occurrence is not penalized")
	assert.InDelta(t, -0.5, third-first, eps)

	// The penalty is not signed by the side to move.
	once := board.New()
	require.NoError(t, once.PlayNotation("Nf3"))
	thrice := knightShuffle(t, 2)
	require.NoError(t, thrice.PlayNotation("Nf3"))
	assert.Equal(t, chess.Black, thrice.Turn())
	assert.InDelta(t, -0.5, e.Evaluate(thrice)-e.Evaluate(once), eps)

	stub := &stubPosition{turn: chess.Black, repeated: true}
	assert.InDelta(t, -0.5, e.Breakdown(stub).Repetition, eps)
}

func TestEvaluateRestoresPosition(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	for _, fen := range []string{italianFEN, foolsMateFEN, stalemateFEN, pawnsFEN} {
		p := mustFEN(t, fen)
		before := p.Snapshot()
		e.Evaluate(p)
		if diff := cmp.Diff(before, p.Snapshot()); diff != "" {
			t.Errorf("%s: evaluate changed the position (-want +got):\n%s", fen, diff)
		}
	}
}

func TestCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.Mobility = 0
	w.PawnShield = 0
	w.Pieces.Queen = 10
	e := NewEvaluator(w)
	got := e.Evaluate(mustFEN(t, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	assert.InDelta(t, 10, got, eps)
	assert.Equal(t, 10.0, e.Weights().Pieces.Queen)
	assert.Equal(t, 9.0, DefaultWeights().Pieces.Queen)
}

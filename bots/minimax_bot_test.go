package bots

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chessai/board"
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// fullMinimax is plain minimax without pruning.
func fullMinimax(e PositionEvaluator, pos Position, depth int, maximizing bool, leaves *int) float64 {
	if depth == 0 || pos.IsGameOver() {
		*leaves++
		return e.Evaluate(pos)
	}
	best := posInf
	if maximizing {
		best = negInf
	}
	for _, m := range pos.LegalMoves() {
		pos.Make(m)
		v := fullMinimax(e, pos, depth-1, !maximizing, leaves)
		pos.Unmake()
		if maximizing {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	}
	return best
}

func fullRoot(e PositionEvaluator, pos Position, depth int) (*chess.Move, []float64, int) {
	maximizing := pos.Turn() == chess.White
	var (
		best   *chess.Move
		scores []float64
		leaves int
	)
	bestScore := posInf
	if maximizing {
		bestScore = negInf
	}
	for _, m := range pos.LegalMoves() {
		pos.Make(m)
		v := fullMinimax(e, pos, depth-1, !maximizing, &leaves)
		pos.Unmake()
		scores = append(scores, v)
		if (maximizing && v > bestScore) || (!maximizing && v < bestScore) {
			bestScore, best = v, m
		}
	}
	return best, scores, leaves
}

func TestAlphaBetaMatchesFullMinimax(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
	}{
		{"start", chess.StartingPosition().String(), 2},
		{"italian", italianFEN, 2},
		{"pawn ending", pawnsFEN, 3},
		{"hanging queen", whiteWinsQ, 3},
	}
	e := NewEvaluator(DefaultWeights())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := mustFEN(t, tt.fen)
			wantMove, wantScores, fullLeaves := fullRoot(e, pos, tt.depth)

			res, err := NewSearcher(e).SearchRoot(context.Background(), pos, tt.depth, pos.Turn())
			require.NoError(t, err)
			require.NotNil(t, res.Move)
			assert.Equal(t, wantMove.String(), res.Move.String())

			require.Len(t, res.Scores, len(wantScores))
			for i, ms := range res.Scores {
				assert.Equal(t, wantScores[i], ms.Score, "root move %s", ms.Move)
			}
			assert.LessOrEqual(t, res.Stats.Leaves, fullLeaves)
			if tt.depth >= 3 {
				assert.Positive(t, res.Stats.Cutoffs)
				assert.Less(t, res.Stats.Leaves, fullLeaves)
			}
		})
	}
}

func TestSearchRestoresPosition(t *testing.T) {
	positions := map[string]*board.Position{
		"start":      board.New(),
		"italian":    mustFEN(t, italianFEN),
		"repetition": knightShuffle(t, 2),
		"pawns":      mustFEN(t, pawnsFEN),
	}
	for name, p := range positions {
		before := p.Snapshot()
		_, err := NewSearcher(NewEvaluator(DefaultWeights())).SelectBestMove(p, 2)
		require.NoError(t, err)
		if diff := cmp.Diff(before, p.Snapshot()); diff != "" {
			t.Errorf("%s: search changed the position (-want +got):\n%s", name, diff)
		}
	}
}

func TestDepthZeroIsEvaluation(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	s := NewSearcher(e)
	for _, fen := range []string{italianFEN, pawnsFEN, whiteWinsQ} {
		p := mustFEN(t, fen)
		want := e.Evaluate(p)
		for _, maximizing := range []bool{true, false} {
			got, err := s.Minimax(p, 0, negInf, posInf, maximizing)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestTerminalShortCircuit(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	for _, fen := range []string{foolsMateFEN, stalemateFEN} {
		spy := &spyPosition{Position: mustFEN(t, fen)}
		want := e.Evaluate(spy)

		got, err := NewSearcher(e).Minimax(spy, 3, negInf, posInf, true)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Zero(t, spy.makes, "no move may be applied at a terminal node")
	}
}

func TestNoLegalMoves(t *testing.T) {
	s := NewSearcher(NewEvaluator(DefaultWeights()))
	for _, fen := range []string{foolsMateFEN, stalemateFEN} {
		m, err := s.SelectBestMove(mustFEN(t, fen), 3)
		require.NoError(t, err)
		assert.Nil(t, m)

		res, err := s.SearchRoot(context.Background(), mustFEN(t, fen), 2, chess.White)
		require.NoError(t, err)
		assert.Nil(t, res.Move)
		assert.Empty(t, res.Scores)
	}
}

func TestInvalidArguments(t *testing.T) {
	s := NewSearcher(NewEvaluator(DefaultWeights()))

	_, err := s.SelectBestMove(board.New(), 0)
	assert.True(t, errors.Is(err, ErrInvalidDepth))

	_, err = s.Minimax(board.New(), -1, negInf, posInf, true)
	assert.True(t, errors.Is(err, ErrInvalidDepth))

	_, err = s.SelectBestMove(nil, 2)
	assert.True(t, errors.Is(err, ErrNilPosition))

	_, err = s.Minimax(nil, 1, negInf, posInf, true)
	assert.True(t, errors.Is(err, ErrNilPosition))

	_, err = s.SearchRoot(context.Background(), board.New(), 1, chess.NoColor)
	assert.True(t, errors.Is(err, ErrInvalidSide))
}

func TestWinsHangingQueen(t *testing.T) {
	s := NewSearcher(NewEvaluator(DefaultWeights()))
	tests := []struct {
		fen  string
		want string
	}{
		{whiteWinsQ, "e4d5"},
		{blackWinsQ, "e5d4"},
	}
	for _, tt := range tests {
		for depth := 1; depth <= 2; depth++ {
			m, err := s.SelectBestMove(mustFEN(t, tt.fen), depth)
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.String(), "depth %d", depth)
		}
	}
}

func TestExplicitSide(t *testing.T) {
	// Searching for the side not to move still ranks its own interests:
	// White maximizes, Black minimizes, whatever the turn.
	s := NewSearcher(NewEvaluator(DefaultWeights()))
	pos := mustFEN(t, whiteWinsQ)

	asWhite, err := s.SearchRoot(context.Background(), pos, 1, chess.White)
	require.NoError(t, err)
	asBlack, err := s.SearchRoot(context.Background(), pos, 1, chess.Black)
	require.NoError(t, err)

	assert.Equal(t, "e4d5", asWhite.Move.String())
	assert.NotEqual(t, asWhite.Move.String(), asBlack.Move.String())
	assert.Greater(t, asWhite.Score, asBlack.Score)
	for _, ms := range asBlack.Scores {
		assert.GreaterOrEqual(t, ms.Score, asBlack.Score)
	}
}

func TestTiesGoToFirstMove(t *testing.T) {
	pos := board.New()
	first := pos.LegalMoves()[0]
	for _, side := range []chess.Color{chess.White, chess.Black} {
		res, err := NewSearcher(constEval(0.25)).SearchRoot(context.Background(), pos, 2, side)
		require.NoError(t, err)
		assert.Equal(t, first, res.Move)
		assert.Equal(t, 0.25, res.Score)
	}
}

func TestOnRootMoveAndCancel(t *testing.T) {
	pos := board.New()
	s := NewSearcher(constEval(0))
	var seen []string
	s.OnRootMove = func(ms MoveScore) { seen = append(seen, ms.Move.String()) }

	res, err := s.SearchRoot(context.Background(), pos, 1, chess.White)
	require.NoError(t, err)
	assert.Len(t, seen, 20)
	assert.Len(t, res.Scores, 20)
	assert.Equal(t, 20, res.Stats.Leaves)
	assert.Equal(t, 20, res.Stats.Nodes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := pos.Snapshot()
	_, err = s.SearchRoot(ctx, pos, 2, chess.White)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, cmp.Diff(before, pos.Snapshot()))
}

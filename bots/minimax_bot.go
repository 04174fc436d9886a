package bots

import (
	"context"
	"fmt"
	"math"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

// Stats counts the work done by one search.
type Stats struct {
	Nodes   int `json:"nodes"`
	Leaves  int `json:"leaves"`
	Cutoffs int `json:"cutoffs"`
}

// MoveScore is a root move with the value of the subtree below it.
type MoveScore struct {
	Move  *chess.Move
	Score float64
}

// Result is the outcome of a root search.
type Result struct {
	// Move is nil when the side to move has no legal move.
	Move  *chess.Move
	Score float64
	Side  chess.Color
	Depth int
	// Scores lists every root move in generation order.
	Scores []MoveScore
	Stats  Stats
}

// Searcher runs fixed-depth minimax with alpha-beta pruning. It keeps
// statistics for the current search only and is not safe for concurrent
// use.
type Searcher struct {
	Evaluator PositionEvaluator

	// OnRootMove, when set, is called after each root move is scored.
	OnRootMove func(MoveScore)

	stats Stats
}

// NewSearcher returns a searcher scoring leaves with eval.
func NewSearcher(eval PositionEvaluator) *Searcher {
	return &Searcher{Evaluator: eval}
}

// Minimax returns the minimax value of pos searched to depth plies.
// Bounds are the usual alpha-beta window; pass -Inf and +Inf for an
// exact value.
func (s *Searcher) Minimax(pos Position, depth int, alpha, beta float64, maximizing bool) (float64, error) {
	if pos == nil {
		return 0, ErrNilPosition
	}
	if depth < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	return s.minimax(pos, depth, alpha, beta, maximizing), nil
}

func (s *Searcher) minimax(pos Position, depth int, alpha, beta float64, maximizing bool) float64 {
	s.stats.Nodes++
	if depth == 0 || pos.IsGameOver() {
		s.stats.Leaves++
		return s.Evaluator.Evaluate(pos)
	}

	if maximizing {
		best := math.Inf(-1)
		for _, move := range pos.LegalMoves() {
			best = math.Max(best, s.child(pos, move, depth-1, alpha, beta, false))
			alpha = math.Max(alpha, best)
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
		return best
	}

	best := math.Inf(1)
	for _, move := range pos.LegalMoves() {
		best = math.Min(best, s.child(pos, move, depth-1, alpha, beta, true))
		beta = math.Min(beta, best)
		if beta <= alpha {
			s.stats.Cutoffs++
			break
		}
	}
	return best
}

// child searches the subtree below move and always takes the move back.
func (s *Searcher) child(pos Position, move *chess.Move, depth int, alpha, beta float64, maximizing bool) float64 {
	pos.Make(move)
	defer pos.Unmake()
	return s.minimax(pos, depth, alpha, beta, maximizing)
}

// SearchRoot scores every legal move for side and returns the best one.
// White maximizes and Black minimizes; ties go to the move generated
// first. Each root move is searched with a full window, so its score is
// exact. ctx is checked between root moves.
func (s *Searcher) SearchRoot(ctx context.Context, pos Position, depth int, side chess.Color) (Result, error) {
	if pos == nil {
		return Result{}, ErrNilPosition
	}
	if depth < 1 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	if side != chess.White && side != chess.Black {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}

	s.stats = Stats{}
	maximizing := side == chess.White
	res := Result{Side: side, Depth: depth}
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}

	for _, move := range pos.LegalMoves() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		score := s.child(pos, move, depth-1, math.Inf(-1), math.Inf(1), !maximizing)
		ms := MoveScore{Move: move, Score: score}
		res.Scores = append(res.Scores, ms)
		if s.OnRootMove != nil {
			s.OnRootMove(ms)
		}
		if (maximizing && score > best) || (!maximizing && score < best) {
			best = score
			res.Move = move
		}
	}

	if res.Move == nil {
		res.Score = s.Evaluator.Evaluate(pos)
	} else {
		res.Score = best
	}
	res.Stats = s.stats

	log.Debug().
		Str("side", ColorName(side)).
		Int("depth", depth).
		Str("move", MoveString(res.Move)).
		Float64("score", res.Score).
		Int("nodes", res.Stats.Nodes).
		Int("leaves", res.Stats.Leaves).
		Int("cutoffs", res.Stats.Cutoffs).
		Msg("root-search-done")
	return res, nil
}

// SelectBestMove returns the best move for the side to move, or nil when
// there is none.
func (s *Searcher) SelectBestMove(pos Position, depth int) (*chess.Move, error) {
	if pos == nil {
		return nil, ErrNilPosition
	}
	res, err := s.SearchRoot(context.Background(), pos, depth, pos.Turn())
	if err != nil {
		return nil, err
	}
	return res.Move, nil
}

// MinimaxBot plays the move chosen by a fixed-depth search.
type MinimaxBot struct {
	Depth     int
	Evaluator PositionEvaluator
}

// NewMinimaxBot returns a bot searching depth plies with the default
// evaluation.
func NewMinimaxBot(depth int) *MinimaxBot {
	return &MinimaxBot{
		Depth:     depth,
		Evaluator: NewEvaluator(DefaultWeights()),
	}
}

func (b *MinimaxBot) Name() string {
	return fmt.Sprintf("Minimax Bot (depth %d)", b.Depth)
}

// Search runs a root search for the side to move. A fresh searcher is
// used per call so nothing carries over between moves.
func (b *MinimaxBot) Search(ctx context.Context, pos Position) (Result, error) {
	if pos == nil {
		return Result{}, ErrNilPosition
	}
	return NewSearcher(b.Evaluator).SearchRoot(ctx, pos, b.Depth, pos.Turn())
}

func (b *MinimaxBot) BestMove(pos Position) *chess.Move {
	res, err := b.Search(context.Background(), pos)
	if err != nil {
		log.Error().Err(err).Str("bot", b.Name()).Msg("search-failed")
		return nil
	}
	return res.Move
}

// MoveString formats m in UCI notation, or "none" for nil.
func MoveString(m *chess.Move) string {
	if m == nil {
		return "none"
	}
	return m.String()
}

// ColorName returns "white", "black" or "none".
func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	default:
		return "none"
	}
}

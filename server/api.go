package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"github.com/samber/lo"

	"chessai/board"
	"chessai/bots"
	"chessai/config"
)

// positionRequest names a position as a root FEN or a PGN game plus the
// moves played from it, so repetitions along the way are known to the
// evaluator.
type positionRequest struct {
	FEN   string   `json:"fen,omitempty"`
	PGN   string   `json:"pgn,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

type searchRequest struct {
	positionRequest
	Depth int    `json:"depth,omitempty"`
	Side  string `json:"side,omitempty"`
}

type evaluateResponse struct {
	Score     float64        `json:"score"`
	Breakdown bots.Breakdown `json:"breakdown"`
	FEN       string         `json:"fen"`
	Turn      string         `json:"turn"`
}

type moveScoreDTO struct {
	Move  string  `json:"move"`
	SAN   string  `json:"san"`
	Score float64 `json:"score"`
}

type bestMoveResponse struct {
	// Move and SAN are null when the side has no legal move.
	Move    *string        `json:"move"`
	SAN     *string        `json:"san"`
	Score   float64        `json:"score"`
	Side    string         `json:"side"`
	Depth   int            `json:"depth"`
	Scores  []moveScoreDTO `json:"scores"`
	Nodes   int            `json:"nodes"`
	Leaves  int            `json:"leaves"`
	Cutoffs int            `json:"cutoffs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (req positionRequest) position() (*board.Position, error) {
	pos := board.New()
	switch {
	case req.FEN != "" && req.PGN != "":
		return nil, fmt.Errorf("%w: fen and pgn are exclusive", ErrBadRequest)
	case req.FEN != "":
		var err error
		if pos, err = board.FromFEN(req.FEN); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	case req.PGN != "":
		opt, err := chess.PGN(strings.NewReader(req.PGN))
		if err != nil {
			return nil, fmt.Errorf("%w: pgn: %v", ErrBadRequest, err)
		}
		pos = board.FromGame(chess.NewGame(opt))
	}
	for i, text := range req.Moves {
		if err := pos.PlayNotation(text); err != nil {
			return nil, fmt.Errorf("%w: move %d: %v", ErrBadRequest, i+1, err)
		}
	}
	return pos, nil
}

// searchJob is a validated search request.
type searchJob struct {
	pos   *board.Position
	depth int
	side  chess.Color
	eval  bots.PositionEvaluator
}

func (s *Server) newJob(req searchRequest) (*searchJob, error) {
	pos, err := req.position()
	if err != nil {
		return nil, err
	}
	depth := req.Depth
	if depth == 0 {
		depth = s.cfg.AIDepth
	}
	if depth < 1 || depth > s.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: depth must be in 1..%d, got %d", ErrBadRequest, s.cfg.MaxDepth, depth)
	}
	side := pos.Turn()
	if req.Side != "" {
		if side, err = config.ParseColor(req.Side); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}
	return &searchJob{pos: pos, depth: depth, side: side, eval: s.eval}, nil
}

// run searches the job. onRoot, when set, sees every root move as soon as
// it is scored.
func (j *searchJob) run(ctx context.Context, onRoot func(moveScoreDTO)) (bestMoveResponse, error) {
	root := j.pos.Chess()
	toDTO := func(ms bots.MoveScore, _ int) moveScoreDTO {
		return moveScoreDTO{
			Move:  ms.Move.String(),
			SAN:   chess.AlgebraicNotation{}.Encode(root, ms.Move),
			Score: ms.Score,
		}
	}

	searcher := bots.NewSearcher(j.eval)
	if onRoot != nil {
		searcher.OnRootMove = func(ms bots.MoveScore) { onRoot(toDTO(ms, 0)) }
	}
	res, err := searcher.SearchRoot(ctx, j.pos, j.depth, j.side)
	if err != nil {
		return bestMoveResponse{}, err
	}

	resp := bestMoveResponse{
		Score:   res.Score,
		Side:    bots.ColorName(res.Side),
		Depth:   res.Depth,
		Scores:  lo.Map(res.Scores, toDTO),
		Nodes:   res.Stats.Nodes,
		Leaves:  res.Stats.Leaves,
		Cutoffs: res.Stats.Cutoffs,
	}
	if res.Move != nil {
		resp.Move = lo.ToPtr(res.Move.String())
		resp.SAN = lo.ToPtr(chess.AlgebraicNotation{}.Encode(root, res.Move))
	}
	return resp, nil
}

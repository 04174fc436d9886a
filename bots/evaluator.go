package bots

import (
	"github.com/notnil/chess"
)

// PieceValues holds material values in pawns.
type PieceValues struct {
	Pawn   float64
	Knight float64
	Bishop float64
	Rook   float64
	Queen  float64
	King   float64
}

// Of returns the value of a piece type; unknown types are worth nothing.
func (v PieceValues) Of(t chess.PieceType) float64 {
	switch t {
	case chess.Pawn:
		return v.Pawn
	case chess.Knight:
		return v.Knight
	case chess.Bishop:
		return v.Bishop
	case chess.Rook:
		return v.Rook
	case chess.Queen:
		return v.Queen
	case chess.King:
		return v.King
	default:
		return 0
	}
}

// Weights configures the Evaluator. It is passed by value and never
// modified after construction.
type Weights struct {
	Pieces          PieceValues
	CenterSquares   []chess.Square
	CenterPawnBonus float64

	// Mobility multiplies white minus black legal move counts.
	Mobility float64

	// PawnShield is added per own pawn in front of the king.
	PawnShield float64

	RepetitionPenalty float64
	// RepetitionCount is the occurrence count, current one included, from
	// which the penalty applies.
	RepetitionCount int
}

// DefaultWeights returns the standard evaluation table.
func DefaultWeights() Weights {
	return Weights{
		Pieces: PieceValues{
			Pawn:   1,
			Knight: 3,
			Bishop: 3.25,
			Rook:   5,
			Queen:  9,
			King:   0,
		},
		CenterSquares:     []chess.Square{chess.D4, chess.D5, chess.E4, chess.E5},
		CenterPawnBonus:   0.1,
		Mobility:          0.05,
		PawnShield:        0.1,
		RepetitionPenalty: 0.5,
		RepetitionCount:   3,
	}
}

// Breakdown is an evaluation split into its terms.
type Breakdown struct {
	Material   float64 `json:"material"`
	Center     float64 `json:"center"`
	Mobility   float64 `json:"mobility"`
	KingSafety float64 `json:"king_safety"`
	Repetition float64 `json:"repetition"`
}

// Total sums the terms.
func (b Breakdown) Total() float64 {
	return b.Material + b.Center + b.Mobility + b.KingSafety + b.Repetition
}

// Evaluator is the static evaluation used at search leaves. Positive
// scores favour White.
type Evaluator struct {
	weights Weights
	center  [64]bool
}

// NewEvaluator builds an evaluator from w.
func NewEvaluator(w Weights) *Evaluator {
	e := &Evaluator{weights: w}
	for _, sq := range w.CenterSquares {
		if sq >= chess.A1 && sq <= chess.H8 {
			e.center[sq] = true
		}
	}
	return e
}

// Weights returns the evaluator's configuration.
func (e *Evaluator) Weights() Weights {
	return e.weights
}

// Evaluate scores pos. The position is probed with a null move for the
// mobility term and is unchanged on return.
func (e *Evaluator) Evaluate(pos Position) float64 {
	return e.Breakdown(pos).Total()
}

// Breakdown computes every evaluation term of pos.
func (e *Evaluator) Breakdown(pos Position) Breakdown {
	var b Breakdown
	b.Material, b.Center = e.materialScore(pos)
	b.Mobility = e.mobilityScore(pos)
	b.KingSafety = e.kingSafety(pos)
	if pos.IsRepetition(e.weights.RepetitionCount) {
		b.Repetition = -e.weights.RepetitionPenalty
	}
	return b
}

func (e *Evaluator) materialScore(pos Position) (material, center float64) {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == chess.NoPiece {
			continue
		}
		sign := 1.0
		if piece.Color() == chess.Black {
			sign = -1
		}
		material += sign * e.weights.Pieces.Of(piece.Type())
		if piece.Type() == chess.Pawn && e.center[sq] {
			center += sign * e.weights.CenterPawnBonus
		}
	}
	return material, center
}

func (e *Evaluator) mobilityScore(pos Position) float64 {
	own := len(pos.LegalMoves())
	other := opponentMobility(pos)
	if pos.Turn() == chess.White {
		return e.weights.Mobility * float64(own-other)
	}
	return e.weights.Mobility * float64(other-own)
}

// opponentMobility counts the legal moves of the side not to move by
// passing the turn. The pass is undone before returning.
func opponentMobility(pos Position) int {
	pos.MakeNull()
	defer pos.Unmake()
	return len(pos.LegalMoves())
}

func (e *Evaluator) kingSafety(pos Position) float64 {
	return e.weights.PawnShield * float64(pawnShield(pos, chess.White)-pawnShield(pos, chess.Black))
}

// pawnShield counts c's pawns on the files next to and including the
// king's file, one rank in front of c's back rank. A missing king gives 0.
func pawnShield(pos Position, c chess.Color) int {
	kingSq, ok := pos.KingSquare(c)
	if !ok {
		return 0
	}
	rank := chess.Rank2
	pawn := chess.WhitePawn
	if c == chess.Black {
		rank = chess.Rank7
		pawn = chess.BlackPawn
	}

	shield := 0
	kingFile := int(kingSq.File())
	for df := -1; df <= 1; df++ {
		file := kingFile + df
		if file < 0 || file > 7 {
			continue
		}
		if pos.PieceAt(chess.NewSquare(chess.File(file), rank)) == pawn {
			shield++
		}
	}
	return shield
}

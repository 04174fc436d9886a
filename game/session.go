// Package game runs a human-versus-AI chess game: the player moves, the
// bot answers, and the player may ask for a hint.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"chessai/board"
	"chessai/bots"
	"chessai/config"
)

var (
	// ErrGameOver is returned for moves and hints after the game ended.
	ErrGameOver = errors.New("game is over")

	// ErrNotPlayerTurn is returned when the player tries to act on the bot's turn.
	ErrNotPlayerTurn = errors.New("not the player's turn")

	// ErrIllegalMove is returned for moves not legal in the current position.
	ErrIllegalMove = board.ErrIllegalMove
)

// Searcher is a bot that also reports its search result.
type Searcher interface {
	bots.ChessBot
	Search(ctx context.Context, pos bots.Position) (bots.Result, error)
}

// Status describes the game for display.
type Status struct {
	Turn       chess.Color
	PlayerTurn bool
	Over       bool
	Outcome    chess.Outcome
	Result     string
}

// TurnText is the side panel label.
func (s Status) TurnText() string {
	if s.PlayerTurn {
		return "PLAYER TURN"
	}
	return "AI TURN"
}

// Session is one game. It is safe for concurrent use; searches run on a
// copy of the position so readers never wait for the bot.
type Session struct {
	mu       sync.Mutex
	pos      *board.Position
	player   chess.Color
	bot      Searcher
	hinter   Searcher
	hint     *chess.Move
	thinking bool
	// gen changes whenever the position does.
	gen int
}

// NewSession starts a game with the human on cfg's player colour, the AI
// searching AIDepth plies and hints searching HintDepth plies.
func NewSession(cfg *config.Config) *Session {
	eval := bots.NewEvaluator(cfg.Weights())
	return &Session{
		pos:    board.New(),
		player: cfg.Player(),
		bot:    &bots.MinimaxBot{Depth: cfg.AIDepth, Evaluator: eval},
		hinter: &bots.MinimaxBot{Depth: cfg.HintDepth, Evaluator: eval},
	}
}

// NewSessionWith starts a game from pos with explicit bots.
func NewSessionWith(pos *board.Position, player chess.Color, bot, hinter Searcher) *Session {
	return &Session{pos: pos, player: player, bot: bot, hinter: hinter}
}

// Reset starts a new game from the initial position.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = board.New()
	s.hint = nil
	s.gen++
	log.Info().Msg("game-reset")
}

// Player returns the human side.
func (s *Session) Player() chess.Color {
	return s.player
}

// SetBot replaces the AI opponent. A search already running finishes with
// the previous bot.
func (s *Session) SetBot(bot Searcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = bot
	log.Info().Str("bot", bot.Name()).Msg("bot-selected")
}

// Bot returns the AI opponent.
func (s *Session) Bot() Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bot
}

// Position returns a copy of the current position.
func (s *Session) Position() *board.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Clone()
}

// CurrentHint returns the last computed hint, or nil.
func (s *Session) CurrentHint() *chess.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hint
}

// Thinking reports whether the bot is searching.
func (s *Session) Thinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// Status returns the turn and result.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	outcome, reason := s.pos.Outcome()
	return Status{
		Turn:       s.pos.Turn(),
		PlayerTurn: s.pos.Turn() == s.player,
		Over:       outcome != chess.NoOutcome,
		Outcome:    outcome,
		Result:     reason,
	}
}

func (s *Session) checkPlayerTurn() error {
	if s.pos.IsGameOver() {
		return ErrGameOver
	}
	if s.pos.Turn() != s.player {
		return ErrNotPlayerTurn
	}
	return nil
}

// PlayerMove plays the player's move between two squares. A pawn reaching
// the last rank becomes a queen.
func (s *Session) PlayerMove(from, to chess.Square) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayerTurn(); err != nil {
		return err
	}
	m := s.pos.Find(from, to)
	if m == nil {
		return fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	s.pos.Make(m)
	s.hint = nil
	s.gen++
	log.Info().Str("move", m.String()).Msg("player-move")
	return nil
}

// PlayerMoveText plays the player's move in UCI or SAN.
func (s *Session) PlayerMoveText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayerTurn(); err != nil {
		return err
	}
	if err := s.pos.PlayNotation(text); err != nil {
		return err
	}
	s.hint = nil
	s.gen++
	log.Info().Str("move", bots.MoveString(s.pos.LastMove())).Msg("player-move")
	return nil
}

// BotMove lets the bot answer. It returns nil without error when it is not
// the bot's turn, the game is over, the bot has no move or another call is
// already searching. A result computed for a position that was reset in
// the meantime is dropped and the bot searches the new position.
func (s *Session) BotMove(ctx context.Context) (*chess.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thinking || !s.botTurnLocked() {
		return nil, nil
	}
	s.thinking = true
	defer func() { s.thinking = false }()

	for {
		pos := s.pos.Clone()
		gen := s.gen
		bot := s.bot
		s.mu.Unlock()

		res, err := bot.Search(ctx, pos)

		s.mu.Lock()
		if err != nil {
			return nil, fmt.Errorf("bot search: %w", err)
		}
		if s.gen != gen {
			log.Warn().Msg("bot-move-discarded")
			if !s.botTurnLocked() {
				return nil, nil
			}
			continue
		}
		if res.Move == nil {
			return nil, nil
		}
		s.pos.Make(res.Move)
		s.gen++
		log.Info().
			Str("bot", bot.Name()).
			Str("move", res.Move.String()).
			Float64("score", res.Score).
			Int("nodes", res.Stats.Nodes).
			Msg("bot-move")
		return res.Move, nil
	}
}

func (s *Session) botTurnLocked() bool {
	return !s.pos.IsGameOver() && s.pos.Turn() != s.player
}

// Hint searches the best move for the player and remembers it until the
// next move.
func (s *Session) Hint(ctx context.Context) (*chess.Move, error) {
	s.mu.Lock()
	if err := s.checkPlayerTurn(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	pos := s.pos.Clone()
	gen := s.gen
	s.mu.Unlock()

	res, err := s.hinter.Search(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("hint search: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.hint = res.Move
	}
	log.Debug().Str("hint", bots.MoveString(res.Move)).Float64("score", res.Score).Msg("hint")
	return res.Move, nil
}

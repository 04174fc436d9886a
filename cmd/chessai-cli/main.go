package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"chessai/bots"
	"chessai/config"
	"chessai/game"
)

var errQuit = errors.New("quit")

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "<move> - play a move in UCI (e2e4, e7e8q) or SAN (Nf3); the AI answers\n")
	io.WriteString(w, "hint - search the best move for you\n")
	io.WriteString(w, "eval - show the static evaluation of the position\n")
	io.WriteString(w, "board - draw the board\n")
	io.WriteString(w, "moves - list the moves played so far\n")
	io.WriteString(w, "reset - start a new game\n")
	io.WriteString(w, "exit - quit\n")
}

type shell struct {
	sess *game.Session
	eval *bots.Evaluator
	out  io.Writer
}

func newShell(cfg *config.Config, out io.Writer) *shell {
	return &shell{
		sess: game.NewSession(cfg),
		eval: bots.NewEvaluator(cfg.Weights()),
		out:  out,
	}
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

// execute runs one command line. It returns errQuit on exit.
func (sh *shell) execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return nil
	case "exit", "bye", "quit":
		return errQuit
	case "help":
		usage(sh.out)
	case "board":
		sh.printf("%s\n", sh.sess.Position().Chess().Board().Draw())
	case "moves":
		moves := lo.Map(sh.sess.Position().Moves(), func(m *chess.Move, _ int) string { return m.String() })
		sh.printf("%s\n", strings.Join(moves, " "))
	case "eval":
		b := sh.eval.Breakdown(sh.sess.Position())
		sh.printf("score %.2f (material %.2f, center %.2f, mobility %.2f, king safety %.2f, repetition %.2f)\n",
			b.Total(), b.Material, b.Center, b.Mobility, b.KingSafety, b.Repetition)
	case "hint":
		m, err := sh.sess.Hint(ctx)
		if err != nil {
			return err
		}
		sh.printf("hint: %s\n", bots.MoveString(m))
	case "reset":
		sh.sess.Reset()
		sh.printf("new game\n")
		return sh.botTurn(ctx)
	default:
		if err := sh.sess.PlayerMoveText(line); err != nil {
			return err
		}
		return sh.botTurn(ctx)
	}
	return nil
}

// botTurn lets the AI move if it is its turn and reports the result.
func (sh *shell) botTurn(ctx context.Context) error {
	m, err := sh.sess.BotMove(ctx)
	if err != nil {
		return err
	}
	if m != nil {
		sh.printf("AI plays %s\n", m)
	}
	if st := sh.sess.Status(); st.Over {
		sh.printf("%s\n", st.Result)
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to a yaml, json or toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mchessai>\033[0m ",
		HistoryFile:     "/tmp/chessai-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("hint"), readline.PcItem("eval"), readline.PcItem("board"),
			readline.PcItem("moves"), readline.PcItem("reset"), readline.PcItem("help"),
			readline.PcItem("exit"),
		),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	sh := newShell(cfg, l.Stdout())
	ctx := context.Background()
	usage(l.Stderr())
	if err := sh.botTurn(ctx); err != nil {
		log.Error().Err(err).Msg("bot-move-failed")
	}

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		err = sh.execute(ctx, line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sh.printf("error: %v\n", err)
		}
	}
}

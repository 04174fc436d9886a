package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"

	"chessai/board"
	"chessai/bots"
	"chessai/config"
	"chessai/game"
)

const panelWidth = 240

var (
	screenWidth  int
	screenHeight int
	squareSize   int
)

var (
	lightSquare = color.RGBA{240, 217, 181, 255}
	darkSquare  = color.RGBA{181, 136, 99, 255}
	panelColor  = color.RGBA{40, 40, 40, 255}
	buttonColor = color.RGBA{90, 90, 90, 255}
	hintColor   = color.RGBA{0, 200, 0, 255}
	whiteFill   = color.RGBA{250, 250, 250, 255}
	blackFill   = color.RGBA{20, 20, 20, 255}
)

var pieceLetters = map[chess.PieceType]string{
	chess.King:   "K",
	chess.Queen:  "Q",
	chess.Rook:   "R",
	chess.Bishop: "B",
	chess.Knight: "N",
	chess.Pawn:   "P",
}

type button struct {
	label      string
	x, y, w, h int
}

func (b button) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

func (b button) draw(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, float32(b.x), float32(b.y), float32(b.w), float32(b.h), buttonColor, false)
	ebitenutil.DebugPrintAt(screen, b.label, b.x+12, b.y+b.h/2-8)
}

type Game struct {
	cfg     *config.Config
	session *game.Session

	// Боты, между которыми переключает клавиша B
	bots     []game.Searcher
	botIndex int

	selected     chess.Square
	dragging     chess.Piece
	dragX, dragY int
	gameStarted  bool
	quit         bool

	boardOffsetX int
	boardOffsetY int

	whiteBtn, blackBtn         button
	resetBtn, hintBtn, exitBtn button
}

func NewGame(cfg *config.Config) *Game {
	// Получаем размеры экрана
	w, h := ebiten.ScreenSizeInFullscreen()

	// Вычисляем размер клетки (оставляем место для панели справа)
	squareSize = min((h-80)/8, (w-panelWidth)/8, 96)
	if squareSize < 40 {
		squareSize = 40
	}
	screenWidth = squareSize*8 + panelWidth
	screenHeight = squareSize * 8

	eval := bots.NewEvaluator(cfg.Weights())
	g := &Game{
		cfg: cfg,
		bots: []game.Searcher{
			&bots.MinimaxBot{Depth: cfg.AIDepth, Evaluator: eval},
			bots.NewRandomBot(),
			bots.NewNewbornBot(),
		},
	}

	px := squareSize*8 + 20
	g.whiteBtn = button{label: "Play White", x: px, y: 80, w: 200, h: 40}
	g.blackBtn = button{label: "Play Black", x: px, y: 130, w: 200, h: 40}
	g.resetBtn = button{label: "Reset", x: px, y: 140, w: 200, h: 40}
	g.hintBtn = button{label: "Show Hint", x: px, y: 190, w: 200, h: 40}
	g.exitBtn = button{label: "Exit", x: px, y: 240, w: 200, h: 40}
	return g
}

func (g *Game) startGame(player chess.Color) {
	cfg := *g.cfg
	if player == chess.Black {
		cfg.PlayerColor = "black"
	} else {
		cfg.PlayerColor = "white"
	}
	g.session = game.NewSession(&cfg)
	g.session.SetBot(g.bots[g.botIndex])
	g.gameStarted = true
	g.dragging = chess.NoPiece
	go g.botTurn()
}

// botTurn runs in its own goroutine so the window keeps drawing.
func (g *Game) botTurn() {
	if _, err := g.session.BotMove(context.Background()); err != nil {
		log.Error().Err(err).Msg("bot-move-failed")
	}
}

func (g *Game) hint() {
	if _, err := g.session.Hint(context.Background()); err != nil {
		log.Warn().Err(err).Msg("hint-failed")
	}
}

// squareAt maps a screen point to a board square, from the player's side.
func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	x -= g.boardOffsetX
	y -= g.boardOffsetY
	if x < 0 || x >= squareSize*8 || y < 0 || y >= squareSize*8 {
		return chess.NoSquare, false
	}
	file, rank := x/squareSize, 7-y/squareSize
	if g.session.Player() == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return board.Square(file, rank)
}

// squareOrigin is the top-left corner of sq on screen.
func (g *Game) squareOrigin(sq chess.Square) (int, int) {
	file, rank := int(sq.File()), int(sq.Rank())
	if g.session.Player() == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return g.boardOffsetX + file*squareSize, g.boardOffsetY + (7-rank)*squareSize
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}

	if !g.gameStarted {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			switch {
			case g.whiteBtn.contains(x, y):
				g.startGame(chess.White)
			case g.blackBtn.contains(x, y):
				g.startGame(chess.Black)
			}
		}
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.botIndex = (g.botIndex + 1) % len(g.bots)
		g.session.SetBot(g.bots[g.botIndex])
	}

	status := g.session.Status()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		switch {
		case g.resetBtn.contains(x, y):
			g.session.Reset()
			g.dragging = chess.NoPiece
			go g.botTurn()
			return nil
		case g.hintBtn.contains(x, y):
			if status.PlayerTurn && !status.Over {
				go g.hint()
			}
			return nil
		case status.Over && g.exitBtn.contains(x, y):
			g.quit = true
			return nil
		}

		// Обработка хода игрока
		if status.PlayerTurn && !status.Over {
			if sq, ok := g.squareAt(x, y); ok {
				piece := g.session.Position().PieceAt(sq)
				if piece != chess.NoPiece && piece.Color() == g.session.Player() {
					g.selected = sq
					g.dragging = piece
				}
			}
		}
	}

	if g.dragging != chess.NoPiece {
		g.dragX, g.dragY = ebiten.CursorPosition()
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.dragging != chess.NoPiece {
		x, y := ebiten.CursorPosition()
		if target, ok := g.squareAt(x, y); ok && target != g.selected {
			if err := g.session.PlayerMove(g.selected, target); err != nil {
				log.Debug().Err(err).Msg("player-move-rejected")
			} else {
				go g.botTurn()
			}
		}
		g.dragging = chess.NoPiece
	}
	return nil
}

func (g *Game) drawPiece(screen *ebiten.Image, piece chess.Piece, cx, cy float32) {
	fill, ink := whiteFill, blackFill
	if piece.Color() == chess.Black {
		fill, ink = blackFill, whiteFill
	}
	r := float32(squareSize) * 0.38
	vector.DrawFilledCircle(screen, cx, cy, r, fill, true)
	vector.StrokeCircle(screen, cx, cy, r, 2, ink, true)
	letter := pieceLetters[piece.Type()]
	// Отладочный шрифт белый, на светлой фигуре рисуем букву на тёмной подложке
	if piece.Color() == chess.White {
		vector.DrawFilledRect(screen, cx-6, cy-9, 12, 18, blackFill, false)
	}
	ebitenutil.DebugPrintAt(screen, letter, int(cx)-3, int(cy)-8)
}

func (g *Game) Draw(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, float32(squareSize*8), 0, panelWidth, float32(screenHeight), panelColor, false)

	if !g.gameStarted {
		// Экран выбора цвета
		px := squareSize*8 + 20
		ebitenutil.DebugPrintAt(screen, "Chess AI", px, 20)
		ebitenutil.DebugPrintAt(screen, "Choose your colour:", px, 50)
		g.whiteBtn.draw(screen)
		g.blackBtn.draw(screen)
		return
	}

	pos := g.session.Position()
	status := g.session.Status()

	// Рисуем доску
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq, _ := board.Square(file, rank)
			x, y := g.squareOrigin(sq)
			clr := lightSquare
			if (file+rank)%2 == 0 {
				clr = darkSquare
			}
			vector.DrawFilledRect(screen, float32(x), float32(y), float32(squareSize), float32(squareSize), clr, false)
		}
	}

	// Подсказка: зелёная рамка вокруг обеих клеток хода
	if hint := g.session.CurrentHint(); hint != nil {
		for _, sq := range []chess.Square{hint.S1(), hint.S2()} {
			x, y := g.squareOrigin(sq)
			vector.StrokeRect(screen, float32(x)+2, float32(y)+2, float32(squareSize)-4, float32(squareSize)-4, 4, hintColor, false)
		}
	}

	// Рисуем фигуры
	half := float32(squareSize) / 2
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == chess.NoPiece || (g.dragging != chess.NoPiece && sq == g.selected) {
			continue
		}
		x, y := g.squareOrigin(sq)
		g.drawPiece(screen, piece, float32(x)+half, float32(y)+half)
	}

	// Рисуем перетаскиваемую фигуру
	if g.dragging != chess.NoPiece {
		g.drawPiece(screen, g.dragging, float32(g.dragX), float32(g.dragY))
	}

	// Панель состояния
	px := squareSize*8 + 20
	turn := status.TurnText()
	if g.session.Thinking() {
		turn = "AI THINKING..."
	}
	ebitenutil.DebugPrintAt(screen, turn, px, 20)
	ebitenutil.DebugPrintAt(screen, g.session.Bot().Name(), px, 50)
	ebitenutil.DebugPrintAt(screen, "B: switch bot", px, 70)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Move %d", pos.Ply()/2+1), px, 100)

	g.resetBtn.draw(screen)
	g.hintBtn.draw(screen)
	if status.Over {
		g.exitBtn.draw(screen)
		ebitenutil.DebugPrintAt(screen, status.Result, px, 300)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	configPath := flag.String("config", "", "path to a yaml, json or toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()

	g := NewGame(cfg)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Chess AI")
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal().Err(err).Msg("game failed")
	}
}

// Package config loads program settings from defaults, an optional file
// and CHESSAI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"chessai/bots"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes environment overrides, e.g. CHESSAI_AI_DEPTH=2.
const EnvPrefix = "CHESSAI"

// Eval mirrors bots.Weights in a file-friendly shape.
type Eval struct {
	Pawn   float64 `mapstructure:"pawn"`
	Knight float64 `mapstructure:"knight"`
	Bishop float64 `mapstructure:"bishop"`
	Rook   float64 `mapstructure:"rook"`
	Queen  float64 `mapstructure:"queen"`

	CenterPawnBonus     float64 `mapstructure:"center_pawn_bonus"`
	Mobility            float64 `mapstructure:"mobility"`
	PawnShield          float64 `mapstructure:"pawn_shield"`
	RepetitionPenalty   float64 `mapstructure:"repetition_penalty"`
	RepetitionThreshold int     `mapstructure:"repetition_threshold"`
}

// Config holds all program settings.
type Config struct {
	// AIDepth is the search depth of the AI reply, HintDepth that of the hint.
	AIDepth   int `mapstructure:"ai_depth"`
	HintDepth int `mapstructure:"hint_depth"`
	// MaxDepth caps depths requested over the API.
	MaxDepth int `mapstructure:"max_depth"`

	// PlayerColor is the human side, "white" or "black".
	PlayerColor string `mapstructure:"player_color"`

	ListenAddr string `mapstructure:"listen_addr"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Eval Eval `mapstructure:"eval"`
}

func setDefaults(v *viper.Viper) {
	w := bots.DefaultWeights()
	v.SetDefault("ai_depth", 3)
	v.SetDefault("hint_depth", 2)
	v.SetDefault("max_depth", 4)
	v.SetDefault("player_color", "white")
	v.SetDefault("listen_addr", ":8088")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("eval.pawn", w.Pieces.Pawn)
	v.SetDefault("eval.knight", w.Pieces.Knight)
	v.SetDefault("eval.bishop", w.Pieces.Bishop)
	v.SetDefault("eval.rook", w.Pieces.Rook)
	v.SetDefault("eval.queen", w.Pieces.Queen)
	v.SetDefault("eval.center_pawn_bonus", w.CenterPawnBonus)
	v.SetDefault("eval.mobility", w.Mobility)
	v.SetDefault("eval.pawn_shield", w.PawnShield)
	v.SetDefault("eval.repetition_penalty", w.RepetitionPenalty)
	v.SetDefault("eval.repetition_threshold", w.RepetitionCount)
}

// Default returns the built-in configuration. The environment is not read.
func Default() *Config {
	cfg, err := load("", false)
	if err != nil {
		// Defaults alone always decode and validate.
		panic(err)
	}
	return cfg
}

// Load reads path (yaml, json or toml, chosen by extension) over the
// defaults. An empty path skips the file. Environment variables win over
// both.
func Load(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, env bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks depths, colour, log settings and weights.
func (c *Config) Validate() error {
	var errs []string
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("max_depth must be at least 1, got %d", c.MaxDepth))
	}
	if c.AIDepth < 1 || c.AIDepth > c.MaxDepth {
		errs = append(errs, fmt.Sprintf("ai_depth must be in 1..%d, got %d", c.MaxDepth, c.AIDepth))
	}
	if c.HintDepth < 1 || c.HintDepth > c.MaxDepth {
		errs = append(errs, fmt.Sprintf("hint_depth must be in 1..%d, got %d", c.MaxDepth, c.HintDepth))
	}
	if _, err := ParseColor(c.PlayerColor); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log_level: %v", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("log_format must be console or json, got %q", c.LogFormat))
	}
	e := c.Eval
	for name, val := range map[string]float64{
		"pawn": e.Pawn, "knight": e.Knight, "bishop": e.Bishop, "rook": e.Rook, "queen": e.Queen,
		"center_pawn_bonus": e.CenterPawnBonus, "mobility": e.Mobility,
		"pawn_shield": e.PawnShield, "repetition_penalty": e.RepetitionPenalty,
	} {
		if val < 0 {
			errs = append(errs, fmt.Sprintf("eval.%s must not be negative, got %g", name, val))
		}
	}
	if e.RepetitionThreshold < 2 {
		errs = append(errs, fmt.Sprintf("eval.repetition_threshold must be at least 2, got %d", e.RepetitionThreshold))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// Player returns the human side.
func (c *Config) Player() chess.Color {
	color, err := ParseColor(c.PlayerColor)
	if err != nil {
		return chess.White
	}
	return color
}

// Weights converts the eval section for the evaluator.
func (c *Config) Weights() bots.Weights {
	w := bots.DefaultWeights()
	w.Pieces.Pawn = c.Eval.Pawn
	w.Pieces.Knight = c.Eval.Knight
	w.Pieces.Bishop = c.Eval.Bishop
	w.Pieces.Rook = c.Eval.Rook
	w.Pieces.Queen = c.Eval.Queen
	w.CenterPawnBonus = c.Eval.CenterPawnBonus
	w.Mobility = c.Eval.Mobility
	w.PawnShield = c.Eval.PawnShield
	w.RepetitionPenalty = c.Eval.RepetitionPenalty
	w.RepetitionCount = c.Eval.RepetitionThreshold
	return w
}

// SetupLogging configures the global zerolog logger on stderr.
func (c *Config) SetupLogging() {
	c.setupLogging(os.Stderr)
}

func (c *Config) setupLogging(out io.Writer) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogFormat == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("colour must be white or black, got %q", s)
}

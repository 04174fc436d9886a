package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"chessai/config"
	"chessai/server"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml, json or toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.SetupLogging()

	log.Info().
		Str("listen", cfg.ListenAddr).
		Int("ai-depth", cfg.AIDepth).
		Int("max-depth", cfg.MaxDepth).
		Msg("starting chessai server")

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("chessai server stopped")
}

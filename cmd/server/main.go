package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/api"
	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/utils/logger"
)

func main() {
	logger.Init()
	log.Info().Msg("Starting nutrition API server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	server, err := api.NewServer(&cfg.ServerEnvConfig, cfg.PipelineEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server shutdown complete")
}

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/explorer"
	"github.com/tensorplex-labs/nutricluster/internal/loader"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
	"github.com/tensorplex-labs/nutricluster/internal/utils/logger"
)

var limit = flag.Int("limit", 5, "number of similar foods to show")

func main() {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	raw, err := loader.Load(cfg.InputPath)
	if err != nil {
		fmt.Printf("Error loading dataset: %v\n", err)
		os.Exit(1)
	}
	opts, err := pipeline.FromConfig(&cfg.PipelineEnvConfig)
	if err != nil {
		fmt.Printf("Error in pipeline configuration: %v\n", err)
		os.Exit(1)
	}
	res, err := pipeline.Run(raw, opts...)
	if err != nil {
		fmt.Printf("Error running pipeline: %v\n", err)
		os.Exit(1)
	}

	m, err := explorer.New(res, cfg.TopN, *limit)
	if err != nil {
		fmt.Printf("Error building explorer: %v\n", err)
		os.Exit(1)
	}

	// keep log lines from tearing the alternate screen
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/api"
	"github.com/tensorplex-labs/nutricluster/internal/client"
	"github.com/tensorplex-labs/nutricluster/internal/utils/logger"
)

var (
	inputPath = flag.String("input", "data/food_nutrition_dataset.csv", "CSV dataset to upload")
	k         = flag.Int("k", 0, "number of clusters (server default when 0)")
	top       = flag.Int("top", 10, "number of best-scored foods to print")
)

func main() {
	logger.Init()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := client.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load client configuration")
	}
	c, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}
	defer c.Close()

	if _, err := c.Health(ctx); err != nil {
		log.Fatal().Err(err).Str("server_url", cfg.ServerURL).Msg("Server is not healthy")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read dataset")
	}

	out, err := c.UploadCSV(ctx, data, api.AnalyzeParams{K: *k, Top: *top})
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	log.Info().Int("clusters", len(out.Clusters)).Int("dropped", out.Dropped).Msg("analysis received")
	for i, row := range out.Rows {
		fmt.Printf("%3d. %-30v %-16v %6.2f  cluster %v\n", i+1, row["food_name"], row["category"], row["nutri_score"], row["cluster"])
	}
}

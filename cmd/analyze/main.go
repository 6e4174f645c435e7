package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/export"
	"github.com/tensorplex-labs/nutricluster/internal/filter"
	"github.com/tensorplex-labs/nutricluster/internal/loader"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
	"github.com/tensorplex-labs/nutricluster/internal/report"
	"github.com/tensorplex-labs/nutricluster/internal/utils/logger"
)

type rangeFlags []filter.Range

func (r *rangeFlags) String() string {
	parts := make([]string, len(*r))
	for i, rg := range *r {
		parts[i] = rg.String()
	}
	return strings.Join(parts, ",")
}

func (r *rangeFlags) Set(s string) error {
	rg, err := filter.ParseRange(s)
	if err != nil {
		return err
	}
	*r = append(*r, rg)
	return nil
}

var (
	inputPath    = flag.String("input", "", "CSV dataset to analyze (defaults to DATASET_PATH)")
	outputPath   = flag.String("output", "", "export path ending in .csv or .json, optionally .zst (defaults to EXPORT_PATH)")
	k            = flag.Int("k", 0, "number of clusters (defaults to NUTRI_K)")
	top          = flag.Int("top", 0, "number of best-scored foods to print (defaults to TOP_N)")
	bins         = flag.Int("bins", 10, "score histogram bins")
	recommendFor = flag.String("recommend", "", "list foods similar to this one")
	noExport     = flag.Bool("no-export", false, "skip writing the scored dataset")
	filters      rangeFlags
)

func init() {
	flag.Var(&filters, "filter", "keep rows with column:min:max, repeatable")
}

func main() {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *inputPath != "" {
		cfg.InputPath = *inputPath
	}
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	if *k != 0 {
		cfg.K = *k
	}
	if *top != 0 {
		cfg.TopN = *top
	}

	raw, err := loader.Load(cfg.InputPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.InputPath).Msg("Failed to load dataset")
	}

	filtered, err := filter.Apply(raw, filters...)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid filter")
	}
	if len(filters) > 0 {
		log.Info().Int("before", raw.Len()).Int("after", filtered.Len()).Msg("filters applied")
	}

	opts, err := pipeline.FromConfig(&cfg.PipelineEnvConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid pipeline configuration")
	}
	res, err := pipeline.Run(filtered, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}

	if err := printReport(res, cfg.TopN); err != nil {
		log.Fatal().Err(err).Msg("Failed to build report")
	}

	if *recommendFor != "" {
		matches, err := recommend.Similar(res.Table, *recommendFor, res.Options.Features)
		if err != nil {
			log.Error().Err(err).Str("food", *recommendFor).Msg("Failed to find similar foods")
		} else {
			fmt.Printf("\nFoods similar to %s:\n", *recommendFor)
			for _, m := range matches {
				fmt.Printf("  %-30s cluster %d  distance %.4f\n", m.FoodName, m.Cluster, m.Distance)
			}
		}
	}

	if *noExport || cfg.OutputPath == "" {
		return
	}
	if err := export.Save(cfg.OutputPath, res.Table); err != nil {
		log.Fatal().Err(err).Msg("Failed to export results")
	}
}

func printReport(res *pipeline.Result, topN int) error {
	summaries, err := report.ClusterSummaries(res.Table, []string{dataset.ColNutriScore})
	if err != nil {
		return err
	}
	report.PlotClusterScoresTerminal(os.Stdout, summaries, dataset.ColNutriScore, "Mean nutri score per cluster")

	scores, err := res.Table.Column(dataset.ColNutriScore)
	if err != nil {
		return err
	}
	histogram, err := report.Histogram(scores, *bins)
	if err != nil {
		return err
	}
	report.PlotHistogramTerminal(os.Stdout, histogram, "Nutri score distribution")

	best, err := report.Top(res.Table, topN)
	if err != nil {
		return err
	}
	scoreIdx := best.ColumnIndex(dataset.ColNutriScore)
	fmt.Printf("\nTop %d foods:\n", best.Len())
	for i, row := range best.Rows {
		fmt.Printf("%3d. %-30s %-16s %6.2f  cluster %d\n", i+1, row.FoodName, row.Category, row.Values[scoreIdx], row.Cluster)
	}

	fmt.Printf("\nExplained variance: pc1 %.4f, pc2 %.4f\n", res.Projection.Variances[0], res.Projection.Variances[1])
	return nil
}

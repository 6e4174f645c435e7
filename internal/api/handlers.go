package api

import (
	"bytes"
	"maps"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/filter"
	"github.com/tensorplex-labs/nutricluster/internal/loader"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
	"github.com/tensorplex-labs/nutricluster/internal/report"
	"github.com/tensorplex-labs/nutricluster/internal/scoring"
)

var summaryColumns = append(append([]string{}, dataset.NutrientColumns...), dataset.ColNutriScore)

func (s *Server) handleAnalyze(_ *fiber.Ctx, req AnalyzeRequest) (AnalyzeResponse, error) {
	raw, err := loader.FromRecords(req.Foods)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	_, resp, err := s.analyze(raw, req.AnalyzeParams)
	return resp, err
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	params, err := paramsFromQuery(c)
	if err != nil {
		return err
	}
	raw, err := loader.Read(bytes.NewReader(c.Body()))
	if err != nil {
		return err
	}
	_, resp, err := s.analyze(raw, params)
	if err != nil {
		return err
	}
	return c.JSON(createResponse(resp, nil))
}

func (s *Server) handleRecommend(_ *fiber.Ctx, req RecommendRequest) (RecommendResponse, error) {
	if req.FoodName == "" {
		return RecommendResponse{}, dataset.ValidationErrorf("food_name is required")
	}
	metric, err := recommend.ParseMetric(req.Metric)
	if err != nil {
		return RecommendResponse{}, err
	}

	raw, err := loader.FromRecords(req.Foods)
	if err != nil {
		return RecommendResponse{}, err
	}
	res, _, err := s.analyze(raw, req.AnalyzeParams)
	if err != nil {
		return RecommendResponse{}, err
	}

	opts := []recommend.Option{recommend.WithMetric(metric), recommend.WithSameCluster(req.SameCluster)}
	if req.Limit > 0 {
		opts = append(opts, recommend.WithLimit(req.Limit))
	}
	matches, err := recommend.Similar(res.Table, req.FoodName, res.Options.Features, opts...)
	if err != nil {
		return RecommendResponse{}, err
	}
	return RecommendResponse{FoodName: req.FoodName, Matches: matches}, nil
}

func (s *Server) handleBounds(_ *fiber.Ctx, req BoundsRequest) (BoundsResponse, error) {
	raw, err := loader.FromRecords(req.Foods)
	if err != nil {
		return BoundsResponse{}, err
	}
	columns := req.Columns
	if len(columns) == 0 {
		columns = dataset.NutrientColumns
	}
	bounds, err := filter.Bounds(raw, columns)
	if err != nil {
		return BoundsResponse{}, err
	}
	return BoundsResponse{Bounds: bounds}, nil
}

// analyze filters raw and runs the pipeline with the server defaults
// overridden by p.
func (s *Server) analyze(raw *dataset.Table, p AnalyzeParams) (*pipeline.Result, AnalyzeResponse, error) {
	filtered, err := filter.Apply(raw, p.Filters...)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}

	opts, err := s.pipelineOptions(p)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}
	res, err := pipeline.Run(filtered, opts...)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}

	out := res.Table
	if p.Top > 0 {
		if out, err = report.Top(res.Table, p.Top); err != nil {
			return nil, AnalyzeResponse{}, err
		}
	}
	clusters, err := report.ClusterSummaries(res.Table, summaryColumns)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}
	bins := p.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	scores, err := res.Table.Column(dataset.ColNutriScore)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}
	histogram, err := report.Histogram(scores, bins)
	if err != nil {
		return nil, AnalyzeResponse{}, err
	}

	log.Debug().Int("rows", raw.Len()).Int("filtered", raw.Len()-filtered.Len()).
		Int("dropped", res.Dropped).Msg("analysis served")

	return res, AnalyzeResponse{
		Rows:              out.Records(),
		Clusters:          clusters,
		Histogram:         histogram,
		ExplainedVariance: res.Projection.Variances,
		Dropped:           res.Dropped,
		Filtered:          raw.Len() - filtered.Len(),
	}, nil
}

func (s *Server) pipelineOptions(p AnalyzeParams) ([]pipeline.Option, error) {
	opts, err := pipeline.FromConfig(&s.pipeline)
	if err != nil {
		return nil, err
	}
	if p.K != 0 {
		opts = append(opts, pipeline.WithK(p.K))
	}
	if p.Seed != nil {
		opts = append(opts, pipeline.WithSeed(*p.Seed))
	}
	if p.FeatureSpace != "" {
		space, err := pipeline.ParseFeatureSpace(p.FeatureSpace)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithFeatureSpace(space))
	}
	if len(p.Weights) > 0 {
		overrides, err := config.ParseWeights(s.pipeline.Weights)
		if err != nil {
			return nil, dataset.ValidationErrorf("%v", err)
		}
		maps.Copy(overrides, p.Weights)
		opts = append(opts, pipeline.WithWeights(scoring.Weights(overrides).Merge()))
	}
	return opts, nil
}

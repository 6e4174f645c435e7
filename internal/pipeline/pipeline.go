// Package pipeline composes scaling, scoring, clustering and projection into
// a single batch run over one table.
package pipeline

import (
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/clustering"
	"github.com/tensorplex-labs/nutricluster/internal/config"
	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/projection"
	"github.com/tensorplex-labs/nutricluster/internal/scaling"
	"github.com/tensorplex-labs/nutricluster/internal/scoring"
)

// FeatureSpace selects which nutrient values feed scoring, clustering and
// projection.
type FeatureSpace string

const (
	FeatureSpaceScaled FeatureSpace = "scaled"
	FeatureSpaceRaw    FeatureSpace = "raw"
)

const DefaultK = 4

type Options struct {
	K            int
	Seed         uint64
	MaxIter      int
	FeatureSpace FeatureSpace
	Features     []string
	Weights      scoring.Weights
	FillMissing  bool
	FillValue    float64
}

type Option func(*Options)

func WithK(k int) Option {
	return func(o *Options) {
		o.K = k
	}
}

func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

func WithMaxIter(maxIter int) Option {
	return func(o *Options) {
		o.MaxIter = maxIter
	}
}

func WithFeatureSpace(space FeatureSpace) Option {
	return func(o *Options) {
		o.FeatureSpace = space
	}
}

// WithFeatures restricts clustering and projection to a subset of nutrients.
func WithFeatures(features ...string) Option {
	return func(o *Options) {
		o.Features = slices.Clone(features)
	}
}

func WithWeights(weights scoring.Weights) Option {
	return func(o *Options) {
		o.Weights = weights
	}
}

// WithFillMissing controls whether undefined feature values are replaced by
// value before scoring and clustering.
func WithFillMissing(enabled bool, value float64) Option {
	return func(o *Options) {
		o.FillMissing = enabled
		o.FillValue = value
	}
}

func DefaultOptions() Options {
	return Options{
		K:            DefaultK,
		Seed:         clustering.DefaultSeed,
		MaxIter:      clustering.DefaultMaxIter,
		FeatureSpace: FeatureSpaceScaled,
		Features:     slices.Clone(dataset.NutrientColumns),
		Weights:      scoring.DefaultWeights(),
		FillMissing:  true,
	}
}

// FromConfig turns environment configuration into pipeline options.
func FromConfig(cfg *config.PipelineEnvConfig) ([]Option, error) {
	space, err := ParseFeatureSpace(cfg.FeatureSpace)
	if err != nil {
		return nil, err
	}
	overrides, err := config.ParseWeights(cfg.Weights)
	if err != nil {
		return nil, dataset.ValidationErrorf("%v", err)
	}

	return []Option{
		WithK(cfg.K),
		WithSeed(cfg.Seed),
		WithMaxIter(cfg.MaxIter),
		WithFeatureSpace(space),
		WithWeights(scoring.Weights(overrides).Merge()),
		WithFillMissing(cfg.FillMissing, cfg.FillValue),
	}, nil
}

// ParseFeatureSpace accepts "scaled" or "raw"; empty means scaled.
func ParseFeatureSpace(s string) (FeatureSpace, error) {
	switch FeatureSpace(strings.ToLower(strings.TrimSpace(s))) {
	case "", FeatureSpaceScaled:
		return FeatureSpaceScaled, nil
	case FeatureSpaceRaw:
		return FeatureSpaceRaw, nil
	}
	return "", dataset.ValidationErrorf("unknown feature space %q, expected %q or %q", s, FeatureSpaceScaled, FeatureSpaceRaw)
}

// Result is everything one run produced.
type Result struct {
	Table      *dataset.Table
	Scaling    *scaling.Model
	Clusters   *clustering.Assignment
	Projection *projection.Projection
	Options    Options
	Dropped    int
}

// Run executes the full pipeline on a copy of raw. The table is expected to be
// filtered already; scores are normalized relative to the rows it contains.
func Run(raw *dataset.Table, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	startTime := time.Now()
	if err := raw.RequireColumns(dataset.NutrientColumns...); err != nil {
		return nil, err
	}
	if missing := raw.MissingColumns(o.Features); len(missing) > 0 {
		return nil, dataset.ValidationErrorf("unknown feature columns %v", missing)
	}

	kept, dropped := scaling.DropUndefined(raw, dataset.NutrientColumns)
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("dropped rows without any nutrient value")
	}

	model, err := scaling.Fit(kept, dataset.NutrientColumns)
	if err != nil {
		return nil, err
	}

	var features *dataset.Table
	switch o.FeatureSpace {
	case FeatureSpaceScaled:
		if features, err = model.Transform(kept); err != nil {
			return nil, err
		}
	case FeatureSpaceRaw:
		features = kept
	default:
		return nil, dataset.ValidationErrorf("unknown feature space %q", o.FeatureSpace)
	}

	if o.FillMissing {
		features = FillUndefined(features, dataset.NutrientColumns, o.FillValue)
	}

	scored, err := scoring.NutritionScoringPipeline(scoring.WithWeights(o.Weights)).Process(features)
	if err != nil {
		return nil, err
	}

	clustered, assignment, err := clustering.Cluster(scored, o.Features, o.K,
		clustering.WithSeed(o.Seed), clustering.WithMaxIter(o.MaxIter))
	if err != nil {
		return nil, err
	}

	projected, proj, err := projection.Project(clustered, o.Features)
	if err != nil {
		return nil, err
	}

	log.Info().Int("rows", projected.Len()).Int("dropped", dropped).Int("k", o.K).
		Str("featureSpace", string(o.FeatureSpace)).Int("iterations", assignment.Iterations).
		Dur("elapsed", time.Since(startTime)).Msg("pipeline finished")

	return &Result{
		Table:      projected,
		Scaling:    model,
		Clusters:   assignment,
		Projection: proj,
		Options:    o,
		Dropped:    dropped,
	}, nil
}

// FillUndefined returns a copy of t with undefined entries of columns set to
// value.
func FillUndefined(t *dataset.Table, columns []string, value float64) *dataset.Table {
	out := t.Clone()
	for _, col := range columns {
		j := out.ColumnIndex(col)
		if j < 0 {
			continue
		}
		for i := range out.Rows {
			if dataset.IsUndefined(out.Rows[i].Values[j]) {
				out.Rows[i].Values[j] = value
			}
		}
	}
	return out
}

package scoring

import (
	"maps"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

type ScoringPipeline struct {
	Weights Weights
}

type ScoringPipelineOption func(*ScoringPipeline)

// WithWeights replaces the whole weight set.
func WithWeights(weights Weights) ScoringPipelineOption {
	return func(p *ScoringPipeline) {
		p.Weights = maps.Clone(weights)
	}
}

// WithWeight overrides a single nutrient weight.
func WithWeight(nutrient string, weight float64) ScoringPipelineOption {
	return func(p *ScoringPipeline) {
		p.Weights[nutrient] = weight
	}
}

func NutritionScoringPipeline(opts ...ScoringPipelineOption) *ScoringPipeline {
	p := &ScoringPipeline{
		Weights: DefaultWeights(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process computes the raw score and its normalized form on a copy of t.
func (p *ScoringPipeline) Process(t *dataset.Table) (*dataset.Table, error) {
	log.Debug().Interface("weights", p.Weights).Int("rows", t.Len()).Msg("Processing with nutrient weights")

	scored, err := RawScore(t, p.Weights)
	if err != nil {
		return nil, err
	}
	return Normalize(scored)
}

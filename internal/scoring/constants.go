package scoring

import "github.com/tensorplex-labs/nutricluster/internal/dataset"

const (
	// ScoreScale is the upper bound of a normalized score.
	ScoreScale = 100.0
	// MidpointScore is assigned to every row when all raw scores are equal.
	MidpointScore = 50.0
	// EmptyScore is assigned to every row when no raw score is defined.
	EmptyScore = 0.0

	equalAbsTol = 1e-8
	equalRelTol = 1e-5
)

// Nutrients that raise the score must carry a strictly positive weight,
// the others a strictly negative one.
var (
	PositiveNutrients = []string{dataset.ColProtein, dataset.ColIron, dataset.ColVitaminC}
	NegativeNutrients = []string{dataset.ColCalories, dataset.ColFat, dataset.ColCarbs}
)

func DefaultWeights() Weights {
	return Weights{
		dataset.ColCalories: -1.0,
		dataset.ColFat:      -0.8,
		dataset.ColCarbs:    -0.6,
		dataset.ColProtein:  1.0,
		dataset.ColIron:     0.5,
		dataset.ColVitaminC: 0.5,
	}
}

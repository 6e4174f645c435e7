package scoring

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// NormalizeScores maps raw scores onto [0, 100] using the observed range of
// the defined entries. Every entry becomes MidpointScore when the defined
// entries are all equal, and EmptyScore when none is defined. Otherwise
// undefined entries stay undefined.
func NormalizeScores(raw []float64) []float64 {
	result := make([]float64, len(raw))
	copy(result, raw)

	defined := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !dataset.IsUndefined(v) {
			defined = append(defined, v)
		}
	}

	if len(defined) == 0 {
		fill(result, EmptyScore)
		return result
	}

	lo := floats.Min(defined)
	hi := floats.Max(defined)
	if scalar.EqualWithinAbsOrRel(hi, lo, equalAbsTol, equalRelTol) {
		fill(result, MidpointScore)
		return result
	}

	span := hi - lo
	floats.AddConst(-lo, result)
	for i := range result {
		result[i] = result[i] / span * ScoreScale
	}
	return result
}

// Normalize adds the nutri_score column computed from nutri_raw.
func Normalize(t *dataset.Table) (*dataset.Table, error) {
	raw, err := t.Column(dataset.ColNutriRaw)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	if err := out.SetColumn(dataset.ColNutriScore, NormalizeScores(raw)); err != nil {
		return nil, err
	}
	if out.Stage < dataset.StageScored {
		out.Stage = dataset.StageScored
	}
	return out, nil
}

func fill(values []float64, v float64) {
	for i := range values {
		values[i] = v
	}
	log.Debug().Int("rows", len(values)).Float64("value", v).Msg("degenerate raw scores, using fallback")
}

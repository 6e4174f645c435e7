// Package scoring computes a weighted nutrition score per food and rescales it
// to a 0-100 range relative to the foods currently in view.
package scoring

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// RawScore adds the nutri_raw column: the weighted sum of the nutrient
// columns. Absent nutrient columns are synthesized as all-zero; an undefined
// nutrient makes that row's raw score undefined.
func RawScore(t *dataset.Table, w Weights) (*dataset.Table, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	out := t.Clone()
	n := out.Len()
	raw := make([]float64, n)

	for _, col := range w.Columns() {
		if !out.HasColumn(col) {
			log.Debug().Str("column", col).Msg("nutrient column absent, synthesizing zeros")
			if err := out.SetColumn(col, make([]float64, n)); err != nil {
				return nil, err
			}
		}
		values, err := out.Column(col)
		if err != nil {
			return nil, err
		}
		floats.AddScaled(raw, w[col], values)
	}

	if err := out.SetColumn(dataset.ColNutriRaw, raw); err != nil {
		return nil, err
	}
	return out, nil
}

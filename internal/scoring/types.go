package scoring

import (
	"maps"
	"slices"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// Weights maps a nutrient column to its coefficient in the raw score.
type Weights map[string]float64

// Validate rejects unknown nutrients and weights whose sign contradicts the
// nutrient's role.
func (w Weights) Validate() error {
	for _, name := range slices.Sorted(maps.Keys(w)) {
		v := w[name]
		switch {
		case slices.Contains(PositiveNutrients, name):
			if !(v > 0) {
				return dataset.ValidationErrorf("weight for %s must be positive, got %g", name, v)
			}
		case slices.Contains(NegativeNutrients, name):
			if !(v < 0) {
				return dataset.ValidationErrorf("weight for %s must be negative, got %g", name, v)
			}
		default:
			return dataset.ValidationErrorf("unknown nutrient %q in weights", name)
		}
	}
	return nil
}

// Merge returns the default weights overridden by w.
func (w Weights) Merge() Weights {
	out := DefaultWeights()
	maps.Copy(out, w)
	return out
}

// Columns returns the weighted nutrients in schema order.
func (w Weights) Columns() []string {
	cols := make([]string, 0, len(w))
	for _, col := range dataset.NutrientColumns {
		if _, ok := w[col]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

package scaling

import (
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// definedRange returns the min and max over the defined entries of values.
// ok is false when every entry is undefined.
func definedRange(values []float64) (lo, hi float64, ok bool) {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !dataset.IsUndefined(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return 0, 0, false
	}
	return floats.Min(defined), floats.Max(defined), true
}

// MinMaxScale rescales values to [0, 1] using their own observed range.
// Undefined entries stay undefined; a constant or fully undefined column
// becomes all zeros.
func MinMaxScale(values []float64) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	lo, hi, ok := definedRange(result)
	if !ok || hi == lo {
		for i := range result {
			result[i] = 0
		}
		return result
	}

	floats.AddConst(-lo, result)
	divide(result, hi-lo)
	return result
}

// divide divides every value by span, so the column maximum maps to exactly 1.
func divide(values []float64, span float64) {
	for i := range values {
		values[i] /= span
	}
}

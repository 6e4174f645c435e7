// Package projection reduces the nutrient feature space to two principal axes
// for plotting. Its output never feeds back into scoring or clustering.
package projection

import (
	"math"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// Dimensions is the number of output axes.
const Dimensions = 2

// Projection is a PCA basis fit on one table together with the coordinates
// of that table's rows.
type Projection struct {
	Features  []string
	Means     []float64
	Axes      *mat.Dense // len(Features) x Dimensions, unit columns
	Variances []float64  // variance captured by each axis
	Coords    *mat.Dense // rows x Dimensions
}

// Fit computes the two principal axes of X (rows are records).
func Fit(X *mat.Dense, features []string) (*Projection, error) {
	n, d := X.Dims()
	if d < Dimensions {
		return nil, dataset.ValidationErrorf("projection needs at least %d feature columns, got %d", Dimensions, d)
	}
	if n < Dimensions {
		return nil, dataset.ValidationErrorf("projection needs at least %d records, got %d", Dimensions, n)
	}
	for i := range n {
		for j := range d {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, dataset.ValidationErrorf("record %d has an undefined or infinite value in %q", i, features[j])
			}
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, dataset.ValidationErrorf("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	axes := mat.DenseCopyOf(vecs.Slice(0, d, 0, Dimensions))
	orientAxes(axes)

	means := make([]float64, d)
	for j := range d {
		means[j] = stat.Mean(mat.Col(nil, j, X), nil)
	}

	centered := mat.DenseCopyOf(X)
	for i := range n {
		for j := range d {
			centered.Set(i, j, centered.At(i, j)-means[j])
		}
	}

	var coords mat.Dense
	coords.Mul(centered, axes)

	p := &Projection{
		Features:  slices.Clone(features),
		Means:     means,
		Axes:      axes,
		Variances: slices.Clone(vars[:Dimensions]),
		Coords:    &coords,
	}

	log.Debug().Int("rows", n).Int("features", d).Floats64("variances", p.Variances).
		Msg("projection fitted")
	return p, nil
}

// Project fits a fresh basis on the feature columns of t and returns a copy
// of t with pc1 and pc2 appended. Row order and count are unchanged.
func Project(t *dataset.Table, features []string) (*dataset.Table, *Projection, error) {
	if len(features) < Dimensions {
		return nil, nil, dataset.ValidationErrorf("projection needs at least %d feature columns, got %d", Dimensions, len(features))
	}
	if t.Len() < Dimensions {
		return nil, nil, dataset.ValidationErrorf("projection needs at least %d records, got %d", Dimensions, t.Len())
	}

	X, err := t.Matrix(features)
	if err != nil {
		return nil, nil, err
	}

	p, err := Fit(X, features)
	if err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	for k, col := range []string{dataset.ColPC1, dataset.ColPC2} {
		if err := out.SetColumn(col, mat.Col(nil, k, p.Coords)); err != nil {
			return nil, nil, err
		}
	}
	if out.Stage < dataset.StageProjected {
		out.Stage = dataset.StageProjected
	}
	return out, p, nil
}

// orientAxes flips each column so that its largest-magnitude loading is
// positive, making the output independent of the decomposition's sign choice.
func orientAxes(axes *mat.Dense) {
	rows, cols := axes.Dims()
	for k := range cols {
		col := mat.Col(nil, k, axes)
		pivot := 0
		for j := range rows {
			if math.Abs(col[j]) > math.Abs(col[pivot]) {
				pivot = j
			}
		}
		if col[pivot] < 0 {
			for j := range rows {
				axes.Set(j, k, -col[j])
			}
		}
	}
}

// Package scaling rescales nutrient columns so that units measured on very
// different ranges contribute comparably to scoring and clustering.
package scaling

import (
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// Model holds the per-column range learned by Fit.
type Model struct {
	Columns []string
	Min     []float64
	Max     []float64
	// defined is false for columns that had no defined value at fit time.
	defined []bool
}

// Fit learns min and max over the defined values of each listed column.
func Fit(t *dataset.Table, columns []string) (*Model, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}

	m := &Model{
		Columns: slices.Clone(columns),
		Min:     make([]float64, len(columns)),
		Max:     make([]float64, len(columns)),
		defined: make([]bool, len(columns)),
	}
	for j, col := range columns {
		values, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		m.Min[j], m.Max[j], m.defined[j] = definedRange(values)
	}
	return m, nil
}

// Degenerate reports whether column j cannot be rescaled: it is constant or
// had no defined values.
func (m *Model) Degenerate(j int) bool {
	return !m.defined[j] || m.Min[j] == m.Max[j]
}

// Transform returns a rescaled copy of t. Degenerate columns are filled with
// zero for every row, undefined entries included.
func (m *Model) Transform(t *dataset.Table) (*dataset.Table, error) {
	if err := t.RequireColumns(m.Columns...); err != nil {
		return nil, err
	}

	out := t.Clone()
	for j, col := range m.Columns {
		values, err := out.Column(col)
		if err != nil {
			return nil, err
		}
		if m.Degenerate(j) {
			log.Debug().Str("column", col).Float64("min", m.Min[j]).Float64("max", m.Max[j]).
				Msg("degenerate column, filling with zero")
			for i := range values {
				values[i] = 0
			}
		} else {
			floats.AddConst(-m.Min[j], values)
			divide(values, m.Max[j]-m.Min[j])
		}
		if err := out.SetColumn(col, values); err != nil {
			return nil, err
		}
	}
	if out.Stage < dataset.StageScaled {
		out.Stage = dataset.StageScaled
	}
	return out, nil
}

// InverseTransform maps scaled values back to the units seen at fit time.
// Degenerate columns map back to their constant value.
func (m *Model) InverseTransform(t *dataset.Table) (*dataset.Table, error) {
	if err := t.RequireColumns(m.Columns...); err != nil {
		return nil, err
	}

	out := t.Clone()
	for j, col := range m.Columns {
		values, err := out.Column(col)
		if err != nil {
			return nil, err
		}
		if m.Degenerate(j) {
			for i := range values {
				values[i] = m.Min[j]
			}
		} else {
			floats.Scale(m.Max[j]-m.Min[j], values)
			floats.AddConst(m.Min[j], values)
		}
		if err := out.SetColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DropUndefined returns a copy of t without the rows whose listed columns are
// all undefined, and the number of rows removed.
func DropUndefined(t *dataset.Table, columns []string) (*dataset.Table, int) {
	idx := make([]int, 0, len(columns))
	for _, col := range columns {
		if j := t.ColumnIndex(col); j >= 0 {
			idx = append(idx, j)
		}
	}

	out := t.Filter(func(r dataset.Row) bool {
		for _, j := range idx {
			if !dataset.IsUndefined(r.Values[j]) {
				return true
			}
		}
		return false
	})
	return out, t.Len() - out.Len()
}

// Preprocess drops fully undefined rows, then fits and applies a scaler on
// what remains. The returned model is the one used for the returned table.
func Preprocess(t *dataset.Table, columns []string) (*dataset.Table, *Model, int, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, nil, 0, err
	}

	kept, dropped := DropUndefined(t, columns)
	model, err := Fit(kept, columns)
	if err != nil {
		return nil, nil, dropped, err
	}
	scaled, err := model.Transform(kept)
	if err != nil {
		return nil, nil, dropped, err
	}

	log.Debug().Int("rows", scaled.Len()).Int("dropped", dropped).Strs("columns", columns).
		Msg("preprocessed table")
	return scaled, model, dropped, nil
}

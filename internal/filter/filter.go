// Package filter narrows a table with range predicates over numeric columns
// before it enters the pipeline.
package filter

import (
	"strconv"
	"strings"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// Range keeps rows whose Column value lies in [Min, Max].
type Range struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Contains reports whether v lies inside r. Undefined values never do.
func (r Range) Contains(v float64) bool {
	return !dataset.IsUndefined(v) && v >= r.Min && v <= r.Max
}

// String formats r as column:min:max, the form ParseRange reads.
func (r Range) String() string {
	return r.Column + ":" + strconv.FormatFloat(r.Min, 'g', -1, 64) + ":" + strconv.FormatFloat(r.Max, 'g', -1, 64)
}

// ParseRange reads a column:min:max filter expression.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Range{}, dataset.ValidationErrorf("invalid filter %q, expected column:min:max", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Range{}, dataset.ValidationErrorf("invalid filter minimum in %q", s)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Range{}, dataset.ValidationErrorf("invalid filter maximum in %q", s)
	}
	return Range{Column: strings.ToLower(strings.TrimSpace(parts[0])), Min: lo, Max: hi}, nil
}

// Apply returns a copy of t holding the rows that satisfy every range.
// Row order is preserved.
func Apply(t *dataset.Table, ranges ...Range) (*dataset.Table, error) {
	idx := make([]int, len(ranges))
	for k, r := range ranges {
		j := t.ColumnIndex(r.Column)
		if j < 0 {
			return nil, dataset.SchemaErrorf("cannot filter on missing column %q", r.Column)
		}
		if r.Min > r.Max {
			return nil, dataset.ValidationErrorf("range on %q has min %g above max %g", r.Column, r.Min, r.Max)
		}
		idx[k] = j
	}

	return t.Filter(func(row dataset.Row) bool {
		for k, r := range ranges {
			if !r.Contains(row.Values[idx[k]]) {
				return false
			}
		}
		return true
	}), nil
}

// Bounds returns a [0, max] range per column, suitable as the initial
// position of range sliders. Fully undefined columns get [0, 0].
func Bounds(t *dataset.Table, columns []string) ([]Range, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}

	out := make([]Range, 0, len(columns))
	for _, col := range columns {
		values, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		hi := 0.0
		for _, v := range values {
			if !dataset.IsUndefined(v) && v > hi {
				hi = v
			}
		}
		out = append(out, Range{Column: col, Min: 0, Max: hi})
	}
	return out, nil
}

package dataset

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// New returns an empty raw table over the given numeric columns.
func New(columns []string) *Table {
	return &Table{
		Stage:   StageRaw,
		Columns: slices.Clone(columns),
	}
}

// AppendRow adds a row whose values are looked up by column name. Columns
// missing from values are stored as undefined.
func (t *Table) AppendRow(foodName, category string, values map[string]float64) {
	row := Row{
		FoodName: foodName,
		Category: category,
		Values:   make([]float64, len(t.Columns)),
		Cluster:  Unassigned,
	}
	for j, col := range t.Columns {
		v, ok := values[col]
		if !ok {
			v = Undefined()
		}
		row.Values[j] = v
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy so that stages never share row storage.
func (t *Table) Clone() *Table {
	out := &Table{
		Stage:   t.Stage,
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = Row{
			FoodName: r.FoodName,
			Category: r.Category,
			Values:   slices.Clone(r.Values),
			Cluster:  r.Cluster,
		}
	}
	return out
}

// Filter returns a copy holding only the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{
		Stage:   t.Stage,
		Columns: slices.Clone(t.Columns),
	}
	for _, r := range t.Rows {
		if !keep(r) {
			continue
		}
		out.Rows = append(out.Rows, Row{
			FoodName: r.FoodName,
			Category: r.Category,
			Values:   slices.Clone(r.Values),
			Cluster:  r.Cluster,
		})
	}
	return out
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// MissingColumns lists the names that are not numeric columns of t.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireColumns fails with ErrSchema when any of names is absent.
func (t *Table) RequireColumns(names ...string) error {
	if missing := t.MissingColumns(names); len(missing) > 0 {
		return SchemaErrorf("missing columns %v", missing)
	}
	return nil
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, SchemaErrorf("missing column %q", name)
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[j]
	}
	return out, nil
}

// SetColumn overwrites the named column, appending it when absent.
// It mutates t and is meant to be called on a table the caller owns.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.Rows) {
		return ValidationErrorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	j := t.ColumnIndex(name)
	if j < 0 {
		t.Columns = append(t.Columns, name)
		for i := range t.Rows {
			t.Rows[i].Values = append(t.Rows[i].Values, values[i])
		}
		return nil
	}
	for i := range t.Rows {
		t.Rows[i].Values[j] = values[i]
	}
	return nil
}

// Vectors returns one freshly allocated feature vector per row.
func (t *Table) Vectors(features []string) ([][]float64, error) {
	if err := t.RequireColumns(features...); err != nil {
		return nil, err
	}
	idx := make([]int, len(features))
	for k, f := range features {
		idx[k] = t.ColumnIndex(f)
	}
	out := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		v := make([]float64, len(idx))
		for k, j := range idx {
			v[k] = r.Values[j]
		}
		out[i] = v
	}
	return out, nil
}

// Matrix returns the rows x features matrix of the named columns.
func (t *Table) Matrix(features []string) (*mat.Dense, error) {
	vectors, err := t.Vectors(features)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(features) == 0 {
		return nil, ValidationErrorf("cannot build a %dx%d matrix", len(vectors), len(features))
	}
	m := mat.NewDense(len(vectors), len(features), nil)
	for i, v := range vectors {
		m.SetRow(i, v)
	}
	return m, nil
}

// Records flattens the table into column-name keyed maps, with nil for
// undefined values. The cluster column is present once the table is clustered.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		rec := make(map[string]any, len(t.Columns)+3)
		rec[ColFoodName] = r.FoodName
		rec[ColCategory] = r.Category
		for j, col := range t.Columns {
			if IsUndefined(r.Values[j]) {
				rec[col] = nil
				continue
			}
			rec[col] = r.Values[j]
		}
		if t.Stage >= StageClustered {
			rec[ColCluster] = r.Cluster
		}
		out[i] = rec
	}
	return out
}

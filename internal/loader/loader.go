// Package loader reads food nutrition datasets into raw tables.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// RequiredColumns is the input schema, identity columns first.
var RequiredColumns = append(append([]string{}, dataset.IdentityColumns...), dataset.NutrientColumns...)

// NormalizeHeader trims and lower-cases a column name. A leading byte order
// mark, as written by spreadsheet exports, is dropped.
func NormalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

// Load reads a CSV dataset from path.
func Load(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", t.Len()).Msg("dataset loaded")
	return t, nil
}

// Read parses CSV with a header row. Headers are matched case-insensitively
// after trimming; extra columns are ignored. Nutrient cells that are empty or
// not numeric become undefined.
func Read(r io.Reader) (*dataset.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, dataset.SchemaErrorf("empty input, expected header %v", RequiredColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if err := checkSchema(index); err != nil {
		return nil, err
	}

	t := dataset.New(dataset.NutrientColumns)
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		values := make(map[string]float64, len(dataset.NutrientColumns))
		for _, col := range dataset.NutrientColumns {
			values[col] = Coerce(cell(col))
		}
		t.AppendRow(strings.TrimSpace(cell(dataset.ColFoodName)), strings.TrimSpace(cell(dataset.ColCategory)), values)
	}
	return t, nil
}

// FromRecords builds a raw table from decoded JSON objects, applying the same
// header and coercion rules as Read.
func FromRecords(records []map[string]any) (*dataset.Table, error) {
	seen := make(map[string]int)
	normalized := make([]map[string]any, len(records))
	for i, rec := range records {
		n := make(map[string]any, len(rec))
		for k, v := range rec {
			name := NormalizeHeader(k)
			n[name] = v
			seen[name] = 0
		}
		normalized[i] = n
	}
	if len(records) > 0 {
		if err := checkSchema(seen); err != nil {
			return nil, err
		}
	}

	t := dataset.New(dataset.NutrientColumns)
	for _, rec := range normalized {
		values := make(map[string]float64, len(dataset.NutrientColumns))
		for _, col := range dataset.NutrientColumns {
			values[col] = Coerce(rec[col])
		}
		t.AppendRow(toString(rec[dataset.ColFoodName]), toString(rec[dataset.ColCategory]), values)
	}
	return t, nil
}

// Coerce converts a cell to a number, returning undefined for anything that
// is not a finite number or a numeric string.
func Coerce(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return dataset.Undefined()
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return dataset.Undefined()
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return dataset.Undefined()
		}
		f = parsed
	case fmt.Stringer:
		return Coerce(x.String())
	default:
		return dataset.Undefined()
	}
	if math.IsInf(f, 0) {
		return dataset.Undefined()
	}
	return f
}

func checkSchema(index map[string]int) error {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return dataset.SchemaErrorf("dataset is missing required columns %v", missing)
	}
	return nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

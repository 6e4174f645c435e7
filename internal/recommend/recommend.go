// Package recommend finds foods with a nutrient profile close to a given
// food.
package recommend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

var ErrNotFound = errors.New("food not found")

type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
)

const DefaultLimit = 5

// ParseMetric accepts "euclidean" or "cosine"; empty means euclidean.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricEuclidean:
		return MetricEuclidean, nil
	case MetricCosine:
		return MetricCosine, nil
	}
	return "", dataset.ValidationErrorf("unknown metric %q, expected %q or %q", s, MetricEuclidean, MetricCosine)
}

type options struct {
	limit       int
	metric      Metric
	sameCluster bool
}

type Option func(*options)

func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

func WithMetric(m Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithSameCluster only considers foods assigned to the target's cluster.
func WithSameCluster(enabled bool) Option {
	return func(o *options) {
		o.sameCluster = enabled
	}
}

// Match is one recommended food. Distance is the euclidean distance for that
// metric and 1 - similarity for cosine, so lower is always closer.
type Match struct {
	FoodName   string   `json:"food_name"`
	Category   string   `json:"category"`
	Cluster    int      `json:"cluster"`
	NutriScore *float64 `json:"nutri_score,omitempty"`
	Distance   float64  `json:"distance"`
}

// Similar ranks the rows of t by closeness to the first row named foodName
// over features, excluding that row. Rows with undefined features are skipped.
// Equal distances keep table order.
func Similar(t *dataset.Table, foodName string, features []string, opts ...Option) ([]Match, error) {
	o := options{limit: DefaultLimit, metric: MetricEuclidean}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limit < 1 {
		return nil, dataset.ValidationErrorf("limit must be at least 1, got %d", o.limit)
	}
	if len(features) == 0 {
		return nil, dataset.ValidationErrorf("no features to compare on")
	}

	var distance func(a, b []float64) float64
	switch o.metric {
	case MetricEuclidean:
		distance = EuclideanDistance
	case MetricCosine:
		distance = func(a, b []float64) float64 { return 1 - CosineSimilarity(a, b) }
	default:
		return nil, dataset.ValidationErrorf("unknown metric %q", o.metric)
	}

	vectors, err := t.Vectors(features)
	if err != nil {
		return nil, err
	}

	target := slices.IndexFunc(t.Rows, func(r dataset.Row) bool { return r.FoodName == foodName })
	if target < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, foodName)
	}
	if hasUndefined(vectors[target]) {
		return nil, dataset.ValidationErrorf("food %q has undefined features", foodName)
	}

	scoreIdx := t.ColumnIndex(dataset.ColNutriScore)
	matches := make([]Match, 0, len(t.Rows)-1)
	for i, row := range t.Rows {
		if i == target || hasUndefined(vectors[i]) {
			continue
		}
		if o.sameCluster && row.Cluster != t.Rows[target].Cluster {
			continue
		}
		m := Match{
			FoodName: row.FoodName,
			Category: row.Category,
			Cluster:  row.Cluster,
			Distance: distance(vectors[target], vectors[i]),
		}
		if scoreIdx >= 0 && !dataset.IsUndefined(row.Values[scoreIdx]) {
			score := row.Values[scoreIdx]
			m.NutriScore = &score
		}
		matches = append(matches, m)
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(matches) > o.limit {
		matches = matches[:o.limit]
	}
	return matches, nil
}

func hasUndefined(v []float64) bool {
	return slices.ContainsFunc(v, dataset.IsUndefined)
}

// Package report aggregates pipeline output into cluster summaries, score
// distributions, per-food profiles and terminal charts.
package report

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
)

// ClusterSummary holds the size of one cluster and the mean of each column
// over its defined values. Columns with no defined value are absent from
// Means.
type ClusterSummary struct {
	Cluster int                `json:"cluster"`
	Size    int                `json:"size"`
	Means   map[string]float64 `json:"means"`
}

// ClusterSummaries summarizes every cluster present in t, ordered by id.
func ClusterSummaries(t *dataset.Table, columns []string) ([]ClusterSummary, error) {
	if t.Stage < dataset.StageClustered {
		return nil, dataset.ValidationErrorf("table is %s, clusters are not assigned yet", t.Stage)
	}
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}

	type acc struct {
		size   int
		values [][]float64
	}
	byCluster := make(map[int]*acc)
	for _, row := range t.Rows {
		a, ok := byCluster[row.Cluster]
		if !ok {
			a = &acc{values: make([][]float64, len(columns))}
			byCluster[row.Cluster] = a
		}
		a.size++
		for k, col := range columns {
			v := row.Values[t.ColumnIndex(col)]
			if dataset.IsUndefined(v) {
				continue
			}
			a.values[k] = append(a.values[k], v)
		}
	}

	out := make([]ClusterSummary, 0, len(byCluster))
	for id, a := range byCluster {
		s := ClusterSummary{Cluster: id, Size: a.size, Means: make(map[string]float64, len(columns))}
		for k, col := range columns {
			if len(a.values[k]) > 0 {
				s.Means[col] = stat.Mean(a.values[k], nil)
			}
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b ClusterSummary) int { return cmp.Compare(a.Cluster, b.Cluster) })
	return out, nil
}

// Bin counts the values in [Lower, Upper). The last bin also holds Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram buckets scores into bins equal-width bins over [0, 100]. Undefined
// and out-of-range values are not counted.
func Histogram(values []float64, bins int) ([]Bin, error) {
	if bins < 1 {
		return nil, dataset.ValidationErrorf("histogram needs at least one bin, got %d", bins)
	}

	const lo, hi = 0.0, 100.0
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: lo + float64(i)*width, Upper: lo + float64(i+1)*width}
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		if dataset.IsUndefined(v) || v < lo || v > hi {
			continue
		}
		i := min(int((v-lo)/width), bins-1)
		out[i].Count++
	}
	return out, nil
}

// Profile compares one food with the mean of its cluster over features.
type Profile struct {
	FoodName    string    `json:"food_name"`
	Cluster     int       `json:"cluster"`
	Features    []string  `json:"features"`
	Values      []float64 `json:"values"`
	ClusterMean []float64 `json:"cluster_mean"`
}

// Radar builds the profile of the first row named foodName.
func Radar(t *dataset.Table, foodName string, features []string) (*Profile, error) {
	idx := slices.IndexFunc(t.Rows, func(r dataset.Row) bool { return r.FoodName == foodName })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", recommend.ErrNotFound, foodName)
	}
	summaries, err := ClusterSummaries(t, features)
	if err != nil {
		return nil, err
	}
	vectors, err := t.Vectors(features)
	if err != nil {
		return nil, err
	}

	row := t.Rows[idx]
	p := &Profile{
		FoodName:    row.FoodName,
		Cluster:     row.Cluster,
		Features:    slices.Clone(features),
		Values:      vectors[idx],
		ClusterMean: make([]float64, len(features)),
	}
	for _, s := range summaries {
		if s.Cluster != row.Cluster {
			continue
		}
		for k, f := range features {
			mean, ok := s.Means[f]
			if !ok {
				mean = dataset.Undefined()
			}
			p.ClusterMean[k] = mean
		}
	}
	return p, nil
}

// Top returns a copy of t holding the n best-scored rows, highest first.
// Rows with an undefined score sort last; ties keep table order.
func Top(t *dataset.Table, n int) (*dataset.Table, error) {
	j := t.ColumnIndex(dataset.ColNutriScore)
	if j < 0 {
		return nil, dataset.SchemaErrorf("table has no %s column", dataset.ColNutriScore)
	}
	if n < 0 {
		return nil, dataset.ValidationErrorf("top count must not be negative, got %d", n)
	}

	out := t.Clone()
	slices.SortStableFunc(out.Rows, func(a, b dataset.Row) int {
		av, bv := a.Values[j], b.Values[j]
		switch {
		case dataset.IsUndefined(av) && dataset.IsUndefined(bv):
			return 0
		case dataset.IsUndefined(av):
			return 1
		case dataset.IsUndefined(bv):
			return -1
		}
		return cmp.Compare(bv, av)
	})
	if len(out.Rows) > n {
		out.Rows = out.Rows[:n]
	}
	return out, nil
}

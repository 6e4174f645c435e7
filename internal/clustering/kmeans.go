// Package clustering partitions foods into groups of similar nutrient profile
// with k-means.
package clustering

import (
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

const (
	DefaultSeed    uint64 = 42
	DefaultMaxIter        = 300
)

// KMeans holds the parameters of one clustering run.
type KMeans struct {
	K       int
	MaxIter int
	Seed    uint64
}

// Assignment is the outcome of a fit.
type Assignment struct {
	Labels     []int
	Centroids  [][]float64
	Sizes      []int
	Inertia    float64 // sum of squared distances to the assigned centroid
	Iterations int
	Converged  bool
}

type Option func(*KMeans)

func WithSeed(seed uint64) Option {
	return func(m *KMeans) {
		m.Seed = seed
	}
}

func WithMaxIter(maxIter int) Option {
	return func(m *KMeans) {
		m.MaxIter = maxIter
	}
}

func NewKMeans(k int, opts ...Option) *KMeans {
	m := &KMeans{
		K:       k,
		MaxIter: DefaultMaxIter,
		Seed:    DefaultSeed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fit clusters the rows of X. Ties between equidistant centroids go to the
// lowest cluster id, so identical points all land in the same cluster and
// the remaining clusters stay empty with their seeded centroid.
func (m *KMeans) Fit(X [][]float64) (*Assignment, error) {
	if err := m.validate(X); err != nil {
		return nil, err
	}

	n, p := len(X), len(X[0])
	centroids := m.initCenters(X)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = dataset.Unassigned
	}

	a := &Assignment{Labels: labels, Centroids: centroids, Sizes: make([]int, m.K)}
	sums := make([][]float64, m.K)
	for k := range sums {
		sums[k] = make([]float64, p)
	}

	for it := 0; it < m.MaxIter; it++ {
		a.Iterations = it + 1

		changed := false
		for i, x := range X {
			best := nearest(x, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		if !changed {
			a.Converged = true
			break
		}

		// order-independent reduction: per-cluster sum and count
		for k := range sums {
			for j := range sums[k] {
				sums[k][j] = 0
			}
			a.Sizes[k] = 0
		}
		for i, x := range X {
			floats.Add(sums[labels[i]], x)
			a.Sizes[labels[i]]++
		}
		for k := range centroids {
			if a.Sizes[k] == 0 {
				continue
			}
			for j := range centroids[k] {
				centroids[k][j] = sums[k][j] / float64(a.Sizes[k])
			}
		}
	}

	for k := range a.Sizes {
		a.Sizes[k] = 0
	}
	a.Inertia = 0
	for i, x := range X {
		a.Sizes[labels[i]]++
		d := floats.Distance(x, centroids[labels[i]], 2)
		a.Inertia += d * d
	}

	log.Debug().Int("k", m.K).Int("rows", n).Int("iterations", a.Iterations).
		Bool("converged", a.Converged).Ints("sizes", a.Sizes).Float64("inertia", a.Inertia).
		Msg("k-means finished")
	return a, nil
}

func (m *KMeans) validate(X [][]float64) error {
	if m.K < 2 {
		return dataset.ValidationErrorf("k must be at least 2, got %d", m.K)
	}
	if len(X) == 0 {
		return dataset.ValidationErrorf("no records to cluster")
	}
	if m.K > len(X) {
		return dataset.ValidationErrorf("k=%d exceeds the %d available records", m.K, len(X))
	}
	if m.MaxIter < 1 {
		return dataset.ValidationErrorf("max iterations must be positive, got %d", m.MaxIter)
	}
	p := len(X[0])
	if p == 0 {
		return dataset.ValidationErrorf("no feature columns to cluster on")
	}
	for i, x := range X {
		if len(x) != p {
			return dataset.ValidationErrorf("record %d has %d features, expected %d", i, len(x), p)
		}
		for _, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return dataset.ValidationErrorf("record %d has an undefined or infinite feature value", i)
			}
		}
	}
	return nil
}

// initCenters seeds centroids with k-means++ from a generator derived from
// m.Seed. When every remaining point coincides with a chosen centroid, the
// lowest unused index is taken instead.
func (m *KMeans) initCenters(X [][]float64) [][]float64 {
	n := len(X)
	r := rand.New(rand.NewPCG(m.Seed, m.Seed))

	centroids := make([][]float64, 0, m.K)
	used := make([]bool, n)

	first := r.IntN(n)
	centroids = append(centroids, append([]float64(nil), X[first]...))
	used[first] = true

	distSq := make([]float64, n)
	for len(centroids) < m.K {
		total := 0.0
		for i, x := range X {
			d := floats.Distance(x, centroids[nearest(x, centroids)], 2)
			distSq[i] = d * d
			total += distSq[i]
		}

		next := -1
		if total > 0 {
			target := r.Float64() * total
			cumulative := 0.0
			for i, d2 := range distSq {
				if d2 == 0 {
					continue
				}
				cumulative += d2
				next = i
				if cumulative >= target {
					break
				}
			}
		} else {
			for i := range used {
				if !used[i] {
					next = i
					break
				}
			}
		}

		used[next] = true
		centroids = append(centroids, append([]float64(nil), X[next]...))
	}
	return centroids
}

// nearest returns the index of the closest centroid, lowest index on ties.
func nearest(x []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for k, c := range centroids {
		d := floats.Distance(x, c, 2)
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

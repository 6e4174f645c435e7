package clustering

import (
	"fmt"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

// Cluster runs k-means over the given feature columns of t and returns a copy
// of t carrying each row's cluster id. Rows are neither dropped nor reordered.
func Cluster(t *dataset.Table, features []string, k int, opts ...Option) (*dataset.Table, *Assignment, error) {
	if len(features) == 0 {
		return nil, nil, dataset.ValidationErrorf("no feature columns requested for clustering")
	}
	if missing := t.MissingColumns(features); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: clustering features %v absent: %w",
			dataset.ErrValidation, missing, dataset.ErrSchema)
	}

	X, err := t.Vectors(features)
	if err != nil {
		return nil, nil, err
	}

	assignment, err := NewKMeans(k, opts...).Fit(X)
	if err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	for i := range out.Rows {
		out.Rows[i].Cluster = assignment.Labels[i]
	}
	if out.Stage < dataset.StageClustered {
		out.Stage = dataset.StageClustered
	}
	return out, assignment, nil
}

package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

func foods() *dataset.Table {
	t := dataset.New(dataset.NutrientColumns)
	t.AppendRow("apple", "fruit", map[string]float64{"calories": 52, "protein": 0.3, "iron": 0.1})
	t.AppendRow("steak", "meat", map[string]float64{"calories": 271, "protein": 25, "iron": 2.6})
	t.AppendRow("bread", "grain", map[string]float64{"calories": 265, "protein": 9})
	return t
}

func names(t *dataset.Table) []string {
	var out []string
	for _, r := range t.Rows {
		out = append(out, r.FoodName)
	}
	return out
}

func TestApply(t *testing.T) {
	tbl := foods()

	out, err := Apply(tbl, Range{Column: "calories", Min: 100, Max: 300})
	require.NoError(t, err)
	assert.Equal(t, []string{"steak", "bread"}, names(out))

	out, err = Apply(tbl, Range{Column: "calories", Min: 0, Max: 300}, Range{Column: "protein", Min: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"bread"}, names(out))

	out, err = Apply(tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}

func TestApplyExcludesUndefined(t *testing.T) {
	out, err := Apply(foods(), Range{Column: "iron", Min: 0, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "steak"}, names(out))
}

func TestApplyErrors(t *testing.T) {
	_, err := Apply(foods(), Range{Column: "sodium", Min: 0, Max: 1})
	assert.True(t, errors.Is(err, dataset.ErrSchema))

	_, err = Apply(foods(), Range{Column: "fat", Min: 2, Max: 1})
	assert.True(t, errors.Is(err, dataset.ErrValidation))
}

func TestBounds(t *testing.T) {
	bounds, err := Bounds(foods(), []string{"calories", "fat"})
	require.NoError(t, err)
	assert.Equal(t, []Range{
		{Column: "calories", Min: 0, Max: 271},
		{Column: "fat", Min: 0, Max: 0},
	}, bounds)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange(" Calories : 0 : 250.5")
	require.NoError(t, err)
	assert.Equal(t, Range{Column: "calories", Min: 0, Max: 250.5}, r)
	assert.Equal(t, "calories:0:250.5", r.String())

	for _, bad := range []string{"calories", "calories:x:1", "calories:0:y", "a:1:2:3"} {
		_, err := ParseRange(bad)
		assert.True(t, errors.Is(err, dataset.ErrValidation), bad)
	}
}

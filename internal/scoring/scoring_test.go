package scoring

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
)

func nan() float64 { return dataset.Undefined() }

func tableOf(rows ...map[string]float64) *dataset.Table {
	t := dataset.New(dataset.NutrientColumns)
	for i, r := range rows {
		t.AppendRow(fmt.Sprintf("food-%d", i), "cat", r)
	}
	return t
}

func TestDefaultWeightsHaveExpectedSigns(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())

	for _, n := range PositiveNutrients {
		assert.Greater(t, w[n], 0.0, n)
	}
	for _, n := range NegativeNutrients {
		assert.Less(t, w[n], 0.0, n)
	}
}

func TestWeightsValidate(t *testing.T) {
	cases := []struct {
		name    string
		weights Weights
	}{
		{"positive nutrient with negative weight", Weights{dataset.ColProtein: -1}},
		{"negative nutrient with positive weight", Weights{dataset.ColFat: 0.3}},
		{"zero weight", Weights{dataset.ColIron: 0}},
		{"unknown nutrient", Weights{"sodium": -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.weights.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, dataset.ErrValidation))
		})
	}
}

func TestWeightsMerge(t *testing.T) {
	w := Weights{dataset.ColProtein: 2}.Merge()
	assert.Equal(t, 2.0, w[dataset.ColProtein])
	assert.Equal(t, -1.0, w[dataset.ColCalories])
	assert.Len(t, w, len(dataset.NutrientColumns))
}

func TestRawScore(t *testing.T) {
	tbl := tableOf(
		map[string]float64{"calories": 1, "protein": 1, "carbs": 1, "fat": 1, "iron": 1, "vitamin_c": 1},
		map[string]float64{"calories": 0, "protein": 2, "carbs": 0, "fat": 0, "iron": 0, "vitamin_c": 0},
		map[string]float64{"calories": 0, "protein": 1, "carbs": 0, "fat": 0, "iron": 0},
	)

	out, err := RawScore(tbl, DefaultWeights())
	require.NoError(t, err)

	raw, err := out.Column(dataset.ColNutriRaw)
	require.NoError(t, err)
	assert.InDelta(t, -1.0-0.8-0.6+1.0+0.5+0.5, raw[0], 1e-12)
	assert.InDelta(t, 2.0, raw[1], 1e-12)
	assert.True(t, dataset.IsUndefined(raw[2]))

	assert.False(t, tbl.HasColumn(dataset.ColNutriRaw), "input table must not be mutated")
}

func TestRawScoreSynthesizesMissingColumns(t *testing.T) {
	tbl := dataset.New([]string{dataset.ColProtein})
	tbl.AppendRow("tofu", "protein", map[string]float64{"protein": 3})

	out, err := RawScore(tbl, DefaultWeights())
	require.NoError(t, err)

	raw, _ := out.Column(dataset.ColNutriRaw)
	assert.Equal(t, []float64{3}, raw)
	fat, err := out.Column(dataset.ColFat)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, fat)
}

func TestNormalizeScores(t *testing.T) {
	t.Run("range spans 0 to 100", func(t *testing.T) {
		got := NormalizeScores([]float64{-3, 1, 5})
		assert.Equal(t, 0.0, got[0])
		assert.InDelta(t, 50.0, got[1], 1e-12)
		assert.Equal(t, 100.0, got[2])
	})

	t.Run("all equal gives midpoint", func(t *testing.T) {
		got := NormalizeScores([]float64{0.7, 0.7, 0.7})
		assert.Equal(t, []float64{50, 50, 50}, got)
	})

	t.Run("nearly equal gives midpoint", func(t *testing.T) {
		got := NormalizeScores([]float64{1, 1 + 1e-12})
		assert.Equal(t, []float64{50, 50}, got)
	})

	t.Run("all equal overrides undefined", func(t *testing.T) {
		got := NormalizeScores([]float64{2, nan(), 2})
		assert.Equal(t, []float64{50, 50, 50}, got)
	})

	t.Run("all undefined gives zero", func(t *testing.T) {
		got := NormalizeScores([]float64{nan(), nan()})
		assert.Equal(t, []float64{0, 0}, got)
	})

	t.Run("undefined entries are preserved", func(t *testing.T) {
		got := NormalizeScores([]float64{0, nan(), 10})
		assert.Equal(t, 0.0, got[0])
		assert.True(t, dataset.IsUndefined(got[1]))
		assert.Equal(t, 100.0, got[2])
	})

	t.Run("random input stays in bounds", func(t *testing.T) {
		r := rand.New(rand.NewPCG(1, 2))
		raw := make([]float64, 500)
		for i := range raw {
			raw[i] = r.NormFloat64() * 37
		}
		got := NormalizeScores(raw)
		assert.Equal(t, 0.0, floats.Min(got))
		assert.Equal(t, 100.0, floats.Max(got))
		assert.Equal(t, floats.MaxIdx(raw), floats.MaxIdx(got))
		assert.Equal(t, floats.MinIdx(raw), floats.MinIdx(got))
	})
}

func TestNormalizeRequiresRawScore(t *testing.T) {
	_, err := Normalize(tableOf(map[string]float64{"calories": 1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrSchema))
}

func TestScoringPipeline(t *testing.T) {
	tbl := tableOf(
		map[string]float64{"calories": 0.2, "protein": 0.9, "carbs": 0.1, "fat": 0.1, "iron": 0.5, "vitamin_c": 0.4},
		map[string]float64{"calories": 0.9, "protein": 0.1, "carbs": 0.8, "fat": 0.7, "iron": 0.0, "vitamin_c": 0.0},
	)

	t.Run("defaults", func(t *testing.T) {
		out, err := NutritionScoringPipeline().Process(tbl)
		require.NoError(t, err)
		assert.Equal(t, dataset.StageScored, out.Stage)
		scores, _ := out.Column(dataset.ColNutriScore)
		assert.Equal(t, []float64{100, 0}, scores)
	})

	t.Run("single weight override", func(t *testing.T) {
		p := NutritionScoringPipeline(WithWeight(dataset.ColProtein, 3))
		assert.Equal(t, 3.0, p.Weights[dataset.ColProtein])
		assert.Equal(t, -1.0, p.Weights[dataset.ColCalories])
	})

	t.Run("invalid weights are rejected", func(t *testing.T) {
		p := NutritionScoringPipeline(WithWeights(Weights{dataset.ColFat: 1}))
		_, err := p.Process(tbl)
		assert.True(t, errors.Is(err, dataset.ErrValidation))
	})
}

func BenchmarkNutritionScoringPipeline(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Foods%d", size), func(b *testing.B) {
			tbl := dataset.New(dataset.NutrientColumns)
			for i := range size {
				values := make(map[string]float64, len(dataset.NutrientColumns))
				for _, col := range dataset.NutrientColumns {
					values[col] = rand.Float64()
				}
				tbl.AppendRow(fmt.Sprintf("food-%d", i), "cat", values)
			}
			p := NutritionScoringPipeline()

			b.ResetTimer()
			for b.Loop() {
				_, _ = p.Process(tbl)
			}
		})
	}
}

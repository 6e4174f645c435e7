package explorer

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
)

func result(t *testing.T) *pipeline.Result {
	t.Helper()
	raw := dataset.New(dataset.NutrientColumns)
	rows := []struct {
		name string
		v    []float64
	}{
		{"lentils", []float64{100, 10, 5, 2, 1, 20}},
		{"spinach", []float64{110, 12, 6, 2.5, 1.2, 22}},
		{"broccoli", []float64{95, 11, 4, 1.8, 0.9, 25}},
		{"cake", []float64{420, 4, 55, 20, 0.3, 0}},
		{"donut", []float64{450, 5, 50, 25, 0.4, 1}},
		{"cookie", []float64{480, 3, 60, 22, 0.2, 0}},
	}
	for _, r := range rows {
		values := make(map[string]float64)
		for j, col := range dataset.NutrientColumns {
			values[col] = r.v[j]
		}
		raw.AppendRow(r.name, "food", values)
	}
	res, err := pipeline.Run(raw, pipeline.WithK(2))
	require.NoError(t, err)
	return res
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationAndSelection(t *testing.T) {
	m, err := New(result(t), 4, 2)
	require.NoError(t, err)
	assert.Nil(t, m.Init())

	m.Update(key("up"))
	assert.Equal(t, 0, m.cursor)
	for range 10 {
		m.Update(key("down"))
	}
	assert.Equal(t, 3, m.cursor)

	m.Update(key("enter"))
	require.NotNil(t, m.selected)
	require.NoError(t, m.selected.err)
	assert.Equal(t, m.choices.Rows[3].FoodName, m.selected.food)
	assert.Len(t, m.selected.matches, 2)
	assert.Contains(t, m.View(), "Similar to "+m.selected.food)

	m.Update(key("m"))
	assert.Equal(t, recommend.MetricCosine, m.metric)
	assert.Contains(t, m.View(), "(cosine")

	m.Update(key("c"))
	assert.True(t, m.sameCluster)
	for _, match := range m.selected.matches {
		assert.Equal(t, m.selected.profile.Cluster, match.Cluster)
	}

	m.Update(key("esc"))
	assert.Nil(t, m.selected)
}

func TestQuit(t *testing.T) {
	m, err := New(result(t), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, recommend.DefaultLimit, m.limit)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestNewEmpty(t *testing.T) {
	res := result(t)
	res.Table = res.Table.Filter(func(dataset.Row) bool { return false })
	_, err := New(res, 3, 1)
	assert.Error(t, err)
}

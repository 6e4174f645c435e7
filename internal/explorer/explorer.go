// Package explorer is an interactive terminal browser over a pipeline result:
// pick a food from the best-scored list and see its closest neighbours.
package explorer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tensorplex-labs/nutricluster/internal/dataset"
	"github.com/tensorplex-labs/nutricluster/internal/pipeline"
	"github.com/tensorplex-labs/nutricluster/internal/recommend"
	"github.com/tensorplex-labs/nutricluster/internal/report"
)

type selection struct {
	food    string
	matches []recommend.Match
	profile *report.Profile
	err     error
}

// Model implements tea.Model.
type Model struct {
	result      *pipeline.Result
	choices     *dataset.Table
	cursor      int
	limit       int
	metric      recommend.Metric
	sameCluster bool
	selected    *selection
}

var _ tea.Model = (*Model)(nil)

// New lists the top best-scored foods of res.
func New(res *pipeline.Result, top, limit int) (*Model, error) {
	choices, err := report.Top(res.Table, top)
	if err != nil {
		return nil, err
	}
	if choices.Len() == 0 {
		return nil, dataset.ValidationErrorf("nothing to explore, the table is empty")
	}
	if limit < 1 {
		limit = recommend.DefaultLimit
	}
	return &Model{
		result:  res,
		choices: choices,
		limit:   limit,
		metric:  recommend.MetricEuclidean,
	}, nil
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < m.choices.Len()-1 {
			m.cursor++
		}

	case "enter":
		m.selectCursor()

	case "c":
		m.sameCluster = !m.sameCluster
		m.refresh()

	case "m":
		if m.metric == recommend.MetricEuclidean {
			m.metric = recommend.MetricCosine
		} else {
			m.metric = recommend.MetricEuclidean
		}
		m.refresh()

	case "esc":
		m.selected = nil
	}
	return m, nil
}

func (m *Model) selectCursor() {
	food := m.choices.Rows[m.cursor].FoodName
	features := m.result.Options.Features

	sel := &selection{food: food}
	sel.matches, sel.err = recommend.Similar(m.result.Table, food, features,
		recommend.WithLimit(m.limit), recommend.WithMetric(m.metric), recommend.WithSameCluster(m.sameCluster))
	if sel.err == nil {
		sel.profile, sel.err = report.Radar(m.result.Table, food, features)
	}
	m.selected = sel
}

func (m *Model) refresh() {
	if m.selected != nil {
		m.selectCursor()
	}
}

func (m *Model) View() string {
	var b strings.Builder
	scoreIdx := m.choices.ColumnIndex(dataset.ColNutriScore)

	b.WriteString("Top foods by nutri score:\n\n")
	for i, row := range m.choices.Rows {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %-28s %-14s score %6.2f  cluster %d\n",
			cursor, row.FoodName, row.Category, row.Values[scoreIdx], row.Cluster)
	}

	if sel := m.selected; sel != nil {
		fmt.Fprintf(&b, "\nSimilar to %s (%s", sel.food, m.metric)
		if m.sameCluster {
			b.WriteString(", same cluster")
		}
		b.WriteString("):\n")
		switch {
		case sel.err != nil:
			fmt.Fprintf(&b, "  error: %v\n", sel.err)
		case len(sel.matches) == 0:
			b.WriteString("  no matches\n")
		default:
			for _, match := range sel.matches {
				fmt.Fprintf(&b, "  %-28s cluster %d  distance %.4f\n", match.FoodName, match.Cluster, match.Distance)
			}
		}
		if p := sel.profile; p != nil && sel.err == nil {
			fmt.Fprintf(&b, "\nProfile vs cluster %d mean:\n", p.Cluster)
			for k, f := range p.Features {
				fmt.Fprintf(&b, "  %-10s %8.4f  %8.4f\n", f, p.Values[k], p.ClusterMean[k])
			}
		}
	}

	b.WriteString("\nenter: similar foods  c: same cluster  m: metric  esc: clear  q: quit\n")
	return b.String()
}

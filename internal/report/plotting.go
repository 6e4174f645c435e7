package report

import (
	"fmt"
	"io"
	"strings"
)

const maxBarWidth = 50

// PlotClusterScoresTerminal draws the mean nutri_score of every cluster as a
// horizontal bar chart.
func PlotClusterScoresTerminal(w io.Writer, summaries []ClusterSummary, scoreColumn, title string) {
	fmt.Fprintf(w, "\n%s (Terminal Plot):\n", title)
	fmt.Fprintln(w, "Cluster | Size  | Mean Score | Bar Chart")
	fmt.Fprintln(w, "--------|-------|------------|"+strings.Repeat("-", maxBarWidth))

	for _, s := range summaries {
		mean, ok := s.Means[scoreColumn]
		if !ok {
			fmt.Fprintf(w, "%7d | %5d | %10s | \n", s.Cluster, s.Size, "n/a")
			continue
		}
		fmt.Fprintf(w, "%7d | %5d | %10.4f | %s\n", s.Cluster, s.Size, mean, bar(mean, 100))
	}

	fmt.Fprintf(w, "\nBar width represents score on a 0 to 100 scale (0 to %d chars)\n", maxBarWidth)
}

// PlotHistogramTerminal draws a histogram with bars relative to the fullest
// bin.
func PlotHistogramTerminal(w io.Writer, bins []Bin, title string) {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}

	fmt.Fprintf(w, "\n%s (Terminal Plot):\n", title)
	fmt.Fprintln(w, "Range           | Count | Bar Chart")
	fmt.Fprintln(w, "----------------|-------|"+strings.Repeat("-", maxBarWidth))

	for _, b := range bins {
		fmt.Fprintf(w, "%6.1f - %6.1f | %5d | %s\n", b.Lower, b.Upper, b.Count, bar(float64(b.Count), float64(peak)))
	}
}

func bar(value, full float64) string {
	var barWidth int
	if full > 0 {
		barWidth = int(value / full * float64(maxBarWidth))
	}
	barWidth = max(0, min(barWidth, maxBarWidth))
	if barWidth == 0 {
		return "▏"
	}
	return strings.Repeat("█", barWidth)
}

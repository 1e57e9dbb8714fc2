// Package report renders training results as self-contained HTML
// charts.
package report

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/polecart/ddqn/utils/floatutils"
)

// RewardCurve renders the episodic returns of a single training run,
// overlaying the raw per-episode return with its moving average over
// window episodes, and writes the chart to filename as HTML.
func RewardCurve(returns []float64, window int, title,
	filename string) error {
	if len(returns) == 0 {
		return fmt.Errorf("rewardcurve: no returns to plot")
	}
	if window < 1 {
		return fmt.Errorf("rewardcurve: window must be >= 1\n\thave(%v)",
			window)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Return"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	line.SetXAxis(episodes(len(returns))).
		AddSeries("Return", lineItems(returns)).
		AddSeries(fmt.Sprintf("Average (last %v)", window),
			lineItems(movingAverage(returns, window)))

	return render(line, filename)
}

// Compare renders the episodic returns of several training runs on one
// chart, one series per run, and writes the chart to filename as HTML.
// Runs of different lengths share an x-axis spanning the longest run.
func Compare(runs map[string][]float64, title, filename string) error {
	if len(runs) == 0 {
		return fmt.Errorf("compare: no runs to plot")
	}

	// Sorted series order keeps repeated renders of the same runs
	// identical
	names := make([]string, 0, len(runs))
	maxLen := 0
	for name, returns := range runs {
		names = append(names, name)
		if len(returns) > maxLen {
			maxLen = len(returns)
		}
	}
	sort.Strings(names)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Return"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(episodes(maxLen))
	for _, name := range names {
		line.AddSeries(name, lineItems(runs[name]))
	}

	return render(line, filename)
}

func render(line *charts.Line, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("render: could not create file: %v", err)
	}
	defer file.Close()

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(file); err != nil {
		return fmt.Errorf("render: could not render chart: %v", err)
	}
	return nil
}

func episodes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func lineItems(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}
	return items
}

// movingAverage computes the trailing moving average of values over at
// most window elements.
func movingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = floatutils.Mean(values[start : i+1])
	}
	return out
}

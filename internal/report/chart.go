package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteTraceChart renders the trace of the best instance as an HTML line chart:
// current and best score on the left axis, temperature on a log-scaled right axis.
func WriteTraceChart(w io.Writer, r *Report) error {
	if r.Best == nil || len(r.Best.Trace) == 0 {
		return fmt.Errorf("report has no trace to chart")
	}
	trace := r.Best.Trace

	iterations := make([]int, len(trace))
	current := make([]opts.LineData, len(trace))
	best := make([]opts.LineData, len(trace))
	temperature := make([]opts.LineData, len(trace))
	for i, p := range trace {
		iterations[i] = p.Iteration
		current[i] = opts.LineData{Value: p.CurrentScore}
		if p.HasBest {
			best[i] = opts.LineData{Value: p.BestScore}
		} else {
			best[i] = opts.LineData{Value: "-"}
		}
		temperature[i] = opts.LineData{Value: p.Temperature}
	}

	title := "Annealing trace"
	if r.RunID != "" {
		title += " " + r.RunID
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%s  score %.4g  margin %.3g", r.Best.Layup, r.Best.Score, r.Best.Evaluation.FailureMargin),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "temperature", Type: "log"})

	onScore := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
	onTemperature := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), YAxisIndex: 1})
	line.SetXAxis(iterations).
		AddSeries("current score", current, onScore).
		AddSeries("best score", best, onScore).
		AddSeries("temperature", temperature, onTemperature)

	return line.Render(w)
}

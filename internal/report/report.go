// Package report renders analysed laps for humans: an interactive HTML page
// built with go-echarts and a static PNG speed trace built with gonum/plot.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/apexloop-data/race.coach/internal/analysis"
	"github.com/apexloop-data/race.coach/internal/units"
)

// LapReport bundles everything one lap's report needs.
type LapReport struct {
	Track     string
	Car       string
	SpeedUnit string // units package constant; empty means m/s
	Metrics   analysis.LapMetrics
	Frames    []analysis.TelemetryFrame
}

func (r *LapReport) speedUnit() string {
	if units.IsValid(r.SpeedUnit) {
		return r.SpeedUnit
	}
	return units.MPS
}

// RenderHTML writes the interactive lap report page.
func (r *LapReport) RenderHTML(w io.Writer) error {
	if len(r.Frames) == 0 {
		return fmt.Errorf("report: lap %d has no frames", r.Metrics.LapNumber)
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Lap %d — %s", r.Metrics.LapNumber, r.Track)
	page.AddCharts(r.speedTrace(), r.cornerSpeeds())
	return page.Render(w)
}

// speedTrace is the speed-vs-lap-distance line with braking points and corner
// apexes overlaid as scatter marks.
func (r *LapReport) speedTrace() components.Charter {
	unit := r.speedUnit()

	xs := make([]string, len(r.Frames))
	speeds := make([]opts.LineData, len(r.Frames))
	for i, f := range r.Frames {
		xs[i] = fmt.Sprintf("%.3f", f.LapDistance)
		speeds[i] = opts.LineData{Value: units.ConvertSpeed(f.Speed, unit)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Lap %d speed trace", r.Metrics.LapNumber),
			Subtitle: fmt.Sprintf("%s — %s", r.Track, r.Car),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "lap distance"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (" + units.Label(unit) + ")"}),
	)
	line.SetXAxis(xs).AddSeries("speed", speeds,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	braking := make([]opts.ScatterData, len(r.Metrics.BrakingZones))
	for i, z := range r.Metrics.BrakingZones {
		braking[i] = opts.ScatterData{
			Value: []interface{}{fmt.Sprintf("%.3f", z.BrakingPointDistance), units.ConvertSpeed(z.BrakingPointSpeed, unit)},
		}
	}
	apexes := make([]opts.ScatterData, len(r.Metrics.Corners))
	for i, c := range r.Metrics.Corners {
		apexes[i] = opts.ScatterData{
			Value: []interface{}{fmt.Sprintf("%.3f", c.ApexDistance), units.ConvertSpeed(c.ApexSpeed, unit)},
		}
	}
	marks := charts.NewScatter()
	marks.AddSeries("braking points", braking).
		AddSeries("apexes", apexes)
	line.Overlap(marks)

	return line
}

// cornerSpeeds is a bar chart of turn-in / apex / exit speed per corner.
func (r *LapReport) cornerSpeeds() components.Charter {
	unit := r.speedUnit()

	labels := make([]string, len(r.Metrics.Corners))
	turnIn := make([]opts.BarData, len(r.Metrics.Corners))
	apex := make([]opts.BarData, len(r.Metrics.Corners))
	exit := make([]opts.BarData, len(r.Metrics.Corners))
	for i, c := range r.Metrics.Corners {
		labels[i] = fmt.Sprintf("T%d", i+1)
		turnIn[i] = opts.BarData{Value: units.ConvertSpeed(c.TurnInSpeed, unit)}
		apex[i] = opts.BarData{Value: units.ConvertSpeed(c.ApexSpeed, unit)}
		exit[i] = opts.BarData{Value: units.ConvertSpeed(c.ExitSpeed, unit)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "350px"}),
		charts.WithTitleOpts(opts.Title{Title: "Corner speeds"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed (" + units.Label(unit) + ")"}),
	)
	bar.SetXAxis(labels).
		AddSeries("turn-in", turnIn).
		AddSeries("apex", apex).
		AddSeries("exit", exit)
	return bar
}

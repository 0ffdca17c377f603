package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/apexloop-data/race.coach/internal/units"
)

// SaveSpeedTracePNG writes a static speed-vs-distance plot of the lap to
// path. Braking points are marked as scatter glyphs on the trace.
func (r *LapReport) SaveSpeedTracePNG(path string) error {
	if len(r.Frames) == 0 {
		return fmt.Errorf("report: lap %d has no frames", r.Metrics.LapNumber)
	}
	unit := r.speedUnit()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lap %d — %s", r.Metrics.LapNumber, r.Track)
	p.X.Label.Text = "lap distance"
	p.Y.Label.Text = "speed (" + units.Label(unit) + ")"
	p.Add(plotter.NewGrid())

	trace := make(plotter.XYs, len(r.Frames))
	for i, f := range r.Frames {
		trace[i].X = f.LapDistance
		trace[i].Y = units.ConvertSpeed(f.Speed, unit)
	}
	line, err := plotter.NewLine(trace)
	if err != nil {
		return fmt.Errorf("report: building speed trace: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)
	p.Legend.Add("speed", line)

	if n := len(r.Metrics.BrakingZones); n > 0 {
		marks := make(plotter.XYs, n)
		for i, z := range r.Metrics.BrakingZones {
			marks[i].X = z.BrakingPointDistance
			marks[i].Y = units.ConvertSpeed(z.BrakingPointSpeed, unit)
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return fmt.Errorf("report: building braking marks: %w", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		p.Add(scatter)
		p.Legend.Add("braking points", scatter)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

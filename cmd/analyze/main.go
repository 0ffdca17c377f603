// Command analyze runs the lap-analysis engine over a CSV telemetry
// recording and prints per-lap summaries, optionally rendering reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/apexloop-data/race.coach/internal/analysis"
	"github.com/apexloop-data/race.coach/internal/collector"
	"github.com/apexloop-data/race.coach/internal/config"
	"github.com/apexloop-data/race.coach/internal/replay"
	"github.com/apexloop-data/race.coach/internal/report"
	"github.com/apexloop-data/race.coach/internal/timeutil"
	"github.com/apexloop-data/race.coach/internal/units"
)

var (
	inPath     = flag.String("in", "", "CSV telemetry recording to analyse (required)")
	configPath = flag.String("config", "", "Path to tuning config JSON (optional)")
	outDir     = flag.String("out", "", "Directory for HTML/PNG lap reports (optional)")
	trackName  = flag.String("track", "unknown", "Track name for report titles")
	carName    = flag.String("car", "unknown", "Car name for report titles")
	speedUnit  = flag.String("units", units.KMH, "Speed units for output (mps, kmh, mph)")
)

func main() {
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !units.IsValid(*speedUnit) {
		log.Fatalf("invalid units %q (valid: %s)", *speedUnit, units.GetValidUnitsString())
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("failed to open recording: %v", err)
	}
	defer f.Close()

	source, err := replay.NewSource(f)
	if err != nil {
		log.Fatalf("failed to parse recording: %v", err)
	}

	table, err := collector.NewFrameSpec(timeutil.RealClock{}).Validate(source.Schema())
	if err != nil {
		log.Fatalf("schema validation failed: %v", err)
	}

	analysisCfg := cfg.AnalysisConfig()
	laps := collector.NewLapCollector()
	var results []*collector.Lap

	err = source.Stream(context.Background(), 0, timeutil.RealClock{}, func(buf []byte) error {
		frame, err := table.Decode(buf)
		if err != nil {
			return err
		}
		if lap := laps.Collect(frame); lap != nil {
			results = append(results, lap)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("decoding recording: %v", err)
	}
	if lap := laps.Flush(); lap != nil {
		results = append(results, lap)
	}

	if len(results) == 0 {
		log.Fatal("no laps found in recording")
	}

	for _, lap := range results {
		printLap(lap, analysisCfg)
	}
}

func printLap(lap *collector.Lap, cfg analysis.AnalysisConfig) {
	metrics := lap.Analyze(cfg)

	status := "complete"
	if !lap.Complete {
		status = "incomplete"
	}
	if lap.PitLap {
		status += ", pit"
	}
	fmt.Printf("Lap %d (%s): %d frames, %d braking zones, %d corners\n",
		metrics.LapNumber, status, len(lap.Frames), metrics.TotalBrakingZones, metrics.TotalCorners)
	if metrics.LapTime != nil {
		fmt.Printf("  lap time: %.3fs\n", *metrics.LapTime)
	}
	if metrics.MaxSpeed != nil && metrics.MinSpeed != nil {
		fmt.Printf("  speed: max %s, min %s\n",
			units.FormatSpeed(*metrics.MaxSpeed, *speedUnit),
			units.FormatSpeed(*metrics.MinSpeed, *speedUnit))
	}
	if metrics.AverageCornerSpeed != nil {
		fmt.Printf("  average corner speed: %s\n", units.FormatSpeed(*metrics.AverageCornerSpeed, *speedUnit))
	}
	for i, z := range metrics.BrakingZones {
		fmt.Printf("  zone %d: at %.3f, %s -> %s, peak %.0f%%\n",
			i+1, z.BrakingPointDistance,
			units.FormatSpeed(z.BrakingPointSpeed, *speedUnit),
			units.FormatSpeed(z.MinimumSpeed, *speedUnit),
			z.MaxBrakePressure*100)
	}
	for i, c := range metrics.Corners {
		fmt.Printf("  corner %d: turn-in %.3f, apex %s, %.1f m/s^2 lateral\n",
			i+1, c.TurnInDistance,
			units.FormatSpeed(c.ApexSpeed, *speedUnit),
			c.MaxLateralG)
	}

	if *outDir == "" || !lap.Complete {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	r := &report.LapReport{
		Track:     *trackName,
		Car:       *carName,
		SpeedUnit: *speedUnit,
		Metrics:   metrics,
		Frames:    lap.TelemetryFrames(),
	}

	htmlPath := filepath.Join(*outDir, fmt.Sprintf("lap_%03d.html", metrics.LapNumber))
	htmlFile, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("creating %s: %v", htmlPath, err)
	}
	if err := r.RenderHTML(htmlFile); err != nil {
		log.Fatalf("rendering %s: %v", htmlPath, err)
	}
	htmlFile.Close()

	pngPath := filepath.Join(*outDir, fmt.Sprintf("lap_%03d.png", metrics.LapNumber))
	if err := r.SaveSpeedTracePNG(pngPath); err != nil {
		log.Fatalf("rendering %s: %v", pngPath, err)
	}
	fmt.Printf("  reports: %s, %s\n", htmlPath, pngPath)
}

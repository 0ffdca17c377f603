package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/apexloop-data/race.coach/internal/api"
	"github.com/apexloop-data/race.coach/internal/collector"
	"github.com/apexloop-data/race.coach/internal/config"
	"github.com/apexloop-data/race.coach/internal/replay"
	"github.com/apexloop-data/race.coach/internal/store"
	"github.com/apexloop-data/race.coach/internal/timeutil"
	"github.com/apexloop-data/race.coach/internal/upload"
	"github.com/apexloop-data/race.coach/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to tuning config JSON (optional)")
	replayPath = flag.String("replay", "", "Replay telemetry from a CSV recording")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbPath     = flag.String("db", "", "SQLite database path (overrides config)")
	track      = flag.String("track", "", "Track name for the session (overrides config)")
	car        = flag.String("car", "", "Car name for the session (overrides config)")
	realtime   = flag.Bool("realtime", false, "Pace replay at the configured tick interval")
	uploadURL  = flag.String("upload-url", "", "Mirror complete laps to a remote coach server at this base URL")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		log.Printf("coachd %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *listen == "" {
		*listen = cfg.GetListenAddr()
	}
	if *dbPath == "" {
		*dbPath = cfg.GetDatabasePath()
	}
	if *track == "" {
		*track = cfg.GetTrack()
	}
	if *car == "" {
		*car = cfg.GetCar()
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// replay ingest pipeline: decode ticks, segment laps, analyse, store
	if *replayPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runReplay(ctx, cfg, st); err != nil && err != context.Canceled {
				log.Printf("replay pipeline failed: %v", err)
			}
			log.Print("replay pipeline terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(st, cfg.AnalysisConfig(), cfg.GetSpeedUnit()).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("coachd %s listening on %s", version.Version, *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runReplay drives the full telemetry path: tick buffers from the recording,
// the validated field table, lap segmentation, analysis and storage.
func runReplay(ctx context.Context, cfg *config.TuningConfig, st *store.Store) error {
	f, err := os.Open(*replayPath)
	if err != nil {
		return err
	}
	defer f.Close()

	source, err := replay.NewSource(f)
	if err != nil {
		return err
	}
	log.Printf("replaying %d ticks from %s", source.Len(), *replayPath)

	clock := timeutil.RealClock{}
	table, err := collector.NewFrameSpec(clock).Validate(source.Schema())
	if err != nil {
		return err
	}

	sess, err := st.CreateSession(*track, *car)
	if err != nil {
		return err
	}
	log.Printf("created session %s (%s, %s)", sess.SessionID, sess.Track, sess.Car)

	var uploader *upload.Client
	var remoteSession string
	if *uploadURL != "" {
		uploader = upload.NewClient(*uploadURL, nil)
		remoteSession, err = uploader.CreateSession(*track, *car)
		if err != nil {
			return err
		}
		log.Printf("mirroring laps to %s session %s", *uploadURL, remoteSession)
	}

	analysisCfg := cfg.AnalysisConfig()
	laps := collector.NewLapCollector()

	storeLap := func(lap *collector.Lap) error {
		if !lap.Complete {
			log.Printf("discarding incomplete lap %d (%d frames)", lap.Number, len(lap.Frames))
			return nil
		}
		frames := lap.TelemetryFrames()
		metrics := lap.Analyze(analysisCfg)
		rec, err := st.InsertLap(sess.SessionID, metrics, frames)
		if err != nil {
			return err
		}
		log.Printf("stored lap %d as %s: %d braking zones, %d corners",
			metrics.LapNumber, rec.LapID, metrics.TotalBrakingZones, metrics.TotalCorners)
		if uploader != nil {
			// Remote unavailability must not stall local ingest.
			if err := uploader.UploadLap(remoteSession, lap.Number, lap.LapTime, frames); err != nil {
				log.Printf("mirroring lap %d: %v", lap.Number, err)
			}
		}
		return nil
	}

	interval := time.Duration(0)
	if *realtime {
		interval = cfg.GetTickInterval()
	}

	err = source.Stream(ctx, interval, clock, func(buf []byte) error {
		frame, err := table.Decode(buf)
		if err != nil {
			// A short buffer means the source is corrupt; stop the connection.
			return err
		}
		if lap := laps.Collect(frame); lap != nil {
			return storeLap(lap)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if lap := laps.Flush(); lap != nil {
		return storeLap(lap)
	}
	return nil
}

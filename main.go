package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	listenAddr      = flag.String("addr", "0.0.0.0:9000", "websocket listen address")
	shutdownTimeout = flag.Duration("shutdown_timeout", 10*time.Second, "HTTP server shutdown timeout")
	writeTimeout    = flag.Duration("write_timeout", 10*time.Second, "per-frame write deadline, 0 disables")
	scriptPath      = flag.String("script", "", "YAML script file replacing the built-in script")
	wireFormat      = flag.String("wire", "", "wire format for commands: command or script (default script for the built-in script, command with --script)")
	trackFormat     = flag.String("track_format", "expr", "track batch encoding: expr or gtfsrt")
	interval        = flag.Duration("interval", time.Second, "delay between track batches")
	batchSize       = flag.Int("batch", 10, "tracks per batch")
	boundsFlag      = flag.String("bounds", formatBounds(defaultBounds), "track bounding rectangle: west,south,east,north")
	altitudeFlag    = flag.String("altitude", "50,5000", "inclusive track altitude range: min,max")
	maxTrackID      = flag.Int("max_track_id", 10, "track ids are drawn from 1..max_track_id")
	seed            = flag.Uint64("seed", 0, "random seed, 0 picks one per connection")
	gtfsrtURL       = flag.String("gtfsrt_url", "", "replay vehicle positions from this GTFS-RT feed instead of random tracks")
)

func main() {
	flag.Parse()

	bounds, err := parseBounds(*boundsFlag)
	if err != nil {
		log.Fatalf("invalid --bounds: %v", err)
	}
	minAlt, maxAlt, err := parseIntRange(*altitudeFlag)
	if err != nil {
		log.Fatalf("invalid --altitude: %v", err)
	}
	if *maxTrackID < 1 {
		log.Fatalf("--max_track_id must be at least 1")
	}

	script := defaultScript()
	every, batch := *interval, *batchSize
	if *scriptPath != "" {
		f, s, err := LoadScriptFile(*scriptPath)
		if err != nil {
			log.Fatalf("load script %s: %v", *scriptPath, err)
		}
		script = s
		if f.Interval > 0 {
			every = f.Interval
		}
		if f.Batch > 0 {
			batch = f.Batch
		}
		log.Printf("loaded %d steps from %s", len(script.Steps), *scriptPath)
	}
	if err := checkLoop(every, batch); err != nil {
		log.Fatalf("%v", err)
	}

	enc, err := newEncoder(resolveWire(*wireFormat, *scriptPath != ""), *trackFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}

	metrics, err := newFeedMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs := &feedServer{
		script:       script,
		encoder:      enc,
		newSource:    selectSource(bounds, minAlt, maxAlt),
		batch:        batch,
		interval:     every,
		writeTimeout: *writeTimeout,
		metrics:      metrics,
		ctx:          ctx,
	}

	mux := http.NewServeMux()
	registerRoutes(mux, fs)

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("mock feed listening on ws://%s/", *listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown initiated...")

	// hijacked websocket connections are not tracked by Shutdown
	cancel()

	sctx, scancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Printf("HTTP server shut down successfully")
	}
}

// selectSource returns a factory so each connection owns its random state.
func selectSource(bounds Bounds, minAlt, maxAlt int) func() TrackSource {
	newSampler := func() *TrackSampler {
		s := *seed
		if s == 0 {
			s = rand.Uint64()
		}
		return NewTrackSampler(bounds, minAlt, maxAlt, *maxTrackID, s)
	}
	if *gtfsrtURL != "" {
		log.Printf("replaying tracks from %s", *gtfsrtURL)
		return func() TrackSource {
			return NewGtfsRtTrackSource(*gtfsrtURL, 10*time.Second, newSampler())
		}
	}
	return func() TrackSource {
		return NewRandomTrackSource(newSampler())
	}
}

// webcrawl fetches a single host's pages, respecting a per-host minimum
// delay and an allowed-domain list, and writes extracted page records as
// batched JSONL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/TheSnook/webcrawl/config"
	"github.com/TheSnook/webcrawl/engine"
	"github.com/TheSnook/webcrawl/fetch"
	"github.com/TheSnook/webcrawl/ratelimit"
	"github.com/TheSnook/webcrawl/sink"
	"github.com/TheSnook/webcrawl/store"
)

var (
	configFile = flag.String("config", "", "YAML file defining crawl parameters (required).")
	dbPath     = flag.String("db", "", "Path to the frontier/visited-URL database (default: <output_dir>/visited_urls.db).")
	outDir     = flag.String("out", "", "Directory for output JSONL and the frontier database (overrides config's output_dir).")
)

func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Flag --config is required")
	}
	data, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("Could not read config file %q: %v", *configFile, err)
	}
	cfg, err := config.Load(data)
	if err != nil {
		log.Fatalf("Could not parse config file %q: %v", *configFile, err)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if len(cfg.Seeds) == 0 {
		log.Fatal("config: at least one seed URL is required")
	}
	if len(cfg.AllowedDomains) == 0 {
		log.Fatal("config: at least one allowed domain is required")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("Could not create output directory %q: %v", cfg.OutputDir, err)
	}

	dbFile := *dbPath
	if dbFile == "" {
		dbFile = filepath.Join(cfg.OutputDir, "visited_urls.db")
	}
	st, err := store.Open(dbFile)
	if err != nil {
		log.Fatalf("Could not open store %q: %v", dbFile, err)
	}
	defer st.Close()

	var mirror sink.Mirror
	if cfg.S3 != nil {
		m, err := sink.NewS3Mirror(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			log.Fatalf("Could not set up S3 mirror: %v", err)
		}
		mirror = m
	}

	outPath := filepath.Join(cfg.OutputDir, "crawled_pages.jsonl")
	sk, err := sink.Open(outPath, mirror)
	if err != nil {
		log.Fatalf("Could not open output file %q: %v", outPath, err)
	}

	fetcher := fetch.New(fetch.Config{
		RequestTimeout: time.Duration(cfg.FetchTimeout),
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})
	limiter := ratelimit.New(time.Duration(cfg.MinHostDelay))

	e := engine.New(engine.Config{
		Concurrency:    cfg.Concurrency,
		MaxPages:       cfg.MaxPages,
		AllowedDomains: cfg.AllowedDomains,
	}, st, fetcher, limiter, sk)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e.Seed(ctx, cfg.Seeds)

	go reportProgress(ctx, e)

	if err := e.Run(ctx); err != nil {
		sk.Close()
		log.Fatalf("Crawl failed: %v", err)
	}
	sk.Close()

	c := e.Counters()
	log.Printf("Done: dispatched=%d written=%d errors=%d", c.PagesDispatched, c.PagesWritten, len(c.RecentErrors()))
}

// reportProgress logs a one-line summary every 30s until ctx is done or the
// engine reports stopped, giving an operator a heartbeat on long crawls.
func reportProgress(ctx context.Context, e *engine.Engine) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c := e.Counters()
			if c.Stopped() {
				return
			}
			fmt.Fprintf(os.Stderr, "progress: dispatched=%d written=%d inflight=%d active=%d\n",
				c.PagesDispatched, c.PagesWritten, c.QueueInflight, c.ActiveWorkers)
		}
	}
}

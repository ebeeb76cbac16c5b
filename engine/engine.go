package engine

import (
	"context"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/TheSnook/webcrawl/fetch"
	"github.com/TheSnook/webcrawl/normalize"
	"github.com/TheSnook/webcrawl/ratelimit"
	"github.com/TheSnook/webcrawl/sink"
	"github.com/TheSnook/webcrawl/store"
)

const (
	// processingCapacity is the feeder->worker channel size, spec.md §4.8.
	processingCapacity = 10_000
	// discoveredCapacity is the worker->persister channel size, spec.md §4.8.
	discoveredCapacity = 10_000

	feederFullBackoff  = 100 * time.Millisecond
	feederEmptyBackoff = 500 * time.Millisecond
	// persistEvery sets how often pages_dispatched is checkpointed to the
	// store, per spec.md §4.8 step 5 ("every 10th increment").
	persistEvery = 10
)

// Config tunes the engine's concurrency and budget, resolving spec.md §9's
// "worker count / MAX_PAGES are compile-time constants; expose them as
// configuration" flagged item.
type Config struct {
	Concurrency    int
	MaxPages       int64
	AllowedDomains []string
}

// Engine composes the feeder, bounded worker pool, and discovery persister
// over a Store, Fetcher, rate Limiter, and output Sink.
type Engine struct {
	cfg      Config
	store    *store.Store
	fetcher  *fetch.Fetcher
	limiter  *ratelimit.Limiter
	sink     *sink.Sink
	counters *Counters
}

// New wires the engine's collaborators together. It seeds the returned
// Engine's PagesDispatched counter from the store's persisted checkpoint
// (spec.md §4.4, §4.8 step 5) so that a restart after a crash resumes
// MAX_PAGES enforcement from where it left off instead of resetting to 0.
func New(cfg Config, st *store.Store, fetcher *fetch.Fetcher, limiter *ratelimit.Limiter, sk *sink.Sink) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1000
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1_000_000
	}
	counters := NewCounters()
	if n, err := st.GetPagesCrawled(); err != nil {
		log.Printf("engine: could not read persisted pages_crawled checkpoint: %v", err)
	} else {
		counters.PagesDispatched = n
	}
	return &Engine{
		cfg:      cfg,
		store:    st,
		fetcher:  fetcher,
		limiter:  limiter,
		sink:     sk,
		counters: counters,
	}
}

// Counters exposes the engine's observability surface to a dashboard
// collaborator.
func (e *Engine) Counters() *Counters { return e.counters }

// Seed normalizes and adds each seed URL to the frontier, applying the link
// filter the same way link extraction does so a disallowed seed is rejected
// rather than silently crawled. A store write failure is logged and
// skipped rather than aborting the remaining seeds — spec.md §7 classifies
// post-open store read/write failures as "log to stderr, best-effort
// continue," the same treatment persistDiscoveries gives AddToFrontier
// failures during a crawl.
func (e *Engine) Seed(ctx context.Context, rawURLs []string) {
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil {
			log.Printf("engine: seed %q failed to parse, skipping", raw)
			continue
		}
		if !normalize.Accept(u, e.cfg.AllowedDomains) {
			log.Printf("engine: seed %q rejected by link filter, skipping", raw)
			continue
		}
		if _, err := e.store.AddToFrontier(normalize.URL(raw)); err != nil {
			log.Printf("engine: seed %q failed to add to frontier: %v", raw, err)
			continue
		}
	}
}

// Run starts the feeder, worker pool, and discovery persister, and blocks
// until the stop flag trips or ctx is done, and the pool drains. ctx also
// bounds individual fetches and rate-limiter waits.
func (e *Engine) Run(ctx context.Context) error {
	processing := make(chan string, processingCapacity)
	discovered := make(chan string, discoveredCapacity)

	feederDone := make(chan struct{})
	go func() {
		defer close(feederDone)
		e.feed(ctx, processing)
	}()

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		e.runWorkers(ctx, processing, discovered)
	}()

	persisterDone := make(chan struct{})
	go func() {
		defer close(persisterDone)
		e.persistDiscoveries(discovered)
	}()

	<-feederDone
	<-workersDone
	// Open question (spec.md §9): the discovered channel is explicitly
	// closed here, after the worker pool has fully drained, so the
	// persister goroutine can exit via range-over-closed-channel instead of
	// being leaked.
	close(discovered)
	<-persisterDone

	return nil
}

// feed pops URLs from the store and forwards them to processing, with
// hysteresis on QueueInflight so it doesn't spin once workers are keeping
// up, per spec.md §4.8. feed owns processing's send side and closes it on
// return so runWorkers can drain and exit via range-over-closed-channel.
func (e *Engine) feed(ctx context.Context, processing chan<- string) {
	defer close(processing)
	halfFull := int64(processingCapacity / 2)
	for {
		if e.counters.Stopped() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		if atomic.LoadInt64(&e.counters.QueueInflight) >= halfFull {
			time.Sleep(feederFullBackoff)
			continue
		}

		u, ok, err := e.store.PopFromFrontier()
		if err != nil {
			log.Printf("engine: pop from frontier failed: %v", err)
			time.Sleep(feederFullBackoff)
			continue
		}
		if !ok {
			time.Sleep(feederEmptyBackoff)
			continue
		}

		select {
		case processing <- u:
			e.counters.incInflight()
		default:
			// Channel full: back off for 100ms. The popped URL was already
			// moved to visited by PopFromFrontier and is not requeued, so
			// it is dropped without being fetched.
			time.Sleep(feederFullBackoff)
		}
	}
}

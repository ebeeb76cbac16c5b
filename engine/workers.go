package engine

import (
	"context"
	"net/url"
	"sync"

	"github.com/TheSnook/webcrawl/normalize"
	"github.com/TheSnook/webcrawl/parser"
)

// runWorkers starts up to cfg.Concurrency goroutines consuming from
// processing, per spec.md §4.8, and forwards extracted links to discovered.
// Returns once processing is closed (by feed, on stop) and all in-flight
// workers have finished draining it.
func (e *Engine) runWorkers(ctx context.Context, processing <-chan string, discovered chan<- string) {
	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case u, ok := <-processing:
			if !ok {
				return
			}

			sem <- struct{}{}
			wg.Add(1)
			go func(rawURL string) {
				defer wg.Done()
				defer func() { <-sem }()
				e.processOne(ctx, rawURL, discovered)
			}(u)

		case <-ctx.Done():
			return
		}
	}
}

// processOne implements the per-message worker steps from spec.md §4.8.
func (e *Engine) processOne(ctx context.Context, rawURL string, discovered chan<- string) {
	e.counters.decInflight()
	e.counters.incActive()
	defer e.counters.decActive()

	n := e.counters.incDispatched()
	if n > e.cfg.MaxPages {
		e.counters.Stop()
		return
	}
	if e.counters.Stopped() {
		return
	}
	if n%persistEvery == 0 {
		if err := e.store.SetPagesCrawled(n); err != nil {
			e.counters.RecordError("checkpoint pages_crawled: " + err.Error())
		}
	}

	if host := hostOf(rawURL); host != "" {
		e.counters.RecordHostHit(host)
	}

	if err := e.limiter.WaitIfNeeded(ctx, rawURL); err != nil {
		return
	}

	body, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		e.counters.RecordError(rawURL + ": " + err.Error())
		return
	}

	page, err := parser.Parse(body, rawURL, e.cfg.AllowedDomains)
	if err != nil {
		e.counters.RecordError(rawURL + ": parse: " + err.Error())
		return
	}

	e.sink.Send(page)
	e.counters.incWritten()

	if page.CanonicalURL != nil {
		canon := normalize.URL(*page.CanonicalURL)
		if canon != normalize.URL(rawURL) {
			if err := e.store.MarkVisited(canon); err != nil {
				e.counters.RecordError("mark canonical visited: " + err.Error())
			}
		}
	}

	for _, link := range page.Links {
		select {
		case discovered <- link:
		case <-ctx.Done():
			return
		}
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

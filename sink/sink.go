// Package sink implements the batched append-only JSONL writer described in
// spec.md §4.7, grounded on original_source/webcrawler/src/writer.rs's
// BufferedWriter (batch slice + byte counter + flush-trigger trio).
package sink

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/TheSnook/webcrawl/parser"
)

const (
	// BatchSize is the record-count flush trigger.
	BatchSize = 100
	// BatchBytes is the accumulated-size flush trigger (1 MiB).
	BatchBytes = 1 << 20
	// FlushInterval is the time-since-last-flush trigger.
	FlushInterval = 5 * time.Second
)

// Mirror receives each flushed batch's serialized lines, in order, for an
// optional secondary destination (see S3Mirror).
type Mirror interface {
	WriteBatch(lines []string) error
}

// Sink accepts parser.Page values over a bounded channel and batches them
// to an append-only JSONL file.
type Sink struct {
	pages  chan parser.Page
	done   chan struct{}
	mirror Mirror
}

// Open creates (if missing) and opens path in append mode, and starts the
// sink's drain goroutine. Call Close to flush the remainder and stop.
func Open(path string, mirror Mirror) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	s := &Sink{
		pages:  make(chan parser.Page, 1000),
		done:   make(chan struct{}),
		mirror: mirror,
	}
	go s.run(f)
	return s, nil
}

// Send enqueues a page for writing. Blocks if the channel is full,
// providing back-pressure into the engine's worker pool per spec.md §5.
func (s *Sink) Send(p parser.Page) {
	s.pages <- p
}

// Close closes the input channel and waits for the drain goroutine to flush
// the remainder and close the file.
func (s *Sink) Close() {
	close(s.pages)
	<-s.done
}

func (s *Sink) run(f *os.File) {
	defer close(s.done)
	w := bufio.NewWriterSize(f, 8192)
	defer f.Close()

	batch := make([]string, 0, BatchSize)
	batchBytes := 0
	lastFlush := time.Now()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, line := range batch {
			if _, err := w.WriteString(line); err != nil {
				log.Printf("sink: write failed: %v", err)
				continue
			}
			if err := w.WriteByte('\n'); err != nil {
				log.Printf("sink: write failed: %v", err)
			}
		}
		if err := w.Flush(); err != nil {
			log.Printf("sink: flush failed: %v", err)
		}
		if s.mirror != nil {
			if err := s.mirror.WriteBatch(batch); err != nil {
				log.Printf("sink: mirror failed: %v", err)
			}
		}
		batch = batch[:0]
		batchBytes = 0
		lastFlush = time.Now()
	}

	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case p, ok := <-s.pages:
			if !ok {
				flush()
				return
			}
			line, err := json.Marshal(p)
			if err != nil {
				log.Printf("sink: marshal failed for %q: %v", p.URL, err)
				continue
			}
			batch = append(batch, string(line))
			batchBytes += len(line) + 1
			if len(batch) >= BatchSize || batchBytes >= BatchBytes {
				flush()
			}
		case <-ticker.C:
			if time.Since(lastFlush) >= FlushInterval {
				flush()
			}
		}
	}
}

package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "visited_urls.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddToFrontierRoundTrip(t *testing.T) {
	s := openTestStore(t)

	added, err := s.AddToFrontier("https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Fatal("expected first add to return true")
	}

	added, err = s.AddToFrontier("https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("expected second add of same URL to return false")
	}
}

func TestPopFromFrontierMovesToVisited(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AddToFrontier("https://example.com/a"); err != nil {
		t.Fatal(err)
	}

	url, ok, err := s.PopFromFrontier()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || url != "https://example.com/a" {
		t.Fatalf("PopFromFrontier = %q, %v, want https://example.com/a, true", url, ok)
	}

	// Now re-adding the same URL must fail: it is visited.
	added, err := s.AddToFrontier("https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("expected popped URL to be visited, not re-addable")
	}

	// Frontier is empty.
	_, ok, err = s.PopFromFrontier()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected empty frontier to yield ok=false")
	}
}

func TestPopFromFrontierDrainsExactlyN(t *testing.T) {
	s := openTestStore(t)

	urls := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}
	for _, u := range urls {
		if _, err := s.AddToFrontier(u); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[string]bool{}
	for i := 0; i < len(urls); i++ {
		u, ok, err := s.PopFromFrontier()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("pop %d: expected a URL, got none", i)
		}
		if seen[u] {
			t.Fatalf("pop %d: URL %q popped twice", i, u)
		}
		seen[u] = true
	}

	if _, ok, err := s.PopFromFrontier(); err != nil || ok {
		t.Fatalf("pop N+1: expected none, got ok=%v err=%v", ok, err)
	}
}

func TestMarkVisitedBlocksFutureDiscovery(t *testing.T) {
	s := openTestStore(t)

	if err := s.MarkVisited("https://example.com/canonical"); err != nil {
		t.Fatal(err)
	}

	added, err := s.AddToFrontier("https://example.com/canonical")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("expected canonical-marked URL to be rejected by AddToFrontier")
	}
}

func TestFrontierCount(t *testing.T) {
	s := openTestStore(t)

	for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
		if _, err := s.AddToFrontier(u); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.FrontierCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("FrontierCount = %d, want 2", n)
	}

	if _, _, err := s.PopFromFrontier(); err != nil {
		t.Fatal(err)
	}
	n, err = s.FrontierCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("FrontierCount after pop = %d, want 1", n)
	}
}

func TestPagesCrawledPersistence(t *testing.T) {
	s := openTestStore(t)

	n, err := s.GetPagesCrawled()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("initial GetPagesCrawled = %d, want 0", n)
	}

	if err := s.SetPagesCrawled(42); err != nil {
		t.Fatal(err)
	}
	n, err = s.GetPagesCrawled()
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Fatalf("GetPagesCrawled = %d, want 42", n)
	}
}

func TestRestartPreservesFrontierVisitedAndStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visited_urls.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToFrontier("https://example.com/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToFrontier("https://example.com/b"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.PopFromFrontier(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPagesCrawled(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	count, err := reopened.FrontierCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("reopened FrontierCount = %d, want 1", count)
	}

	n, err := reopened.GetPagesCrawled()
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("reopened GetPagesCrawled = %d, want 7", n)
	}

	// The popped URL must still be visited (rejecting re-add).
	added, err := reopened.AddToFrontier("https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("expected previously-popped URL to remain visited across restart")
	}
}

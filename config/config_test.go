package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	data := []byte(`
seeds:
  - https://en.wikipedia.org/wiki/Go
allowed_domains:
  - wikipedia.org
`)
	c, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", c.Concurrency, DefaultConcurrency)
	}
	if c.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages = %d, want %d", c.MaxPages, DefaultMaxPages)
	}
	if time.Duration(c.MinHostDelay) != DefaultMinHostDelay {
		t.Errorf("MinHostDelay = %v, want %v", c.MinHostDelay, DefaultMinHostDelay)
	}
	if c.OutputDir != "output" {
		t.Errorf("OutputDir = %q, want %q", c.OutputDir, "output")
	}
}

func TestLoadParsesExplicitDurations(t *testing.T) {
	data := []byte(`
seeds: ["https://en.wikipedia.org/"]
allowed_domains: ["wikipedia.org"]
min_host_delay: 2500ms
fetch_timeout: 1m
`)
	c, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if time.Duration(c.MinHostDelay) != 2500*time.Millisecond {
		t.Errorf("MinHostDelay = %v, want 2.5s", time.Duration(c.MinHostDelay))
	}
	if time.Duration(c.FetchTimeout) != time.Minute {
		t.Errorf("FetchTimeout = %v, want 1m", time.Duration(c.FetchTimeout))
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	data := []byte(`
seeds: ["https://en.wikipedia.org/"]
bogus_field: true
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

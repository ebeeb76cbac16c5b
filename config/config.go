// Package config loads the crawler's YAML configuration, grounded on
// site/config.go's yaml.v3 decoder idiom (KnownFields(true), strict
// decoding against a small typed struct).
package config

import (
	"bytes"
	"fmt"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written in the config file
// either as a Go duration string ("30s", "500ms") or as a bare integer of
// nanoseconds.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("30s") or a bare integer
// of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string or integer nanoseconds")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Defaults from spec.md §4.5, §4.6, §4.8, §9.
const (
	DefaultConcurrency  = 1000
	DefaultMaxPages     = 1_000_000
	DefaultMinHostDelay = time.Second
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024
)

// S3Mirror configures the optional output-sink mirror (SPEC_FULL §12).
type S3Mirror struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Crawl is the crawler's full runtime configuration.
type Crawl struct {
	Seeds          []string  `yaml:"seeds"`
	AllowedDomains []string  `yaml:"allowed_domains"`
	OutputDir      string    `yaml:"output_dir"`
	Concurrency    int       `yaml:"concurrency"`
	MaxPages       int64     `yaml:"max_pages"`
	MinHostDelay   Duration  `yaml:"min_host_delay"`
	FetchTimeout   Duration  `yaml:"fetch_timeout"`
	MaxBodyBytes   int64     `yaml:"max_body_bytes"`
	S3             *S3Mirror `yaml:"s3,omitempty"`
}

// Load decodes yaml-formatted configuration data into a Crawl, rejecting
// unknown fields the way site.Load does, then fills in spec.md's defaults
// for any zero-valued tuning field.
func Load(data []byte) (*Crawl, error) {
	c := &Crawl{}
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	if err := d.Decode(c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Crawl) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.MinHostDelay <= 0 {
		c.MinHostDelay = Duration(DefaultMinHostDelay)
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = Duration(DefaultFetchTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Package fetch implements the bounded HTTP GET described in spec.md §4.6,
// grounded on original_source/webcrawler/src/http_client.rs for the guard
// sequence and on crawler.New's hand-built http.Client/Transport for the
// teacher's transport-construction idiom.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// MaxBodyBytes is the default response size cap (10 MiB), per spec.md §4.6.
const MaxBodyBytes = 10 * 1024 * 1024

const defaultUserAgent = "Mozilla/5.0 (compatible; webcrawl/1.0; +https://github.com/TheSnook/webcrawl)"

// Kind classifies a fetch failure, mirroring the Rust FetchError enum.
type Kind int

const (
	KindHTTPStatus Kind = iota
	KindInvalidContentType
	KindTooLarge
	KindTransport
)

// Error is returned for any non-2xx, wrong-content-type, oversized, or
// transport-level fetch failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch: http error: %d", e.Status)
	case KindInvalidContentType:
		return fmt.Sprintf("fetch: invalid content type: %s", e.Message)
	case KindTooLarge:
		return fmt.Sprintf("fetch: response too large: %s", e.Message)
	default:
		return fmt.Sprintf("fetch: request error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher performs bounded GETs against arbitrary hosts.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// Config tunes a Fetcher's timeouts and size guard.
type Config struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	MaxIdleConnsPerHost int
	MaxBodyBytes   int64
	UserAgent      string
}

// New builds a Fetcher from cfg, applying spec.md §4.6 defaults for any
// zero-valued field (30s request timeout, 30s connect timeout, 10 idle
// conns per host, 10 MiB size cap).
func New(cfg Config) *Fetcher {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}
}

// Fetch performs a bounded GET against rawURL, applying the status,
// content-type, and size guards from spec.md §4.6.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindHTTPStatus, Status: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return nil, &Error{Kind: KindInvalidContentType, Message: ct}
	}

	if resp.ContentLength > 0 && resp.ContentLength > f.maxBodyBytes {
		return nil, &Error{Kind: KindTooLarge, Message: fmt.Sprintf("content-length %d exceeds %d", resp.ContentLength, f.maxBodyBytes)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &Error{Kind: KindTooLarge, Message: fmt.Sprintf("body exceeds %d bytes", f.maxBodyBytes)}
	}

	return body, nil
}

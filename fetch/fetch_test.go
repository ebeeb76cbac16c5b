package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testFetcher() *Fetcher {
	return New(Config{
		RequestTimeout: 2 * time.Second,
		ConnectTimeout: 2 * time.Second,
		MaxBodyBytes:   1024,
	})
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<html></html>" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchNon2xxRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	var fe *Error
	if err == nil {
		t.Fatal("expected error")
	}
	if !asError(err, &fe) || fe.Kind != KindHTTPStatus || fe.Status != 404 {
		t.Fatalf("expected HTTPStatus 404 error, got %v", err)
	}
}

func TestFetchWrongContentTypeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	var fe *Error
	if !asError(err, &fe) || fe.Kind != KindInvalidContentType {
		t.Fatalf("expected InvalidContentType error, got %v", err)
	}
}

func TestFetchTooLargeByContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Length", strconv.Itoa(2048))
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	var fe *Error
	if !asError(err, &fe) || fe.Kind != KindTooLarge {
		t.Fatalf("expected TooLarge error, got %v", err)
	}
}

func TestFetchAcceptsExactCap(t *testing.T) {
	f := New(Config{MaxBodyBytes: 16})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 16)))
	}))
	defer srv.Close()

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected body exactly at cap to be accepted: %v", err)
	}
	if len(body) != 16 {
		t.Fatalf("body length = %d, want 16", len(body))
	}
}

func TestFetchRejectsOneByteOverCap(t *testing.T) {
	f := New(Config{MaxBodyBytes: 16})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("a", 17)))
	}))
	defer srv.Close()

	_, err := f.Fetch(context.Background(), srv.URL)
	var fe *Error
	if !asError(err, &fe) || fe.Kind != KindTooLarge {
		t.Fatalf("expected TooLarge for cap+1 body, got %v", err)
	}
}

func TestFetchMissingContentLengthUnderCapAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Flushing without Content-Length forces chunked transfer encoding.
		flusher, _ := w.(http.Flusher)
		w.Write([]byte("short body"))
		if flusher != nil {
			flusher.Flush()
		}
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "short body" {
		t.Fatalf("body = %q", body)
	}
}

func asError(err error, target **Error) bool {
	fe, ok := err.(*Error)
	if ok {
		*target = fe
	}
	return ok
}

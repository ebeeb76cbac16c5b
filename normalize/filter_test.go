package normalize

import (
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestAccept(t *testing.T) {
	allowed := []string{"wikipedia.org"}

	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"allowed subdomain", "https://en.wikipedia.org/wiki/Go", true},
		{"exact allowed domain", "https://wikipedia.org/wiki/Go", true},
		{"wrong scheme", "ftp://en.wikipedia.org/wiki/Go", false},
		{"disallowed domain", "https://example.com/wiki/Go", false},
		{"image extension rejected", "https://en.wikipedia.org/img/pic.JPG", false},
		{"pdf extension rejected", "https://en.wikipedia.org/doc.pdf", false},
		{"extension in query ignored", "https://en.wikipedia.org/wiki/Go?file=pic.jpg", true},
		{"no host", "mailto:someone@example.com", false},
		{"lookalike domain not matched as suffix", "https://notwikipedia.org/x", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := mustParse(t, tc.raw)
			if got := Accept(u, allowed); got != tc.want {
				t.Fatalf("Accept(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

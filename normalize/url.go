// Package normalize canonicalizes URLs for dedup keying and filters
// extracted links before they reach the frontier.
package normalize

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are dropped from the query string during normalization.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
}

// URL canonicalizes raw for use as a dedup key: the fragment is cleared,
// tracking query parameters are dropped, remaining query pairs are sorted by
// key, and a trailing slash past the authority root is stripped. If raw
// fails to parse, it is returned unchanged; the link filter is expected to
// reject it downstream.
//
// URL is idempotent: URL(URL(u)) == URL(u).
func URL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	parsed.Fragment = ""

	q := parsed.Query()
	for key := range q {
		if _, tracked := trackingParams[key]; tracked {
			q.Del(key)
		}
	}
	parsed.RawQuery = encodeSorted(q)

	out := parsed.String()
	if strings.HasSuffix(out, "/") && strings.Count(out, "/") > 3 {
		out = strings.TrimSuffix(out, "/")
	}
	return out
}

// encodeSorted serializes q as "k=v&k=v...", pairs ordered stably by key,
// or "" if q is empty. Values of a repeated key keep their original
// relative order.
func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

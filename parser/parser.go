// Package parser extracts structured metadata and outbound links from an
// HTML document in a single pass over the parsed tree, the way
// crawler.staticateDoc walks a document once to relativize and collect
// links. Where that walk mutates nodes for republishing, this one only
// reads.
package parser

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/TheSnook/webcrawl/normalize"
)

// MetaTag is a single <meta name=... content=...> pair, in document order.
type MetaTag struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Page is the result of parsing one fetched document.
type Page struct {
	URL          string    `json:"url"`
	Language     *string   `json:"language"`
	Title        *string   `json:"title"`
	MetaTags     []MetaTag `json:"meta_tags"`
	CanonicalURL *string   `json:"canonical_url"`
	ContentText  string    `json:"content_text"`
	Links        []string  `json:"links"`
}

// Parse extracts a Page from body, an HTML document fetched at requestURL.
// requestURL is presumed valid (the caller owns request construction); a
// parse failure there is a programming error, not a recoverable condition.
// Malformed HTML in body does not error: golang.org/x/net/html tolerates it
// the way the streaming extractor contract in spec.md §4.3 requires, and
// whatever was parsed before any internal recovery is still returned.
func Parse(body []byte, requestURL string, allowedDomains []string) (Page, error) {
	base, err := url.Parse(requestURL)
	if err != nil {
		panic("parser: invalid request URL: " + requestURL)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{URL: requestURL, MetaTags: []MetaTag{}, Links: []string{}}, nil
	}

	p := &extraction{
		page: Page{
			URL:      requestURL,
			MetaTags: []MetaTag{},
			Links:    []string{},
		},
		base:    base,
		allowed: allowedDomains,
	}
	p.walk(root, false)

	return p.page, nil
}

type extraction struct {
	page       Page
	base       *url.URL
	allowed    []string
	titleSeen  bool
	canonSeen  bool
	langSeen   bool
	contentBuf strings.Builder
}

// walk performs the single recursive descent. insideBody tracks whether an
// ancestor was <body>, mirroring staticateNode's document-order traversal
// but without mutating the tree.
func (p *extraction) walk(n *html.Node, insideBody bool) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Html:
			if !p.langSeen {
				if v, ok := attr(n, "lang"); ok {
					p.page.Language = strPtr(v)
					p.langSeen = true
				}
			}
		case atom.Body:
			insideBody = true
		case atom.Title:
			if !p.titleSeen {
				p.page.Title = strPtr(titleText(n))
				p.titleSeen = true
			}
		case atom.Meta:
			name, hasName := attr(n, "name")
			content, hasContent := attr(n, "content")
			if hasName && hasContent {
				p.page.MetaTags = append(p.page.MetaTags, MetaTag{Name: name, Content: content})
			}
		case atom.Link:
			if rel, _ := attr(n, "rel"); rel == "canonical" {
				if href, ok := attr(n, "href"); ok {
					p.page.CanonicalURL = strPtr(href)
					p.canonSeen = true
				}
			}
		case atom.A:
			if href, ok := attr(n, "href"); ok {
				p.collectLink(href)
			}
		}
	}

	if insideBody && n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			if p.contentBuf.Len() > 0 {
				p.contentBuf.WriteByte(' ')
			}
			p.contentBuf.WriteString(t)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, insideBody)
	}

	if n.DataAtom == atom.Body {
		p.page.ContentText = p.contentBuf.String()
	}
}

// collectLink resolves href against the base URL, applies the accept
// predicate, normalizes, and appends — mirroring the two-branch
// absolute-first-else-resolve structure of the original parser.rs.
func (p *extraction) collectLink(href string) {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		if normalize.Accept(u, p.allowed) {
			p.page.Links = append(p.page.Links, normalize.URL(u.String()))
		}
		return
	}
	resolved, err := p.base.Parse(href)
	if err != nil {
		return
	}
	if normalize.Accept(resolved, p.allowed) {
		p.page.Links = append(p.page.Links, normalize.URL(resolved.String()))
	}
}

func titleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func strPtr(s string) *string { return &s }

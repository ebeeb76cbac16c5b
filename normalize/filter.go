package normalize

import (
	"net/url"
	"strings"
)

// blockedExtensions are rejected regardless of allow-list, case-insensitive,
// matched against the path portion only (query string excluded).
var blockedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".tiff", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv", ".m4v",
	".mp3", ".wav", ".ogg", ".m4a", ".flac", ".aac",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".xml",
	".zip", ".rar", ".tar", ".gz", ".7z", ".exe", ".dmg", ".pkg", ".deb", ".rpm",
}

// Accept reports whether u is eligible for frontier insertion: scheme must
// be http/https, host must be present, the path must not end in a blocked
// extension, and the host's registered domain must match one of allowed
// (an allow-list of domain suffixes, e.g. "wikipedia.org").
func Accept(u *url.URL, allowed []string) bool {
	if u == nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Hostname() == "" {
		return false
	}
	if hasBlockedExtension(u.Path) {
		return false
	}
	return matchesAllowList(u.Hostname(), allowed)
}

func hasBlockedExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// matchesAllowList reports whether host is, or is a subdomain of, any entry
// in allowed. Comparison is case-insensitive.
func matchesAllowList(host string, allowed []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, suffix := range allowed {
		suffix = strings.ToLower(strings.TrimSuffix(suffix, "."))
		if suffix == "" {
			continue
		}
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams are dropped from the query before it takes part in the key.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"gclsrc":  {},
	"dclid":   {},
	"msclkid": {},
	"ref":     {},
	"cmpid":   {},
	"ito":     {},
}

// genericSegments are last path segments that say nothing about which article
// a URL points to.
var genericSegments = map[string]struct{}{
	"":        {},
	"index":   {},
	"amp":     {},
	"default": {},
	"article": {},
	"story":   {},
	"home":    {},
	"main":    {},
	"view":    {},
	"print":   {},
	"page":    {},
	"detail":  {},
	"details": {},
	"content": {},
	"news":    {},
}

// SourceID derives the deduplication key for an article URL.
// The same source and URL always produce the same id. A readable slug is used
// when the last path segment identifies the article on its own; otherwise the
// key is a digest of host, path and significant query.
func SourceID(source, rawURL string) string {
	host, p, query := normalizeURL(rawURL)
	if slug, ok := slugFragment(p); ok && query == "" {
		return source + ":" + slug
	}

	key := host + p
	if query != "" {
		key += "?" + query
	}
	sum := sha256.Sum256([]byte(key))
	return source + ":" + hex.EncodeToString(sum[:])[:16]
}

func normalizeURL(rawURL string) (host, p, query string) {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", strings.ToLower(strings.TrimRight(raw, "/")), ""
	}
	host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	p = strings.TrimRight(u.EscapedPath(), "/")
	return host, p, cleanQuery(u.Query())
}

// cleanQuery returns the query with tracking params removed and keys sorted.
func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		lower := strings.ToLower(key)
		if _, tracking := trackingParams[lower]; tracking || strings.HasPrefix(lower, "utm") {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		vals := append([]string(nil), values[key]...)
		sort.Strings(vals)
		for _, val := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

func slugFragment(p string) (string, bool) {
	if !strings.Contains(p, "/") {
		return "", false
	}
	_, last := path.Split(p)
	if ext := path.Ext(last); ext != "" && len(ext) <= 5 {
		last = strings.TrimSuffix(last, ext)
	}
	last = strings.ToLower(last)
	if _, generic := genericSegments[last]; generic {
		return "", false
	}
	return last, true
}

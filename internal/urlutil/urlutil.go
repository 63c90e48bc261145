// Package urlutil canonicalizes page addresses for deduplication and scoping.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// Normalize reduces an address to its canonical deduplication key: lowercase
// scheme, host, and path with the fragment and query dropped and trailing
// slashes removed (the root path keeps its slash). Normalize is idempotent.
func Normalize(address string) string {
	address = strings.TrimSpace(address)
	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return strings.ToLower(address)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	p := strings.ToLower(u.EscapedPath())
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		p = "/"
	}
	return scheme + "://" + host + p
}

// DomainOf returns the lowercase hostname of an address, or the empty string
// when the address cannot be parsed. Callers must treat an empty result as
// unscopeable and exclude it from same-domain matches.
func DomainOf(address string) string {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

var assetExtensions = map[string]struct{}{
	// documents and archives
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".zip": {}, ".rar": {}, ".7z": {},
	".tar": {}, ".gz": {}, ".exe": {}, ".dmg": {},
	// images
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".svg": {}, ".ico": {}, ".bmp": {}, ".tiff": {},
	// audio and video
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
	".flv": {}, ".wav": {}, ".ogg": {}, ".webm": {}, ".mkv": {},
	// styles, scripts, data
	".css": {}, ".js": {}, ".json": {}, ".xml": {}, ".rss": {}, ".atom": {},
}

// IsAssetAddress reports whether the address path ends in a known
// non-document extension. Used to prune the link frontier; a missed asset is
// not fatal but wastes a page slot and a fetch.
func IsAssetAddress(address string) bool {
	u, err := url.Parse(strings.TrimSpace(address))
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.EscapedPath()))
	if ext == "" {
		return false
	}
	_, ok := assetExtensions[ext]
	return ok
}

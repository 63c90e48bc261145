package extractor

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"siteharvest/internal/urlutil"
	"siteharvest/pkg/types"
)

const maxAnchorTextLength = 100

// ExtractLinks returns the deduplicated outbound hyperlinks of a page,
// resolved against the base address. Asset targets and non-http(s) schemes
// are dropped, fragments and query strings are stripped, and malformed hrefs
// are skipped silently. Depth on the returned links is a sentinel zero.
func ExtractLinks(raw []byte, baseAddress string) []types.ExtractedLink {
	base, err := url.Parse(strings.TrimSpace(baseAddress))
	if err != nil || base.Host == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []types.ExtractedLink

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		scheme := strings.ToLower(resolved.Scheme)
		if scheme != "http" && scheme != "https" {
			return
		}
		if _, dup := seen[resolved.String()]; dup {
			return
		}
		seen[resolved.String()] = struct{}{}

		if urlutil.IsAssetAddress(resolved.String()) {
			return
		}

		resolved.Fragment = ""
		resolved.RawQuery = ""

		links = append(links, types.ExtractedLink{
			Address:    resolved.String(),
			AnchorText: truncate(strings.TrimSpace(s.Text()), maxAnchorTextLength),
		})
	})

	return links
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

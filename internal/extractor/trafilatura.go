package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/markusmobius/go-trafilatura"
)

// TrafilaturaExtractor is an alternative ContentExtractor backed by the
// trafilatura boilerplate-removal library. It plugs into the same
// orchestrator slot as the density heuristic.
type TrafilaturaExtractor struct {
	opts Options
}

// NewTrafilaturaExtractor constructs the trafilatura-backed extractor.
func NewTrafilaturaExtractor(opts Options) *TrafilaturaExtractor {
	return &TrafilaturaExtractor{opts: opts}
}

// Extract implements ContentExtractor.
func (e *TrafilaturaExtractor) Extract(raw []byte, baseAddress string) (*Content, error) {
	opts := trafilatura.Options{
		IncludeImages: e.opts.IncludeImages,
	}
	if parsed, err := url.Parse(baseAddress); err == nil && parsed.Host != "" {
		opts.OriginalURL = parsed
	}

	result, err := trafilatura.Extract(bytes.NewReader(raw), opts)
	if err != nil {
		return nil, fmt.Errorf("trafilatura extract: %w", err)
	}
	if result == nil || result.ContentText == "" {
		return nil, ErrNoContent
	}

	text := collapseBlankLines(result.ContentText)
	if utf8.RuneCountInString(text) < e.opts.minLength() {
		return nil, ErrContentTooShort
	}

	published := ""
	if !result.Metadata.Date.IsZero() {
		published = result.Metadata.Date.Format(time.RFC3339)
	}

	return &Content{
		Title:         result.Metadata.Title,
		Markdown:      text,
		Author:        result.Metadata.Author,
		PublishedTime: published,
		SiteName:      result.Metadata.Sitename,
		WordCount:     CountWords(text),
	}, nil
}

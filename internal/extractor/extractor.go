// Package extractor isolates the primary readable content of a page and
// normalizes it into markdown-flavoured text.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinContentLength is the floor below which an extraction is rejected
// as too short. Kept as a constant for behavior parity, not re-derived.
const DefaultMinContentLength = 100

// ErrContentTooShort reports that extraction structurally succeeded but the
// normalized content did not reach the minimum length.
var ErrContentTooShort = errors.New("content too short")

// ErrNoContent reports that no substantive content region was found.
var ErrNoContent = errors.New("no content found")

// Content is the extracted primary content of one page.
type Content struct {
	Title         string
	Markdown      string
	Author        string
	PublishedTime string
	SiteName      string
	WordCount     int
}

// ContentExtractor turns raw markup into normalized content. Implementations
// must be safe for sequential reuse across pages.
type ContentExtractor interface {
	Extract(raw []byte, baseAddress string) (*Content, error)
}

// Options tunes content extraction.
type Options struct {
	IncludeImages    bool
	MinContentLength int
}

func (o Options) minLength() int {
	if o.MinContentLength <= 0 {
		return DefaultMinContentLength
	}
	return o.MinContentLength
}

// DensityExtractor is the default reader-mode heuristic: strip boilerplate,
// then keep the densest contiguous content region.
type DensityExtractor struct {
	opts Options
}

// NewDensityExtractor constructs the default extractor.
func NewDensityExtractor(opts Options) *DensityExtractor {
	return &DensityExtractor{opts: opts}
}

// Selectors that never contribute to the primary content.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "form", "button",
	"nav", "aside",
	"[class*='advert']", "[class*='banner']", "[class*='sidebar']",
	"[class*='comment']", "[id*='comment']",
	"[role='navigation']", "[role='banner']", "[role='complementary']",
}

// Candidate containers checked before falling back to density scoring.
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	"#content",
	".post-content",
	".entry-content",
	".article-body",
	".content",
}

// Extract implements ContentExtractor with goquery-based region isolation
// followed by the shared markup-to-text rewrite.
func (e *DensityExtractor) Extract(raw []byte, baseAddress string) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := readMetadata(doc)

	for _, sel := range boilerplateSelectors {
		doc.Find(sel).Remove()
	}
	doc.Find("header, footer").Each(func(_ int, s *goquery.Selection) {
		// Page-level chrome only; article-level header/footer stay.
		if s.ParentsFiltered("article, main").Length() == 0 {
			s.Remove()
		}
	})

	region := selectContentRegion(doc)
	if region == nil {
		return nil, ErrNoContent
	}

	regionHTML, err := goquery.OuterHtml(region)
	if err != nil {
		return nil, fmt.Errorf("serialise content region: %w", err)
	}

	markdown, err := MarkupToText(regionHTML, TextOptions{IncludeImages: e.opts.IncludeImages})
	if err != nil {
		return nil, fmt.Errorf("normalise content: %w", err)
	}
	if utf8.RuneCountInString(markdown) < e.opts.minLength() {
		return nil, ErrContentTooShort
	}

	title := meta.title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	return &Content{
		Title:         title,
		Markdown:      markdown,
		Author:        meta.author,
		PublishedTime: meta.published,
		SiteName:      meta.siteName,
		WordCount:     CountWords(markdown),
	}, nil
}

// selectContentRegion picks the densest plausible content container: a known
// content selector if one holds enough text, otherwise the block element with
// the highest text mass, otherwise body.
func selectContentRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		candidate := doc.Find(sel).First()
		if candidate.Length() == 0 {
			continue
		}
		if textLength(candidate) >= 80 {
			return candidate
		}
	}

	var best *goquery.Selection
	bestScore := 0
	doc.Find("div, section").Each(func(_ int, s *goquery.Selection) {
		score := densityScore(s)
		if score > bestScore {
			best = s
			bestScore = score
		}
	})
	if best != nil && bestScore >= 80 {
		return best
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	return body
}

// densityScore favours containers whose text lives in paragraphs, headings,
// and list items over containers that merely wrap everything.
func densityScore(s *goquery.Selection) int {
	direct := 0
	s.ChildrenFiltered("p, h1, h2, h3, h4, h5, h6, ul, ol, blockquote, pre").Each(func(_ int, c *goquery.Selection) {
		direct += len(strings.TrimSpace(c.Text()))
	})
	linkText := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkText += len(strings.TrimSpace(a.Text()))
	})
	score := direct - linkText/2
	if score < 0 {
		return 0
	}
	return score
}

func textLength(s *goquery.Selection) int {
	return len(strings.TrimSpace(s.Text()))
}

type metadata struct {
	title     string
	author    string
	published string
	siteName  string
}

func readMetadata(doc *goquery.Document) metadata {
	meta := metadata{
		title:     metaContent(doc, "meta[property='og:title']"),
		author:    metaContent(doc, "meta[name='author']", "meta[property='article:author']"),
		published: metaContent(doc, "meta[property='article:published_time']", "meta[name='date']"),
		siteName:  metaContent(doc, "meta[property='og:site_name']"),
	}
	return meta
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

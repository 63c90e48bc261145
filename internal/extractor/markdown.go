package extractor

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// TextOptions tunes the markup-to-text rewrite.
type TextOptions struct {
	// IncludeImages renders images as ![alt](src); otherwise they are dropped.
	IncludeImages bool
}

// MarkupToText deterministically rewrites HTML into markdown-flavoured plain
// text: h1..h6 become #..######, paragraphs and breaks become newlines, list
// items become "- " lines, bold/italic become **/*, anchor text is kept with
// the href discarded, entities are decoded, and whitespace is collapsed (runs
// of three or more newlines to exactly two, horizontal runs to one space).
// Both the single-page and the recursive crawl paths use this one function.
func MarkupToText(markup string, opts TextOptions) (string, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	acc := &textBuilder{}
	renderNode(root, acc, opts)
	return collapseBlankLines(strings.TrimSpace(acc.String())), nil
}

var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"iframe":   {},
	"head":     {},
	"template": {},
}

var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "header": {},
	"footer": {}, "main": {}, "aside": {}, "blockquote": {}, "figure": {},
	"table": {}, "tr": {}, "ul": {}, "ol": {},
}

func renderNode(node *html.Node, acc *textBuilder, opts TextOptions) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		acc.writeText(node.Data)
	case html.DocumentNode:
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			renderNode(child, acc, opts)
		}
	case html.ElementNode:
		tag := strings.ToLower(node.Data)
		if _, skip := skippedTags[tag]; skip {
			return
		}
		switch tag {
		case "br":
			acc.newline()
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			inner := renderInline(node, opts)
			if inner != "" {
				acc.blankLine()
				acc.writeRaw(strings.Repeat("#", level) + " " + inner)
				acc.blankLine()
			}
		case "li":
			inner := renderInline(node, opts)
			if inner != "" {
				acc.newline()
				acc.writeRaw("- " + inner)
				acc.newline()
			}
		case "strong", "b":
			if inner := renderInline(node, opts); inner != "" {
				acc.writeRaw("**" + inner + "**")
			}
		case "em", "i":
			if inner := renderInline(node, opts); inner != "" {
				acc.writeRaw("*" + inner + "*")
			}
		case "a":
			// Anchor text only; the target is the link extractor's concern.
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				renderNode(child, acc, opts)
			}
		case "img":
			if opts.IncludeImages {
				alt := attrValue(node, "alt")
				src := attrValue(node, "src")
				if src != "" {
					acc.blankLine()
					acc.writeRaw("![" + alt + "](" + src + ")")
					acc.blankLine()
				}
			}
		default:
			_, block := blockTags[tag]
			if block {
				acc.blankLine()
			}
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				renderNode(child, acc, opts)
			}
			if block {
				acc.blankLine()
			}
		}
	}
}

// renderInline flattens a node's children into a single trimmed line, keeping
// nested inline markers.
func renderInline(node *html.Node, opts TextOptions) string {
	acc := &textBuilder{}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		renderNode(child, acc, opts)
	}
	return strings.TrimSpace(strings.Join(strings.FieldsFunc(acc.String(), func(r rune) bool {
		return r == '\n'
	}), " "))
}

func attrValue(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// textBuilder accumulates output while collapsing horizontal whitespace and
// tracking trailing newlines so block boundaries never stack up.
type textBuilder struct {
	b                strings.Builder
	trailingNewlines int
	endsWithSpace    bool
}

func (t *textBuilder) String() string { return t.b.String() }

// writeText appends visible text, collapsing every run of whitespace in the
// input to one space and suppressing leading space after a line break.
func (t *textBuilder) writeText(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return
	}
	runes := []rune(s)
	leadingSpace := unicode.IsSpace(runes[0])
	trailingSpace := unicode.IsSpace(runes[len(runes)-1])

	if leadingSpace && t.b.Len() > 0 && t.trailingNewlines == 0 && !t.endsWithSpace {
		t.b.WriteByte(' ')
	}
	t.b.WriteString(strings.Join(words, " "))
	t.trailingNewlines = 0
	t.endsWithSpace = false
	if trailingSpace {
		t.b.WriteByte(' ')
		t.endsWithSpace = true
	}
}

// writeRaw appends pre-formatted output untouched.
func (t *textBuilder) writeRaw(s string) {
	if s == "" {
		return
	}
	t.b.WriteString(s)
	t.trailingNewlines = 0
	t.endsWithSpace = false
	if r := s[len(s)-1]; r == '\n' {
		t.trailingNewlines = 1
	}
}

func (t *textBuilder) newline() {
	if t.b.Len() == 0 || t.trailingNewlines >= 1 {
		return
	}
	t.b.WriteByte('\n')
	t.trailingNewlines = 1
	t.endsWithSpace = false
}

func (t *textBuilder) blankLine() {
	if t.b.Len() == 0 || t.trailingNewlines >= 2 {
		return
	}
	for t.trailingNewlines < 2 {
		t.b.WriteByte('\n')
		t.trailingNewlines++
	}
	t.endsWithSpace = false
}

// collapseBlankLines rewrites runs of blank lines down to a single blank line
// and strips trailing horizontal whitespace per line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
			result = append(result, "")
			continue
		}
		blank = 0
		result = append(result, line)
	}
	return strings.TrimSpace(strings.Join(result, "\n"))
}

// Package chunker segments extracted text into overlapping retrieval-sized
// pieces. It is a pure function of its input: no I/O, no shared state.
package chunker

import "strings"

// Options sizes the segmentation window. Sizes are in runes.
type Options struct {
	ChunkSize   int
	OverlapSize int
}

// Split cuts text into ordered chunks of at most ChunkSize runes, each
// overlapping the previous by OverlapSize runes. Cuts prefer a paragraph
// break, then a sentence end, then a space near the window edge; a hard cut
// is the last resort. Empty input yields no chunks.
func Split(text string, opts Options) []string {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.OverlapSize < 0 || opts.OverlapSize >= opts.ChunkSize {
		opts.OverlapSize = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= opts.ChunkSize {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + opts.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - opts.OverlapSize
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint finds the best break position in (start, limit], searching the
// back half of the window so chunks never shrink below half size.
func cutPoint(runes []rune, start, limit int) int {
	floor := start + (limit-start)/2

	if p := lastIndexFrom(runes, floor, limit, isParagraphBreak); p > floor {
		return p
	}
	if p := lastIndexFrom(runes, floor, limit, isSentenceEnd); p > floor {
		return p + 1
	}
	if p := lastIndexFrom(runes, floor, limit, func(r rune) bool { return r == ' ' || r == '\n' }); p > floor {
		return p
	}
	return limit
}

func lastIndexFrom(runes []rune, floor, limit int, match func(rune) bool) int {
	for i := limit - 1; i > floor; i-- {
		if match(runes[i]) {
			return i
		}
	}
	return -1
}

func isParagraphBreak(r rune) bool {
	return r == '\n'
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

package extractor

// CountWords counts one unit per Hangul syllable and one unit per maximal run
// of Latin letters. This mixed-script heuristic matches what downstream
// indexing expects for Korean/English pages; it is deliberately not general
// Unicode word-breaking.
func CountWords(s string) int {
	count := 0
	inLatin := false
	for _, r := range s {
		switch {
		case r >= 0xAC00 && r <= 0xD7A3:
			count++
			inLatin = false
		case isLatinLetter(r):
			if !inLatin {
				count++
			}
			inLatin = true
		default:
			inLatin = false
		}
	}
	return count
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

package chunker

import (
	"regexp"
	"strings"
)

var (
	latinRun     = regexp.MustCompile(`[a-zA-Z]+`)
	genericToken = regexp.MustCompile(`\b\w+\b`)
	sentenceEnd  = regexp.MustCompile(`[.!?]\s+`)
)

// CountWords counts words in mixed-language text. Detection order
// matters: any ASCII letter puts the text on the Latin path, where only
// [a-zA-Z] runs count and other scripts are ignored; otherwise CJK
// ideographs each count as one word; otherwise generic word tokens.
func CountWords(text string) int {
	if strings.ContainsFunc(text, isASCIILetter) {
		return len(latinRun.FindAllStringIndex(text, -1))
	}
	if cjk := countCJK(text); cjk > 0 {
		return cjk
	}
	return len(genericToken.FindAllStringIndex(text, -1))
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func countCJK(text string) int {
	n := 0
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			n++
		}
	}
	return n
}

// FindSentenceBreaks returns the byte offsets immediately after each
// sentence-ending punctuation mark ([.!?] followed by whitespace). The
// end-of-text offset is always included, so the breaks partition the
// whole string. Offsets are strictly increasing.
func FindSentenceBreaks(text string) []int {
	matches := sentenceEnd.FindAllStringIndex(text, -1)
	breaks := make([]int, 0, len(matches)+1)
	for _, m := range matches {
		breaks = append(breaks, m[1])
	}
	if len(breaks) == 0 || breaks[len(breaks)-1] != len(text) {
		breaks = append(breaks, len(text))
	}
	return breaks
}

package document

import (
	"regexp"
	"strings"
)

var (
	spaceRun = regexp.MustCompile(` +`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// Document is an immutable, line-indexed view of a book's text.
// Line numbers are 1-indexed and inclusive throughout.
type Document struct {
	text  string
	lines []string
}

// New builds a Document from raw text. The text is split on newlines
// once; the Document is read-only after construction.
func New(text string) *Document {
	return &Document{
		text:  text,
		lines: strings.Split(text, "\n"),
	}
}

// Text returns the full document text.
func (d *Document) Text() string {
	return d.text
}

// TotalLines returns N, the number of lines.
func (d *Document) TotalLines() int {
	return len(d.lines)
}

// Chars returns the total character count.
func (d *Document) Chars() int {
	return len(d.text)
}

// SliceLines extracts the text for the inclusive 1-indexed line range
// [start, end]. Out-of-range bounds are clamped to the document.
func (d *Document) SliceLines(start, end int) string {
	startIdx := start - 1
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := end
	if endIdx > len(d.lines) {
		endIdx = len(d.lines)
	}
	if startIdx >= endIdx {
		return ""
	}
	return strings.Join(d.lines[startIdx:endIdx], "\n")
}

// Lines returns the 1-indexed inclusive range [start, end] as a slice
// of lines. Bounds are clamped like SliceLines.
func (d *Document) Lines(start, end int) []string {
	startIdx := start - 1
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := end
	if endIdx > len(d.lines) {
		endIdx = len(d.lines)
	}
	if startIdx >= endIdx {
		return nil
	}
	return d.lines[startIdx:endIdx]
}

// Normalize cleans raw extracted text before a Document is built:
// runs of spaces collapse to one, runs of 3+ newlines collapse to a
// blank line, and every line is trimmed along with leading/trailing
// blank lines.
func Normalize(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = blankRun.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

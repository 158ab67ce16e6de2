package partition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mgreenly/bookdigest/internal/document"
)

// DefaultFallbackParts is the number of equal parts used when no
// upstream proposal is usable.
const DefaultFallbackParts = 10

var partHeading = regexp.MustCompile(`(?im)^(?:CHAPTER|Part|第.*?章|第.*?部分)\s*[:\-]?\s*(.+?)$`)

// FallbackPartition deterministically splits the document into parts
// equal-sized line ranges; the final part absorbs the remainder. It is
// the terminal recovery path: its output always satisfies the partition
// invariants by construction, so it never needs validation.
func FallbackPartition(doc *document.Document, parts int) []Segment {
	totalLines := doc.TotalLines()
	if parts <= 0 {
		parts = DefaultFallbackParts
	}
	if parts > totalLines {
		parts = totalLines
	}
	linesPerPart := totalLines / parts

	segments := make([]Segment, 0, parts)
	for i := 0; i < parts; i++ {
		start := i*linesPerPart + 1
		end := (i + 1) * linesPerPart
		if i == parts-1 {
			end = totalLines
		}
		segments = append(segments, Segment{
			ID:        fmt.Sprintf("%02d", i),
			Title:     partTitle(doc, start, end, i+1),
			StartLine: start,
			EndLine:   end,
			IsContent: true,
		})
	}
	return segments
}

// partTitle scans the first lines of a part for a chapter-heading
// pattern; otherwise the part is just numbered.
func partTitle(doc *document.Document, start, end, seq int) string {
	previewEnd := start + 10
	if previewEnd > end {
		previewEnd = end
	}
	preview := doc.SliceLines(start, previewEnd)
	if m := partHeading.FindStringSubmatch(preview); m != nil {
		title := strings.TrimSpace(m[1])
		if r := []rune(title); len(r) > 50 {
			title = string(r[:50])
		}
		if title != "" {
			return title
		}
	}
	return fmt.Sprintf("Part %d", seq)
}

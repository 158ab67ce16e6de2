package partition

import (
	"regexp"
	"strings"

	"github.com/mgreenly/bookdigest/internal/document"
)

// Marker is a line that looks like a chapter heading, found by the
// deterministic scanner. Markers are evidence handed to the boundary
// proposer; they carry no authority of their own.
type Marker struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// MaxMarkers caps scanner output so a pathological document (say, a
// dialogue where every line starts with "Chapter") cannot flood the
// proposer prompt.
const MaxMarkers = 500

var headingLine = regexp.MustCompile(`(?i)^(?:` +
	`(?:chapter|part|book|section)\s+(?:[0-9]+|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty)\b` +
	`|prologue\b|epilogue\b|introduction\b|preface\b|foreword\b|afterword\b` +
	`|第[0-9一二三四五六七八九十百千零两]+[章节部卷回]` +
	`)`)

// ScanHeadings walks every line of the document and collects lines
// matching a fixed set of chapter-heading patterns. The patterns are
// deliberately a tested library function rather than anything derived
// at runtime.
func ScanHeadings(doc *document.Document) []Marker {
	var markers []Marker
	for i, line := range doc.Lines(1, doc.TotalLines()) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || len(trimmed) > 120 {
			continue
		}
		if headingLine.MatchString(trimmed) {
			markers = append(markers, Marker{Line: i + 1, Text: trimmed})
			if len(markers) >= MaxMarkers {
				break
			}
		}
	}
	return markers
}

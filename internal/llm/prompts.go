package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgreenly/bookdigest/internal/document"
	"github.com/mgreenly/bookdigest/internal/partition"
)

const maxMarkersInPrompt = 50

// boundaryPrompt asks the model to turn scanned heading markers into
// chapter line ranges covering the whole document.
func boundaryPrompt(markers []partition.Marker, totalLines int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The document has %d lines. A scan of every line found these candidate chapter markers:\n\n", totalLines)

	shown := markers
	if len(shown) > maxMarkersInPrompt {
		shown = shown[:maxMarkersInPrompt]
	}
	for _, m := range shown {
		fmt.Fprintf(&sb, "- line %d: %s\n", m.Line, truncate(m.Text, 100))
	}
	if len(markers) > maxMarkersInPrompt {
		fmt.Fprintf(&sb, "... (%d markers total, first %d shown)\n", len(markers), maxMarkersInPrompt)
	}

	sb.WriteString(`
Decide which markers are real body chapters and produce their line ranges.

Rules:
- Ignore markers from the table of contents, list of maps, title page, and similar front matter. Only body chapters become entries.
- Each chapter's "start_line" is the line of its marker.
- Each chapter's "end_line" is the line before the next chapter starts, or the last line of its content.
- Adjacent chapters must be contiguous: previous end_line + 1 = next start_line.
`)
	fmt.Fprintf(&sb, "- Only the final chapter may end at line %d, and it must.\n", totalLines)
	sb.WriteString(`- Never give every chapter the same end_line.

Return JSON only:
{
  "chapters": [
    {"number": "00", "title": "Introduction", "start_line": 1, "end_line": 324},
    {"number": "01", "title": "Chapter 1", "start_line": 325, "end_line": 850}
  ]
}`)
	return sb.String()
}

// previewPrompt is the direct-ask fallback used when no markers were
// found. The model sees sampled slices of the document instead.
func previewPrompt(doc *document.Document) string {
	total := doc.TotalLines()

	var sb strings.Builder
	sb.WriteString("Analyze the chapter structure of this document.\n\n")
	fmt.Fprintf(&sb, "Document statistics: %d characters, %d lines.\n\n", doc.Chars(), total)
	sb.WriteString(samplePreview(doc))
	sb.WriteString(`

Requirements:
1. Identify every chapter. Never return an empty list.
2. "start_line" is the line of the chapter heading; "end_line" is the line before the next chapter starts.
`)
	fmt.Fprintf(&sb, "3. Only the final chapter may end at line %d. Never give every chapter the same end_line.\n", total)
	sb.WriteString(`4. If the document has no explicit chapter markings, infer boundaries from topic shifts and split it into roughly 5-10 parts.
5. Skip front matter such as the table of contents and list of maps.

Return JSON only:
{
  "chapters": [
    {"number": "00", "title": "Introduction", "start_line": 1, "end_line": 324},
    {"number": "01", "title": "Chapter 1", "start_line": 325, "end_line": 850}
  ]
}`)
	return sb.String()
}

// samplePreview shows the head, two interior windows, and the tail of
// the document so structure is visible without sending the whole text.
func samplePreview(doc *document.Document) string {
	total := doc.TotalLines()

	type window struct {
		name       string
		start, end int
	}
	windows := []window{{"beginning", 1, min(500, total)}}
	if total > 1000 {
		q := total / 4
		windows = append(windows,
			window{"around one quarter", max(1, q-200), min(total, q+200)},
			window{"around the middle", max(1, total/2-200), min(total, total/2+200)},
		)
	}
	windows = append(windows, window{"end", max(1, total-499), total})

	var sb strings.Builder
	for _, w := range windows {
		fmt.Fprintf(&sb, "=== %s (lines %d-%d) ===\n", w.name, w.start, w.end)
		sb.WriteString(doc.SliceLines(w.start, w.end))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// repairPrompt feeds the previous proposal back with its coverage
// violations and asks for a corrected version.
func repairPrompt(prior []partition.Candidate, violations []partition.Violation, totalLines int) string {
	priorJSON, _ := json.MarshalIndent(prior, "", "  ")

	var sb strings.Builder
	sb.WriteString("Your previous chapter boundaries did not cover the document correctly.\n\n")
	sb.WriteString("Previous proposal:\n")
	sb.Write(priorJSON)
	sb.WriteString("\n\nProblems found:\n")
	for _, v := range violations {
		switch v.Code {
		case partition.CodeGap:
			fmt.Fprintf(&sb, "- lines %d-%d are not covered by any chapter\n", v.Start, v.End)
		case partition.CodeOverlap:
			fmt.Fprintf(&sb, "- chapter %d overlaps the previous one at lines %d-%d\n", v.Index, v.Start, v.End)
		default:
			fmt.Fprintf(&sb, "- %s: %s\n", v.Code, v.Detail)
		}
	}
	fmt.Fprintf(&sb, `
Fix the boundaries. The document has %d lines; chapters must be contiguous and the final chapter must end at line %d.

Return the corrected JSON in the same {"chapters": [...]} format, nothing else.`, totalLines, totalLines)
	return sb.String()
}

package partition

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mgreenly/bookdigest/internal/document"
)

// frontMatter matches known front-matter headings at the start of a
// gap, used to title synthesized non-content segments.
var frontMatter = regexp.MustCompile(`(?i)^(Contents?|Table of Contents|List of Maps|Acknowledgements?|Preface|Title Page)`)

// Reconcile turns normalized candidates into a total, ordered, gapless
// partition of the document. Content candidates are checked against the
// structural invariants first; uncovered line ranges become synthesized
// non-content segments titled from their leading lines. Candidates
// already flagged non-content pass through verbatim.
//
// A CoverageError is returned when the candidate set itself is
// untrustworthy (duplicate full-span endings, inverted ranges, a
// whole-document span among several candidates); the caller then either
// requests a revised proposal or falls back to FallbackPartition.
func Reconcile(doc *document.Document, candidates []Candidate) ([]Segment, error) {
	totalLines := doc.TotalLines()

	var content, passthrough []Candidate
	for _, c := range candidates {
		if c.IsContent {
			content = append(content, c)
		} else {
			passthrough = append(passthrough, c)
		}
	}

	if violations := checkCandidates(content, len(candidates), totalLines); len(violations) > 0 {
		return nil, &CoverageError{Violations: violations}
	}

	sort.SliceStable(content, func(i, j int) bool {
		return content[i].StartLine < content[j].StartLine
	})

	// Sweep every covered range (content plus pre-existing non-content)
	// so synthesized segments never overlap a range the proposer already
	// accounted for.
	covered := make([]Candidate, 0, len(content)+len(passthrough))
	covered = append(covered, content...)
	covered = append(covered, passthrough...)
	sort.SliceStable(covered, func(i, j int) bool {
		return covered[i].StartLine < covered[j].StartLine
	})

	type gap struct{ start, end int }
	var gaps []gap
	cursor := 1
	for _, c := range covered {
		if cursor < c.StartLine {
			gaps = append(gaps, gap{cursor, c.StartLine - 1})
		}
		if c.EndLine+1 > cursor {
			cursor = c.EndLine + 1
		}
	}
	if cursor <= totalLines {
		gaps = append(gaps, gap{cursor, totalLines})
	}

	segments := make([]Segment, 0, len(candidates)+len(gaps))
	for _, c := range content {
		segments = append(segments, Segment{
			ID:        c.Label,
			Title:     c.Title,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			IsContent: true,
		})
	}
	for _, c := range passthrough {
		segments = append(segments, Segment{
			ID:        c.Label,
			Title:     c.Title,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			IsContent: false,
		})
	}
	for i, g := range gaps {
		segments = append(segments, Segment{
			ID:        fmt.Sprintf("NC%02d", i+1),
			Title:     gapTitle(doc, g.start, g.end, i+1),
			StartLine: g.start,
			EndLine:   g.end,
			IsContent: false,
		})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartLine < segments[j].StartLine
	})
	return segments, nil
}

// checkCandidates enforces the pre-merge invariants on content
// candidates. totalCandidates counts content and non-content alike.
func checkCandidates(content []Candidate, totalCandidates, totalLines int) []Violation {
	var violations []Violation

	var fullEnd []int
	for i, c := range content {
		if c.EndLine == totalLines {
			fullEnd = append(fullEnd, i)
		}
	}
	if len(fullEnd) > 1 {
		for _, i := range fullEnd {
			violations = append(violations, Violation{
				Code:   CodeDuplicateFullEnd,
				Index:  i,
				Start:  content[i].StartLine,
				End:    content[i].EndLine,
				Detail: fmt.Sprintf("%d content candidates end at line %d", len(fullEnd), totalLines),
			})
		}
	}

	for i, c := range content {
		if c.StartLine >= c.EndLine {
			violations = append(violations, Violation{
				Code:   CodeInvalidRange,
				Index:  i,
				Start:  c.StartLine,
				End:    c.EndLine,
				Detail: "start_line is not before end_line",
			})
		}
		if c.StartLine == 1 && c.EndLine == totalLines && totalCandidates > 1 {
			violations = append(violations, Violation{
				Code:   CodeFullSpan,
				Index:  i,
				Start:  c.StartLine,
				End:    c.EndLine,
				Detail: "candidate spans the entire document",
			})
		}
	}

	return violations
}

// gapTitle inspects the first few lines of a gap for a recognizable
// front-matter heading; otherwise the gap is just numbered.
func gapTitle(doc *document.Document, start, end, seq int) string {
	previewEnd := start + 5
	if previewEnd > end {
		previewEnd = end
	}
	preview := strings.TrimSpace(doc.SliceLines(start, previewEnd))
	if m := frontMatter.FindStringSubmatch(preview); m != nil {
		return m[1]
	}
	return fmt.Sprintf("Non-Content Section %d", seq)
}

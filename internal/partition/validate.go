package partition

import (
	"fmt"

	"github.com/mgreenly/bookdigest/internal/document"
)

// Validate checks a merged partition against the final structural
// invariants: the segments must tile [1, N] exactly, in order, with no
// gaps or overlaps, and no segment's sliced text may equal the whole
// document unless it is the only segment. An empty result means the
// partition is safe to proceed on.
func Validate(doc *document.Document, segments []Segment) []Violation {
	totalLines := doc.TotalLines()
	var violations []Violation

	if len(segments) == 0 {
		return []Violation{{
			Code:   CodeGap,
			Start:  1,
			End:    totalLines,
			Detail: "empty partition",
		}}
	}

	cursor := 1
	for i, s := range segments {
		if s.StartLine > cursor {
			violations = append(violations, Violation{
				Code:   CodeGap,
				Index:  i,
				Start:  cursor,
				End:    s.StartLine - 1,
				Detail: fmt.Sprintf("lines %d-%d not covered by any segment", cursor, s.StartLine-1),
			})
		} else if s.StartLine < cursor {
			violations = append(violations, Violation{
				Code:   CodeOverlap,
				Index:  i,
				Start:  s.StartLine,
				End:    cursor - 1,
				Detail: fmt.Sprintf("segment %q overlaps the previous segment at lines %d-%d", s.ID, s.StartLine, cursor-1),
			})
		}
		if s.EndLine+1 > cursor {
			cursor = s.EndLine + 1
		}
	}
	if cursor <= totalLines {
		violations = append(violations, Violation{
			Code:   CodeGap,
			Index:  len(segments) - 1,
			Start:  cursor,
			End:    totalLines,
			Detail: fmt.Sprintf("trailing lines %d-%d not covered", cursor, totalLines),
		})
	}

	// A segment whose slice reproduces the entire document text is a
	// classic boundary-confusion symptom.
	if len(segments) > 1 {
		fullLen := len(doc.Text())
		for i, s := range segments {
			if len(doc.SliceLines(s.StartLine, s.EndLine)) == fullLen {
				violations = append(violations, Violation{
					Code:   CodeFullSlice,
					Index:  i,
					Start:  s.StartLine,
					End:    s.EndLine,
					Detail: fmt.Sprintf("segment %q slices to the full document text", s.ID),
				})
			}
		}
	}

	return violations
}

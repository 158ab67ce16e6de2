package partition

import "fmt"

// Candidate is a proposed chapter boundary after normalization. Line
// numbers are 1-indexed and inclusive.
type Candidate struct {
	Label     string `json:"label"`
	Title     string `json:"title"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	IsContent bool   `json:"is_content"`
}

// Segment is a validated unit of the final partition. A finalized
// partition is ordered, contiguous, non-overlapping, and covers the
// whole document.
type Segment struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	IsContent bool   `json:"is_content"`
}

// Lines returns the number of lines the segment spans.
func (s Segment) Lines() int {
	return s.EndLine - s.StartLine + 1
}

// Violation describes one structural problem with a candidate set or a
// merged partition, with enough detail for the caller to decide between
// requesting a revised proposal and falling back.
type Violation struct {
	Code   string `json:"code"`
	Index  int    `json:"index"`
	Start  int    `json:"start_line"`
	End    int    `json:"end_line"`
	Detail string `json:"detail"`
}

// Violation codes.
const (
	CodeInvalidRange     = "invalid_range"      // start_line >= end_line
	CodeDuplicateFullEnd = "duplicate_full_end" // multiple content segments ending at N
	CodeFullSpan         = "full_span"          // segment covers the whole document
	CodeGap              = "gap"                // uncovered lines in the merged partition
	CodeOverlap          = "overlap"            // overlapping segments in the merged partition
	CodeFullSlice        = "full_slice"         // segment text equals the whole document
)

func (v Violation) String() string {
	return fmt.Sprintf("%s at index %d [%d-%d]: %s", v.Code, v.Index, v.Start, v.End, v.Detail)
}

// CoverageError reports that a candidate set failed the pre-merge
// structural checks. The caller reacts by requesting a revised proposal
// or invoking FallbackPartition; the error is never silently swallowed.
type CoverageError struct {
	Violations []Violation
}

func (e *CoverageError) Error() string {
	if len(e.Violations) == 1 {
		return "coverage violation: " + e.Violations[0].String()
	}
	return fmt.Sprintf("%d coverage violations (first: %s)", len(e.Violations), e.Violations[0].String())
}

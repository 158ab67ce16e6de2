package partition

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatIssue records a candidate element that could not be cleanly
// normalized. Issues are reported for logging, never fatal: the batch
// always yields one Candidate per input element.
type FormatIssue struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Normalize coerces a heterogeneous candidate list into canonical
// Candidates. Elements may be maps with alternate key spellings,
// JSON-encoded strings, or garbage; unusable elements become flagged
// whole-document placeholders so one bad record never aborts the batch.
func Normalize(raw []any, totalLines int) ([]Candidate, []FormatIssue) {
	candidates := make([]Candidate, 0, len(raw))
	var issues []FormatIssue

	for i, elem := range raw {
		record, ok := asRecord(elem)
		if !ok {
			candidates = append(candidates, placeholder(i, totalLines))
			issues = append(issues, FormatIssue{
				Index:  i,
				Reason: fmt.Sprintf("unrecognized candidate shape %T", elem),
			})
			continue
		}

		c := Candidate{
			Label:     labelOf(record, i),
			Title:     stringField(record, "title"),
			IsContent: isContent(record),
		}

		start, startOK := intField(record, "start_line", "start", "startLine")
		end, endOK := intField(record, "end_line", "end", "endLine")
		if !startOK || !endOK {
			// A defaulted full-document range is a strong wrong-boundary
			// signal; flag it so the caller can weigh the proposal.
			if !startOK {
				start = 1
			}
			if !endOK {
				end = totalLines
			}
			issues = append(issues, FormatIssue{
				Index:  i,
				Reason: fmt.Sprintf("line range defaulted to [%d-%d]", start, end),
			})
		}

		if start < 1 {
			start = 1
		}
		if end > totalLines {
			end = totalLines
		}
		c.StartLine = start
		c.EndLine = end

		candidates = append(candidates, c)
	}

	return candidates, issues
}

func placeholder(index, totalLines int) Candidate {
	return Candidate{
		Label:     fmt.Sprintf("%02d", index),
		Title:     fmt.Sprintf("Chapter %d", index+1),
		StartLine: 1,
		EndLine:   totalLines,
		IsContent: true,
	}
}

// asRecord accepts a map directly or a string that itself encodes a
// JSON object.
func asRecord(elem any) (map[string]any, bool) {
	switch v := elem.(type) {
	case map[string]any:
		return v, true
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m, true
		}
	}
	return nil, false
}

func labelOf(record map[string]any, index int) string {
	if s := stringField(record, "number", "label"); s != "" {
		return s
	}
	// A filename like "03_The_Journey.txt" carries the label prefix.
	if name := stringField(record, "filename", "name"); name != "" {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		if idx := strings.IndexByte(base, '_'); idx > 0 {
			return base[:idx]
		}
		return base
	}
	return fmt.Sprintf("%02d", index)
}

func isContent(record map[string]any) bool {
	if v, ok := record["is_non_content"]; ok {
		if b, ok := v.(bool); ok && b {
			return false
		}
	}
	if v, ok := record["is_content"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return true
}

func stringField(record map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := record[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// intField tries each key in order and coerces the first present value
// to an int. Numeric strings are accepted.
func intField(record map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return i, true
			}
		}
		return 0, false
	}
	return 0, false
}

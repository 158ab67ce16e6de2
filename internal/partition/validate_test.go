package partition

import "testing"

func seg(id string, start, end int, isContent bool) Segment {
	return Segment{ID: id, Title: id, StartLine: start, EndLine: end, IsContent: isContent}
}

func TestValidate_CleanPartition(t *testing.T) {
	doc := docOfLines(100)
	segments := []Segment{
		seg("01", 1, 30, true),
		seg("NC01", 31, 40, false),
		seg("02", 41, 100, true),
	}
	if v := Validate(doc, segments); len(v) != 0 {
		t.Errorf("expected clean partition, got %v", v)
	}
}

func TestValidate_DetectsGap(t *testing.T) {
	doc := docOfLines(100)
	segments := []Segment{
		seg("01", 1, 30, true),
		seg("02", 41, 100, true),
	}
	violations := Validate(doc, segments)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	v := violations[0]
	if v.Code != CodeGap || v.Start != 31 || v.End != 40 {
		t.Errorf("violation = %+v, want gap [31-40]", v)
	}
}

func TestValidate_DetectsOverlap(t *testing.T) {
	doc := docOfLines(100)
	segments := []Segment{
		seg("01", 1, 50, true),
		seg("02", 40, 100, true),
	}
	violations := Validate(doc, segments)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0].Code != CodeOverlap {
		t.Errorf("violation = %+v, want overlap", violations[0])
	}
}

func TestValidate_DetectsTrailingGap(t *testing.T) {
	doc := docOfLines(100)
	violations := Validate(doc, []Segment{seg("01", 1, 90, true)})
	if len(violations) != 1 || violations[0].Code != CodeGap {
		t.Fatalf("expected trailing gap violation, got %v", violations)
	}
	if violations[0].Start != 91 || violations[0].End != 100 {
		t.Errorf("gap range [%d-%d], want [91-100]", violations[0].Start, violations[0].End)
	}
}

func TestValidate_FullSliceDetection(t *testing.T) {
	doc := docOfLines(100)
	// Second segment re-slices the entire document: overlap plus the
	// full-slice symptom.
	segments := []Segment{
		seg("01", 1, 100, true),
		seg("02", 1, 100, true),
	}
	violations := Validate(doc, segments)
	codes := map[string]bool{}
	for _, v := range violations {
		codes[v.Code] = true
	}
	if !codes[CodeFullSlice] {
		t.Errorf("expected full_slice among violations, got %v", violations)
	}
}

func TestValidate_SoleSegmentMaySpanDocument(t *testing.T) {
	doc := docOfLines(100)
	if v := Validate(doc, []Segment{seg("01", 1, 100, true)}); len(v) != 0 {
		t.Errorf("sole full-span segment should validate, got %v", v)
	}
}

func TestValidate_EmptyPartition(t *testing.T) {
	doc := docOfLines(10)
	violations := Validate(doc, nil)
	if len(violations) != 1 || violations[0].Code != CodeGap {
		t.Fatalf("expected single gap violation for empty partition, got %v", violations)
	}
}

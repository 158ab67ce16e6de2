package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mgreenly/bookdigest/internal/config"
	"github.com/mgreenly/bookdigest/internal/document"
	"github.com/mgreenly/bookdigest/internal/llm"
	"github.com/mgreenly/bookdigest/internal/partition"
)

type fakeProposer struct {
	proposals  [][]any
	proposeErr error

	proposeCalls int
	repairCalls  int
}

func (f *fakeProposer) Propose(ctx context.Context, doc *document.Document, markers []partition.Marker) ([]any, error) {
	f.proposeCalls++
	if f.proposeErr != nil {
		return nil, f.proposeErr
	}
	return f.proposals[0], nil
}

func (f *fakeProposer) Repair(ctx context.Context, prior []partition.Candidate, violations []partition.Violation, totalLines int) ([]any, error) {
	f.repairCalls++
	idx := f.repairCalls
	if idx >= len(f.proposals) {
		idx = len(f.proposals) - 1
	}
	return f.proposals[idx], nil
}

type fakeSummarizer struct {
	mu    sync.Mutex
	calls []llm.SegmentText
	prevs []string
	err   error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, seg llm.SegmentText, prevSummary string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, seg)
	f.prevs = append(f.prevs, prevSummary)
	return "condensed " + seg.ID, nil
}

func testConfig() config.Config {
	return config.Config{
		LLMModel:            "test-model",
		MaxProposalAttempts: 3,
		FallbackParts:       10,
		MaxWordsPerChunk:    7000,
		WorkerCount:         1,
		MaxQueueSize:        4,
		JobTTL:              time.Hour,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bookLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("alpha beta gamma line %d.", i+1)
	}
	return strings.Join(lines, "\n")
}

func makeJob(filename, content string) *Job {
	now := time.Now()
	job := &Job{
		ID:        "job-test",
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData([]byte(content))
	return job
}

func chapter(number, title string, start, end int) map[string]any {
	return map[string]any{
		"number":     number,
		"title":      title,
		"start_line": float64(start),
		"end_line":   float64(end),
	}
}

func TestWorker_HappyPath(t *testing.T) {
	fp := &fakeProposer{proposals: [][]any{{
		chapter("01", "One", 1, 30),
		chapter("02", "Two", 31, 60),
	}}}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Title != "book" {
		t.Errorf("title = %q, want filename-derived %q", snap.Title, "book")
	}
	if snap.Progress.TotalSegments != 2 || snap.Progress.SegmentsSummarized != 2 {
		t.Errorf("progress = %+v, want 2/2 segments", snap.Progress)
	}
	if snap.Progress.UsedFallback {
		t.Error("fallback should not trigger for a valid proposal")
	}

	sections, md, html := job.Artifacts()
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if !strings.Contains(md, "condensed 01") || !strings.Contains(md, "condensed 02") {
		t.Errorf("markdown missing summaries:\n%s", md)
	}
	if !strings.Contains(html, "condensed 01") {
		t.Error("html missing summaries")
	}

	// The second segment must see the first condensation as context.
	if len(fs.prevs) != 2 || fs.prevs[0] != "" || fs.prevs[1] != "condensed 01" {
		t.Errorf("previous-summary fold wrong: %v", fs.prevs)
	}
}

func TestWorker_RepairsBadProposal(t *testing.T) {
	fp := &fakeProposer{proposals: [][]any{
		{chapter("01", "A", 1, 60), chapter("02", "B", 1, 60)},
		{chapter("01", "A", 1, 30), chapter("02", "B", 31, 60)},
	}}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if fp.repairCalls != 1 {
		t.Errorf("repair calls = %d, want 1", fp.repairCalls)
	}
	if snap.Progress.UsedFallback {
		t.Error("repaired proposal should avoid the fallback")
	}
	if snap.Progress.TotalSegments != 2 {
		t.Errorf("segments = %d, want 2", snap.Progress.TotalSegments)
	}
}

func TestWorker_FallbackOnProposerError(t *testing.T) {
	fp := &fakeProposer{proposeErr: fmt.Errorf("model unavailable")}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if !snap.Progress.UsedFallback {
		t.Error("expected fallback partition")
	}
	if snap.Progress.TotalSegments != 10 {
		t.Errorf("segments = %d, want 10 fallback parts", snap.Progress.TotalSegments)
	}
}

func TestWorker_FallbackAfterAttemptsExhausted(t *testing.T) {
	bad := []any{chapter("01", "A", 1, 60), chapter("02", "B", 1, 60)}
	fp := &fakeProposer{proposals: [][]any{bad, bad, bad}}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if !snap.Progress.UsedFallback {
		t.Error("expected fallback after exhausting repair attempts")
	}
	// Three attempts consume the initial proposal plus two repairs.
	if fp.repairCalls != 2 {
		t.Errorf("repair calls = %d, want 2", fp.repairCalls)
	}
}

func TestWorker_SplitsOversizedSegments(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWordsPerChunk = 40

	fp := &fakeProposer{proposals: [][]any{{chapter("01", "Long", 1, 60)}}}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), cfg)

	// 60 lines of 4 words each is well past the 40-word budget.
	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if len(fs.calls) < 2 {
		t.Fatalf("expected multiple chunk summaries, got %d calls", len(fs.calls))
	}
	if !strings.HasPrefix(fs.calls[0].ID, "01.") {
		t.Errorf("chunk id = %q, want part-numbered id", fs.calls[0].ID)
	}

	sections, _, _ := job.Artifacts()
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Summary, "condensed 01.01") {
		t.Errorf("joined summary missing chunk parts: %q", sections[0].Summary)
	}
}

func TestWorker_StatusPollsDuringProcessing(t *testing.T) {
	// Clients poll job status while a worker is mid-run; every field the
	// worker touches must go through the job mutex.
	fp := &fakeProposer{proposals: [][]any{{
		chapter("01", "One", 1, 30),
		chapter("02", "Two", 31, 60),
	}}}
	fs := &fakeSummarizer{}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Process(context.Background(), job)
	}()

	for polls := 0; ; polls++ {
		snap := job.Snapshot()
		if snap.Status == StatusFailed {
			t.Fatalf("job failed mid-poll: %v", snap.Progress.Errors)
		}
		select {
		case <-done:
			final := job.Snapshot()
			if final.Status != StatusCompleted {
				t.Fatalf("status = %q (errors: %v)", final.Status, final.Progress.Errors)
			}
			if final.Title != "book" {
				t.Errorf("title = %q, want filename-derived %q", final.Title, "book")
			}
			return
		default:
		}
	}
}

func TestWorker_SummarizerFailureFailsJob(t *testing.T) {
	fp := &fakeProposer{proposals: [][]any{{chapter("01", "One", 1, 60)}}}
	fs := &fakeSummarizer{err: fmt.Errorf("backend down")}
	w := NewWorker(fp, fs, testLogger(), testConfig())

	job := makeJob("book.txt", bookLines(60))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected recorded error")
	}
}

func TestWorker_UnsupportedFile(t *testing.T) {
	w := NewWorker(&fakeProposer{}, &fakeSummarizer{}, testLogger(), testConfig())
	job := makeJob("book.xyz", "whatever")
	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Fatalf("status = %q, want failed", job.Snapshot().Status)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, &fakeProposer{}, &fakeSummarizer{}, testLogger())
	// Workers intentionally not started; the queue fills immediately.

	first := makeJob("a.txt", "text")
	first.ID = "first"
	if err := o.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second := makeJob("b.txt", "text")
	second.ID = "second"
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue-full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Error("rejected job should be marked failed")
	}
	if o.GetJob("first") == nil || o.GetJob("second") == nil {
		t.Error("both jobs should be registered in the store")
	}
}

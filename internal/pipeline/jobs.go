package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/mgreenly/bookdigest/internal/render"
)

// JobStatus represents the state of a book digest job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusParsing     JobStatus = "parsing"
	StatusSegmenting  JobStatus = "segmenting"
	StatusSummarizing JobStatus = "summarizing"
	StatusRendering   JobStatus = "rendering"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the state of a single book run.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	sections []render.Section
	markdown string
	html     string
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalSegments      int      `json:"total_segments"`
	SegmentsSummarized int      `json:"segments_summarized"`
	DocumentLines      int      `json:"document_lines"`
	DocumentWords      int      `json:"document_words"`
	UsedFallback       bool     `json:"used_fallback"`
	Errors             []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetDocumentStats records the size of the parsed document.
func (j *Job) SetDocumentStats(lines, words int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocumentLines = lines
	j.Progress.DocumentWords = words
	j.UpdatedAt = time.Now()
}

// SetTotalSegments records how many segments the partition produced.
func (j *Job) SetTotalSegments(n int, usedFallback bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSegments = n
	j.Progress.UsedFallback = usedFallback
	j.UpdatedAt = time.Now()
}

// IncrSegmentsSummarized atomically bumps the summarized counter.
func (j *Job) IncrSegmentsSummarized() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SegmentsSummarized++
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the normalized document text.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// DefaultTitle fills the title from fallback when the upload did not
// carry one, and returns the title in effect.
func (j *Job) DefaultTitle(fallback string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = fallback
	}
	return j.Title
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetArtifacts stores the finished digest. Raw upload bytes are dropped
// at the same time since nothing needs them afterwards.
func (j *Job) SetArtifacts(sections []render.Section, markdown, html string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sections = sections
	j.markdown = markdown
	j.html = html
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Artifacts returns the digest outputs, or empty values while the job
// is still running.
func (j *Job) Artifacts() (sections []render.Section, markdown, html string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sections, j.markdown, j.html
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	snap := JobSnapshot{
		ID:       j.ID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: j.Progress,
	}
	snap.Progress.Errors = errs
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mgreenly/bookdigest/internal/chunker"
	"github.com/mgreenly/bookdigest/internal/config"
	"github.com/mgreenly/bookdigest/internal/document"
	"github.com/mgreenly/bookdigest/internal/llm"
	"github.com/mgreenly/bookdigest/internal/parser"
	"github.com/mgreenly/bookdigest/internal/partition"
	"github.com/mgreenly/bookdigest/internal/render"
)

// BoundaryProposer supplies chapter boundary proposals. Responses are
// raw decoded JSON elements; shape repair happens in partition.
type BoundaryProposer interface {
	Propose(ctx context.Context, doc *document.Document, markers []partition.Marker) ([]any, error)
	Repair(ctx context.Context, prior []partition.Candidate, violations []partition.Violation, totalLines int) ([]any, error)
}

// Summarizer condenses one segment, given the previous condensation as
// context.
type Summarizer interface {
	Summarize(ctx context.Context, seg llm.SegmentText, prevSummary string) (string, error)
}

// Worker processes a single book job end to end.
type Worker struct {
	proposer   BoundaryProposer
	summarizer Summarizer
	log        *slog.Logger
	cfg        config.Config
}

func NewWorker(proposer BoundaryProposer, summarizer Summarizer, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		proposer:   proposer,
		summarizer: summarizer,
		log:        log,
		cfg:        cfg,
	}
}

// Process runs the full digest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parse(job)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	docWords := chunker.CountWords(doc.Text())
	job.SetDocumentStats(doc.TotalLines(), docWords)
	log.Info("parsed document", "lines", doc.TotalLines(), "words", docWords)

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	segments, usedFallback := w.segment(ctx, log, doc)
	job.SetTotalSegments(len(segments), usedFallback)
	log.Info("partitioned document", "segments", len(segments), "fallback", usedFallback)

	// Phase 3: Summarize in order, folding each condensation into the
	// next segment's context.
	job.SetStatus(StatusSummarizing, "summarizing")
	sections := make([]render.Section, 0, len(segments))
	prevSummary := ""
	coveredWords := 0
	for _, seg := range segments {
		text := doc.SliceLines(seg.StartLine, seg.EndLine)
		words := chunker.CountWords(text)
		coveredWords += words

		summary, err := w.summarizeSegment(ctx, seg, text, prevSummary)
		if err != nil {
			log.Error("summarize failed", "segment", seg.ID, "error", err)
			job.AddError(fmt.Sprintf("segment %s: %s", seg.ID, err))
			job.SetStatus(StatusFailed, "summarizing")
			return
		}
		if seg.IsContent {
			prevSummary = summary
		}
		job.IncrSegmentsSummarized()

		sections = append(sections, render.Section{
			ID:        seg.ID,
			Title:     seg.Title,
			StartLine: seg.StartLine,
			EndLine:   seg.EndLine,
			IsContent: seg.IsContent,
			WordCount: words,
			Summary:   summary,
		})
	}

	// Segments tile the document, so their word counts must add back
	// up to the whole.
	if coveredWords != docWords {
		log.Warn("word coverage mismatch", "document_words", docWords, "covered_words", coveredWords)
		job.AddError(fmt.Sprintf("word coverage mismatch: document %d, segments %d", docWords, coveredWords))
	}

	// Phase 4: Render
	job.SetStatus(StatusRendering, "rendering")
	digest := render.Digest{
		BookTitle:   job.DefaultTitle(""),
		Model:       w.cfg.LLMModel,
		GeneratedAt: job.CreatedAt,
		Sections:    sections,
	}
	markdown := render.Markdown(digest)
	html, err := render.HTML(digest)
	if err != nil {
		log.Error("render failed", "error", err)
		job.AddError(fmt.Sprintf("render: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return
	}

	job.SetArtifacts(sections, markdown, html)
	job.SetStatus(StatusCompleted, "done")
	log.Info("digest complete", "sections", len(sections))
}

// parse turns the uploaded bytes into a normalized line-addressable
// document and fills in the job title.
func (w *Worker) parse(job *Job) (*document.Document, error) {
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.cfg.PDFFallbackPdftotext
	}

	text, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	text = document.Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("no extractable text")
	}

	job.SetContentHash(ContentHashHex([]byte(text)))
	base := filepath.Base(job.Filename)
	job.DefaultTitle(strings.TrimSuffix(base, filepath.Ext(base)))

	return document.New(text), nil
}

// segment obtains a validated partition: propose, reconcile, validate,
// repair up to the attempt budget, then fall back to fixed-size parts.
// The second return reports whether the fallback was used.
func (w *Worker) segment(ctx context.Context, log *slog.Logger, doc *document.Document) ([]partition.Segment, bool) {
	markers := partition.ScanHeadings(doc)
	log.Info("scanned heading markers", "markers", len(markers))

	raw, err := w.proposer.Propose(ctx, doc, markers)
	for attempt := 1; attempt <= w.cfg.MaxProposalAttempts && err == nil; attempt++ {
		candidates, issues := partition.Normalize(raw, doc.TotalLines())
		for _, issue := range issues {
			log.Warn("malformed boundary entry", "index", issue.Index, "reason", issue.Reason)
		}

		var violations []partition.Violation
		segs, rerr := partition.Reconcile(doc, candidates)
		if rerr == nil {
			violations = partition.Validate(doc, segs)
			if len(violations) == 0 {
				return segs, false
			}
		} else {
			var covErr *partition.CoverageError
			if !errors.As(rerr, &covErr) {
				err = rerr
				break
			}
			violations = covErr.Violations
		}

		log.Warn("boundary proposal rejected", "attempt", attempt, "violations", len(violations))
		if attempt == w.cfg.MaxProposalAttempts {
			break
		}
		raw, err = w.proposer.Repair(ctx, candidates, violations, doc.TotalLines())
	}
	if err != nil {
		log.Warn("boundary proposal unusable", "error", err)
	}

	log.Info("using fixed-size fallback partition", "parts", w.cfg.FallbackParts)
	return partition.FallbackPartition(doc, w.cfg.FallbackParts), true
}

// summarizeSegment condenses one segment, splitting it at sentence
// boundaries first when it exceeds the word budget.
func (w *Worker) summarizeSegment(ctx context.Context, seg partition.Segment, text, prevSummary string) (string, error) {
	if chunker.CountWords(text) <= w.cfg.MaxWordsPerChunk {
		return w.summarizer.Summarize(ctx, llm.SegmentText{ID: seg.ID, Title: seg.Title, Text: text}, prevSummary)
	}

	chunks := chunker.SplitAtSentences(text, w.cfg.MaxWordsPerChunk)
	parts := make([]string, 0, len(chunks))
	prev := prevSummary
	for i, chunk := range chunks {
		out, err := w.summarizer.Summarize(ctx, llm.SegmentText{
			ID:    fmt.Sprintf("%s.%02d", seg.ID, i+1),
			Title: fmt.Sprintf("%s (part %d of %d)", seg.Title, i+1, len(chunks)),
			Text:  chunk,
		}, prev)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
		prev = out
	}
	return strings.Join(parts, "\n\n"), nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
)

const summarizerSystem = `You are an expert ghost-reader. You rewrite book chapters as high-fidelity condensations: reading your output should feel like reading the original, with nothing memorable lost.

Principles:
- Direct immersion. State the content as the book does. Never write "the author discusses" or "this chapter covers". Keep the book's own tone.
- Argument plus evidence. Never leave a bare conclusion; follow every point with the specific anecdote, figure, or example the book uses to support it.
- Adaptive structure. Narrative chapters follow the timeline and keep dialogue highlights and dramatic turns. Argumentative chapters follow insight, proof, then advice. Science chapters keep the analogies and thought experiments.
- Figure-caption noise (scattered place names, coordinates, year labels with no connected prose) is illustration markup. Ignore it, and if a chapter is nothing else, say so in one line. Functional sections like a table of contents get a single sentence.

Write Markdown: bold key themes followed by flowing, detailed paragraphs. Use only the chapter title as a heading. No "Executive Summary" scaffolding.`

// SegmentText is one reconciled segment handed to the summarizer.
type SegmentText struct {
	ID    string
	Title string
	Text  string
}

// Summarizer condenses segments in order, folding each previous
// condensation in as context for the next.
type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, seg SegmentText, prevSummary string) (string, error) {
	var sb strings.Builder
	if prevSummary != "" {
		sb.WriteString("Condensation of the preceding section, for continuity:\n\n")
		sb.WriteString(prevSummary)
		sb.WriteString("\n\n---\n\n")
	}
	fmt.Fprintf(&sb, "Section %s: %s\n\n", seg.ID, seg.Title)
	sb.WriteString(seg.Text)

	out, err := s.client.Complete(ctx, summarizerSystem, sb.String())
	if err != nil {
		return "", fmt.Errorf("summarize section %s: %w", seg.ID, err)
	}
	return strings.TrimSpace(out), nil
}

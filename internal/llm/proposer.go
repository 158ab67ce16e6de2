package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mgreenly/bookdigest/internal/document"
	"github.com/mgreenly/bookdigest/internal/partition"
)

const proposerSystem = "You segment books into chapters by line number. Respond with JSON only, no commentary."

// Proposer asks the model for chapter boundaries. Responses come back
// as raw decoded JSON; shape repair happens downstream.
type Proposer struct {
	client *Client
}

func NewProposer(client *Client) *Proposer {
	return &Proposer{client: client}
}

// Propose maps scanned heading markers to chapter line ranges. With no
// markers to work from it falls back to sampled document previews.
func (p *Proposer) Propose(ctx context.Context, doc *document.Document, markers []partition.Marker) ([]any, error) {
	var prompt string
	if len(markers) > 0 {
		prompt = boundaryPrompt(markers, doc.TotalLines())
	} else {
		prompt = previewPrompt(doc)
	}

	text, err := p.client.Complete(ctx, proposerSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("propose boundaries: %w", err)
	}
	return decodeChapters(text)
}

// Repair sends the rejected proposal back with its violations and asks
// for a corrected set of boundaries.
func (p *Proposer) Repair(ctx context.Context, prior []partition.Candidate, violations []partition.Violation, totalLines int) ([]any, error) {
	text, err := p.client.Complete(ctx, proposerSystem, repairPrompt(prior, violations, totalLines))
	if err != nil {
		return nil, fmt.Errorf("repair boundaries: %w", err)
	}
	return decodeChapters(text)
}

// decodeChapters accepts either {"chapters": [...]} or a bare array.
func decodeChapters(text string) ([]any, error) {
	text = stripCodeBlock(text)

	var envelope struct {
		Chapters []any `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && len(envelope.Chapters) > 0 {
		return envelope.Chapters, nil
	}

	var arr []any
	if err := json.Unmarshal([]byte(text), &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}
	return nil, fmt.Errorf("parse chapters json (raw: %s)", truncate(text, 200))
}

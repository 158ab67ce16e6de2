package render

import (
	"fmt"
	"strings"
	"time"
)

// Section is one summarized segment of the digest, in document order.
type Section struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	IsContent bool   `json:"is_content"`
	WordCount int    `json:"word_count"`
	Summary   string `json:"summary"`
}

// Digest is the assembled output of a completed book run.
type Digest struct {
	BookTitle   string    `json:"book_title"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Markdown renders the digest as a single Markdown document: a cover
// block followed by each section's condensation.
func Markdown(d Digest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", d.BookTitle)
	fmt.Fprintf(&sb, "- Model: %s\n", d.Model)
	fmt.Fprintf(&sb, "- Generated: %s\n", d.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&sb, "- Sections: %d\n", len(d.Sections))

	for _, s := range d.Sections {
		sb.WriteString("\n---\n\n")
		summary := strings.TrimSpace(s.Summary)
		if summary == "" {
			continue
		}
		// Condensations carry their own heading; add one only when
		// the model left it out.
		if !strings.HasPrefix(summary, "#") {
			fmt.Fprintf(&sb, "## %s\n\n", s.Title)
		}
		sb.WriteString(summary)
		sb.WriteString("\n")
	}

	return sb.String()
}

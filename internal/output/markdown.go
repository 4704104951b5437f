package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter outputs RunResults as human-readable Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders each result as a short Markdown block.
func (f *MarkdownFormatter) Format(results ...*RunResult) ([]byte, error) {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		writeResult(&b, r)
	}
	return []byte(b.String()), nil
}

func writeResult(b *strings.Builder, r *RunResult) {
	name := r.Component
	if name == "" {
		name = r.Input
	}
	fmt.Fprintf(b, "## %s\n\n", name)
	fmt.Fprintf(b, "- **Run**: `%s`\n", r.RunID)
	fmt.Fprintf(b, "- **Input**: `%s`\n", r.Input)
	fmt.Fprintf(b, "- **Status**: %s\n", r.Status)

	if r.Error != "" {
		if r.FailedStage != "" {
			fmt.Fprintf(b, "- **Failed stage**: %s\n", r.FailedStage)
		}
		fmt.Fprintf(b, "- **Error**: %s\n", r.Error)
		for _, h := range r.Hints {
			fmt.Fprintf(b, "- **Hint**: %s\n", h)
		}
	} else if r.ReadmeURL != "" {
		fmt.Fprintf(b, "- **README**: %s\n", r.ReadmeURL)
	}

	if len(r.Stages) > 0 {
		b.WriteString("\n| stage | duration | error |\n|---|---|---|\n")
		for _, s := range r.Stages {
			fmt.Fprintf(b, "| %s | %s | %s |\n", s.Name, ms(s.DurationMs), s.Error)
		}
	}

	fmt.Fprintf(b, "\n*Completed in %s*\n", ms(r.DurationMs))
}

func ms(n int64) time.Duration {
	return (time.Duration(n) * time.Millisecond).Round(100 * time.Millisecond)
}

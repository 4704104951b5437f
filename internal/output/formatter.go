// Package output formats run results for the command line.
package output

import "github.com/julianshen/componentdoc/internal/store"

// RunResult is the outcome of one documentation run.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Input       string        `json:"input"`
	Component   string        `json:"component,omitempty"`
	Status      string        `json:"status"`
	ReadmeURL   string        `json:"readme_url,omitempty"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Hints       []string      `json:"hints,omitempty"`
	DurationMs  int64         `json:"duration_ms"`
	Stages      []StageTiming `json:"stages,omitempty"`
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// FromRecord converts a stored history record.
func FromRecord(rec store.RunRecord) *RunResult {
	return &RunResult{
		RunID:       rec.ID,
		Input:       rec.Input,
		Component:   rec.Component,
		Status:      rec.Status,
		ReadmeURL:   rec.ReadmeURL,
		FailedStage: rec.FailedStage,
		Error:       rec.Error,
		DurationMs:  rec.Duration().Milliseconds(),
	}
}

// Formatter formats one or more RunResults into output bytes.
type Formatter interface {
	Format(results ...*RunResult) ([]byte, error)
}

// New returns the formatter for name: "json" or "markdown".
func New(name string) Formatter {
	if name == "json" {
		return NewJSONFormatter()
	}
	return NewMarkdownFormatter()
}

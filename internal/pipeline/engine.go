// Package pipeline runs a fixed, linear list of stages over one
// accumulating, write-once state per run.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/logger"
)

// Field names one value in the pipeline state.
type Field string

// Record maps fields to values. Stage inputs and outputs are Records.
type Record map[Field]any

// Stage is one unit of the pipeline with a declared field contract. Run
// receives exactly the Reads fields and must return exactly the Writes
// fields.
type Stage struct {
	Name   string
	Reads  []Field
	Writes []Field
	Run    func(ctx context.Context, rc *RunContext, in Record) (Record, error)
}

// RunContext carries per-run services into stages.
type RunContext struct {
	RunID uuid.UUID
	Log   *zap.SugaredLogger

	cleanups []func() error
}

// Defer registers fn to run when the run ends, whatever the outcome.
// Cleanups run in reverse registration order.
func (rc *RunContext) Defer(fn func() error) {
	rc.cleanups = append(rc.cleanups, fn)
}

// StageReport records how one stage went.
type StageReport struct {
	Stage    string
	Duration time.Duration
	Err      error
}

// Run is the outcome of one Engine.Run call.
type Run struct {
	ID      uuid.UUID
	Status  Status
	Stage   string // current stage while running, failing stage once failed
	Err     error
	Reports []StageReport

	state Record
}

// Get returns a committed field.
func (r *Run) Get(f Field) (any, bool) {
	v, ok := r.state[f]
	return v, ok
}

// String returns a committed string field, or "".
func (r *Run) String(f Field) string {
	s, _ := r.state[f].(string)
	return s
}

func (r *Run) transition(to Status, stage string) error {
	if !isAllowedTransition(r.Status, to) {
		return errors.Newf("invalid run transition %s -> %s", r.Status, to)
	}
	r.Status = to
	r.Stage = stage
	return nil
}

// Engine is an immutable, validated stage list. One Engine serves any
// number of concurrent runs; each run owns its state.
type Engine struct {
	inputs []Field
	stages []Stage
	log    *zap.SugaredLogger
}

// New validates the stage list against the initial input fields. Every
// read must be an input or written by an earlier stage, and no field may
// be written twice.
func New(inputs []Field, stages []Stage, log *zap.SugaredLogger) (*Engine, error) {
	if len(stages) == 0 {
		return nil, errors.Contract("pipeline has no stages")
	}

	available := make(map[Field]string, len(inputs))
	for _, f := range inputs {
		if _, dup := available[f]; dup {
			return nil, errors.Contract("input field %q declared twice", f)
		}
		available[f] = "input"
	}

	names := make(map[string]bool, len(stages))
	for _, s := range stages {
		if s.Name == "" {
			return nil, errors.Contract("stage without a name")
		}
		if names[s.Name] {
			return nil, errors.Contract("stage %q declared twice", s.Name)
		}
		names[s.Name] = true
		if s.Run == nil {
			return nil, errors.Contract("stage %q has no run function", s.Name)
		}
		for _, f := range s.Reads {
			if _, ok := available[f]; !ok {
				return nil, errors.Contract("stage %q reads %q before any stage writes it", s.Name, f)
			}
		}
		for _, f := range s.Writes {
			if owner, ok := available[f]; ok {
				return nil, errors.Contract("stage %q writes %q already written by %s", s.Name, f, owner)
			}
			available[f] = s.Name
		}
	}

	return &Engine{
		inputs: append([]Field(nil), inputs...),
		stages: append([]Stage(nil), stages...),
		log:    logger.OrNop(log),
	}, nil
}

// StageNames lists the stages in execution order.
func (e *Engine) StageNames() []string {
	out := make([]string, len(e.stages))
	for i, s := range e.stages {
		out[i] = s.Name
	}
	return out
}

// Run executes every stage in order. The first failing stage aborts the
// run; its partial output is discarded and no later stage runs. Cleanups
// registered through RunContext.Defer run on every exit path. The
// returned error is a *StageError for stage failures.
func (e *Engine) Run(ctx context.Context, input Record) (*Run, error) {
	run := &Run{ID: uuid.New(), Status: StatusPending, state: Record{}}
	rc := &RunContext{
		RunID: run.ID,
		Log:   e.log.With(logger.FieldRunID, run.ID.String()),
	}
	defer e.cleanup(rc)

	if err := checkFields(input, e.inputs); err != nil {
		_ = run.transition(StatusFailed, "")
		run.Err = errors.Wrap(err, "pipeline input")
		return run, run.Err
	}
	for f, v := range input {
		run.state[f] = v
	}

	for _, s := range e.stages {
		if err := run.transition(StatusRunning, s.Name); err != nil {
			return run, err
		}
		rc.Log.Debugw("stage started", logger.FieldStage, s.Name)

		start := time.Now()
		out, err := e.runStage(ctx, rc, s, run.state)
		if err == nil {
			err = checkFields(out, s.Writes)
		}
		report := StageReport{Stage: s.Name, Duration: time.Since(start), Err: err}
		run.Reports = append(run.Reports, report)

		if err != nil {
			_ = run.transition(StatusFailed, s.Name)
			run.Err = &StageError{Stage: s.Name, Err: err}
			rc.Log.Warnw("stage failed",
				logger.FieldStage, s.Name,
				logger.FieldDuration, report.Duration.Milliseconds(),
				logger.FieldError, err,
			)
			return run, run.Err
		}

		for _, f := range s.Writes {
			run.state[f] = out[f]
		}
		rc.Log.Infow("stage completed",
			logger.FieldStage, s.Name,
			logger.FieldDuration, report.Duration.Milliseconds(),
		)
	}

	if err := run.transition(StatusCompleted, ""); err != nil {
		return run, err
	}
	return run, nil
}

// runStage hands the stage a private copy of its declared reads and turns
// a panic into an error so cleanups still run.
func (e *Engine) runStage(ctx context.Context, rc *RunContext, s Stage, state Record) (out Record, err error) {
	in := make(Record, len(s.Reads))
	for _, f := range s.Reads {
		in[f] = state[f]
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.Newf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Run(ctx, rc, in)
}

func (e *Engine) cleanup(rc *RunContext) {
	for i := len(rc.cleanups) - 1; i >= 0; i-- {
		if err := rc.cleanups[i](); err != nil {
			rc.Log.Warnw("cleanup failed", logger.FieldError, err)
		}
	}
	rc.cleanups = nil
}

// checkFields reports missing or undeclared fields in rec.
func checkFields(rec Record, want []Field) error {
	declared := make(map[Field]bool, len(want))
	var missing, extra []string
	for _, f := range want {
		declared[f] = true
		if _, ok := rec[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	for f := range rec {
		if !declared[f] {
			extra = append(extra, string(f))
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return errors.Contract("record mismatch: missing %v, undeclared %v", missing, extra)
}

// Describe renders the stage list with its contracts, one stage per line.
func (e *Engine) Describe() string {
	var b strings.Builder
	for i, s := range e.stages {
		fmt.Fprintf(&b, "%d. %s  reads %v  writes %v\n", i+1, s.Name, s.Reads, s.Writes)
	}
	return b.String()
}

package componentdoc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/archive"
	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/document"
	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/locator"
	"github.com/julianshen/componentdoc/internal/logger"
	"github.com/julianshen/componentdoc/internal/pipeline"
	"github.com/julianshen/componentdoc/internal/reasoning"
	"github.com/julianshen/componentdoc/internal/storage"
	"github.com/julianshen/componentdoc/internal/store"
	"github.com/julianshen/componentdoc/internal/structure"
)

// Deps are the collaborators a Generator runs against.
type Deps struct {
	// Invoker answers the call-relationship and flow-diagram prompts.
	Invoker reasoning.Invoker
	// Store is optional; without it inputs stay local and READMEs are
	// written to the fallback directory.
	Store storage.Store
	// History is optional; when set every run is recorded.
	History *store.Store
	Log     *zap.SugaredLogger
}

// Result is the outcome of one run.
type Result struct {
	RunID         string
	Input         string
	ComponentName string
	ReadmeURL     string
	ReadmeContent string
	Status        pipeline.Status
	FailedStage   string
	Stages        []pipeline.StageReport
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Generator runs the documentation pipeline. It is safe for concurrent
// use; every Run owns its state and scratch space.
type Generator struct {
	engine  *pipeline.Engine
	history *store.Store
	log     *zap.SugaredLogger
}

// NewGenerator validates cfg and builds the stage list once.
func NewGenerator(cfg *config.Config, deps Deps) (*Generator, error) {
	if deps.Invoker == nil {
		return nil, errors.New("a reasoning invoker is required")
	}
	log := logger.OrNop(deps.Log)

	format, err := document.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	callCfg, err := config.ResolveStageConfig(config.StageCallRelation, cfg.Stages.CallRelation, cfg.Reasoning.Model)
	if err != nil {
		return nil, errors.Wrap(err, "call relation prompt")
	}
	flowCfg, err := config.ResolveStageConfig(config.StageFlowDiagram, cfg.Stages.FlowDiagram, cfg.Reasoning.Model)
	if err != nil {
		return nil, errors.Wrap(err, "flow diagram prompt")
	}

	var uploader locator.Uploader
	if deps.Store != nil && cfg.Storage.UploadInputs {
		uploader = deps.Store
	}

	stages := []pipeline.Stage{
		pathResolverStage(locator.NewResolver(uploader, cfg.Storage.PresignExpiry, log)),
		archiveExtractorStage(archive.NewExtractor(archive.Config{
			DownloadTimeout: cfg.Extract.DownloadTimeout,
			ScratchRoot:     cfg.Extract.ScratchRoot,
		}, log)),
		structureStage(structure.NewAnalyzer(cfg.Structure.MaxDepth)),
		functionsStage(),
		callRelationStage(deps.Invoker, callCfg),
		flowDiagramStage(deps.Invoker, flowCfg),
		assemblerStage(document.Renderer{Format: format}),
		publisherStage(document.NewPublisher(deps.Store, cfg.Storage.PresignExpiry, cfg.Output.FallbackDir, log), format),
	}

	engine, err := pipeline.New([]pipeline.Field{FieldComponentPath}, stages, log)
	if err != nil {
		return nil, err
	}
	return &Generator{engine: engine, history: deps.History, log: log}, nil
}

// Describe lists the stages and their field contracts.
func (g *Generator) Describe() string {
	return g.engine.Describe()
}

// Run documents the component at componentPath. A fatal error is a
// *pipeline.StageError naming the failing stage; the Result is returned
// in both cases.
func (g *Generator) Run(ctx context.Context, componentPath string) (*Result, error) {
	start := time.Now()
	run, err := g.engine.Run(ctx, pipeline.Record{FieldComponentPath: componentPath})

	res := &Result{
		RunID:         run.ID.String(),
		Input:         componentPath,
		ComponentName: run.String(FieldComponentName),
		ReadmeURL:     run.String(FieldReadmeURL),
		ReadmeContent: run.String(FieldReadmeContent),
		Status:        run.Status,
		Stages:        run.Reports,
		StartedAt:     start,
		FinishedAt:    time.Now(),
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		res.FailedStage = se.Stage
	}

	g.record(ctx, res, err)
	if err != nil {
		return res, err
	}
	g.log.Infow("README published",
		logger.FieldRunID, res.RunID,
		logger.FieldComponent, res.ComponentName,
		logger.FieldURL, res.ReadmeURL,
		logger.FieldDuration, res.Duration().Milliseconds(),
	)
	return res, nil
}

func (g *Generator) record(ctx context.Context, res *Result, runErr error) {
	if g.history == nil {
		return
	}
	rec := store.RunRecord{
		ID:          res.RunID,
		Input:       res.Input,
		Component:   res.ComponentName,
		Status:      res.Status.String(),
		FailedStage: res.FailedStage,
		ReadmeURL:   res.ReadmeURL,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := g.history.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		g.log.Warnw("recording run history failed", logger.FieldRunID, res.RunID, logger.FieldError, err)
	}
}

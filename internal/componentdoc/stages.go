package componentdoc

import (
	"context"

	"github.com/julianshen/componentdoc/internal/archive"
	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/document"
	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/headers"
	"github.com/julianshen/componentdoc/internal/locator"
	"github.com/julianshen/componentdoc/internal/logger"
	"github.com/julianshen/componentdoc/internal/pipeline"
	"github.com/julianshen/componentdoc/internal/reasoning"
	"github.com/julianshen/componentdoc/internal/structure"
)

type componentPathRecord struct {
	ComponentPath string `field:"component_path"`
}

type locatorRecord struct {
	Locator locator.Locator `field:"zip_file_path"`
}

type extractedRecord struct {
	ExtractedPath string `field:"extracted_path"`
	ComponentName string `field:"component_name"`
}

type extractedPathRecord struct {
	ExtractedPath string `field:"extracted_path"`
}

type folderStructureRecord struct {
	FolderStructure string `field:"folder_structure"`
}

type headerFunctionsRecord struct {
	HeaderFunctions string `field:"header_functions"`
}

type callRelationshipRecord struct {
	CallRelationship string `field:"call_relationship"`
}

type flowDiagramsRecord struct {
	FlowDiagrams string `field:"flow_diagrams"`
}

type assemblyRecord struct {
	ComponentName    string `field:"component_name"`
	FolderStructure  string `field:"folder_structure"`
	HeaderFunctions  string `field:"header_functions"`
	CallRelationship string `field:"call_relationship"`
	FlowDiagrams     string `field:"flow_diagrams"`
}

type readmeContentRecord struct {
	ReadmeContent string `field:"readme_content"`
}

type readmeURLRecord struct {
	ReadmeURL string `field:"readme_url"`
}

func pathResolverStage(r *locator.Resolver) pipeline.Stage {
	return pipeline.NewStage(StagePathResolver, func(ctx context.Context, _ *pipeline.RunContext, in componentPathRecord) (locatorRecord, error) {
		loc, err := r.Resolve(ctx, in.ComponentPath)
		if err != nil {
			return locatorRecord{}, err
		}
		return locatorRecord{Locator: loc}, nil
	})
}

// archiveExtractorStage registers the workspace for release when the run
// ends, whatever the outcome.
func archiveExtractorStage(x *archive.Extractor) pipeline.Stage {
	return pipeline.NewStage(StageArchiveExtractor, func(ctx context.Context, rc *pipeline.RunContext, in locatorRecord) (extractedRecord, error) {
		ws, err := x.Extract(ctx, in.Locator)
		if err != nil {
			return extractedRecord{}, err
		}
		rc.Defer(ws.Close)
		rc.Log.Debugw("component materialized",
			logger.FieldComponent, ws.ComponentName,
			logger.FieldPath, ws.Path,
		)
		return extractedRecord{ExtractedPath: ws.Path, ComponentName: ws.ComponentName}, nil
	})
}

func structureStage(a *structure.Analyzer) pipeline.Stage {
	return pipeline.NewStage(StageStructure, func(_ context.Context, _ *pipeline.RunContext, in extractedPathRecord) (folderStructureRecord, error) {
		summary, err := a.Summarize(in.ExtractedPath)
		if err != nil {
			return folderStructureRecord{}, err
		}
		return folderStructureRecord{FolderStructure: summary}, nil
	})
}

func functionsStage() pipeline.Stage {
	return pipeline.NewStage(StageFunctions, func(_ context.Context, _ *pipeline.RunContext, in extractedRecord) (headerFunctionsRecord, error) {
		catalog, err := headers.Extract(in.ExtractedPath, in.ComponentName)
		if err != nil {
			return headerFunctionsRecord{}, err
		}
		return headerFunctionsRecord{HeaderFunctions: catalog}, nil
	})
}

func callRelationStage(inv reasoning.Invoker, sc *config.StageConfig) pipeline.Stage {
	return pipeline.NewStage(StageCallRelation, func(ctx context.Context, _ *pipeline.RunContext, in extractedPathRecord) (callRelationshipRecord, error) {
		code, err := reasoning.CollectSources(in.ExtractedPath)
		if err != nil {
			return callRelationshipRecord{}, errors.Wrap(err, "collect sources")
		}
		out, err := invokeStage(ctx, inv, sc, map[string]string{"code_content": code})
		if err != nil {
			return callRelationshipRecord{}, err
		}
		return callRelationshipRecord{CallRelationship: out}, nil
	})
}

func flowDiagramStage(inv reasoning.Invoker, sc *config.StageConfig) pipeline.Stage {
	return pipeline.NewStage(StageFlowDiagram, func(ctx context.Context, _ *pipeline.RunContext, in callRelationshipRecord) (flowDiagramsRecord, error) {
		out, err := invokeStage(ctx, inv, sc, map[string]string{"call_relationship": in.CallRelationship})
		if err != nil {
			return flowDiagramsRecord{}, err
		}
		return flowDiagramsRecord{FlowDiagrams: out}, nil
	})
}

func invokeStage(ctx context.Context, inv reasoning.Invoker, sc *config.StageConfig, vars map[string]string) (string, error) {
	user, err := reasoning.RenderPrompt(sc.UserPromptTemplate, vars)
	if err != nil {
		return "", err
	}
	return inv.Invoke(ctx, sc.SystemPrompt, user, sc.Options)
}

func assemblerStage(r document.Renderer) pipeline.Stage {
	return pipeline.NewStage(StageAssembler, func(_ context.Context, _ *pipeline.RunContext, in assemblyRecord) (readmeContentRecord, error) {
		model := document.Assemble(document.Sections{
			ComponentName:    in.ComponentName,
			FolderStructure:  in.FolderStructure,
			HeaderFunctions:  in.HeaderFunctions,
			CallRelationship: in.CallRelationship,
			FlowDiagrams:     in.FlowDiagrams,
		})
		content, err := r.Render(model)
		if err != nil {
			return readmeContentRecord{}, err
		}
		return readmeContentRecord{ReadmeContent: content}, nil
	})
}

func publisherStage(p *document.Publisher, f document.Format) pipeline.Stage {
	return pipeline.NewStage(StagePublisher, func(ctx context.Context, _ *pipeline.RunContext, in readmeContentRecord) (readmeURLRecord, error) {
		url, err := p.Publish(ctx, in.ReadmeContent, f)
		if err != nil {
			return readmeURLRecord{}, err
		}
		return readmeURLRecord{ReadmeURL: url}, nil
	})
}

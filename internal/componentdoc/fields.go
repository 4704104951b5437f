// Package componentdoc wires the documentation stages into one pipeline:
// resolve, extract, analyze, reason, assemble and publish.
package componentdoc

import "github.com/julianshen/componentdoc/internal/pipeline"

// Pipeline state fields.
const (
	FieldComponentPath    pipeline.Field = "component_path"
	FieldZipFilePath      pipeline.Field = "zip_file_path"
	FieldExtractedPath    pipeline.Field = "extracted_path"
	FieldComponentName    pipeline.Field = "component_name"
	FieldFolderStructure  pipeline.Field = "folder_structure"
	FieldHeaderFunctions  pipeline.Field = "header_functions"
	FieldCallRelationship pipeline.Field = "call_relationship"
	FieldFlowDiagrams     pipeline.Field = "flow_diagrams"
	FieldReadmeContent    pipeline.Field = "readme_content"
	FieldReadmeURL        pipeline.Field = "readme_url"
)

// Stage names in execution order.
const (
	StagePathResolver     = "path_resolver"
	StageArchiveExtractor = "archive_extractor"
	StageStructure        = "structure_analyzer"
	StageFunctions        = "function_extractor"
	StageCallRelation     = "call_relation_inference"
	StageFlowDiagram      = "flow_diagram_synthesis"
	StageAssembler        = "document_assembler"
	StagePublisher        = "publisher"
)

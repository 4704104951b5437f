// Package document merges the stage outputs of a run into one README and
// publishes it.
package document

import (
	"strings"

	"github.com/julianshen/componentdoc/internal/archive"
	"github.com/julianshen/componentdoc/internal/errors"
)

// Format selects the rendering target.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat accepts "markdown", "md", "html" and "" (markdown).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	default:
		return "", errors.Newf("unsupported output format %q (want markdown or html)", s)
	}
}

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	if f == HTML {
		return ".html"
	}
	return ".md"
}

// ContentType returns the MIME type used when publishing f.
func (f Format) ContentType() string {
	if f == HTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Sections are the stage outputs that make up a README.
type Sections struct {
	ComponentName    string
	FolderStructure  string
	HeaderFunctions  string
	CallRelationship string
	FlowDiagrams     string
}

// Model is an assembled document: every section has had the scratch
// directory token replaced by the component name.
type Model struct {
	Sections
}

// Assemble scrubs s and returns the document model. It performs no I/O.
func Assemble(s Sections) Model {
	name := s.ComponentName
	if name == "" {
		name = archive.PlaceholderName
	}
	scrub := func(text string) string {
		return archive.ScratchTokenPattern.ReplaceAllLiteralString(text, name)
	}
	return Model{Sections: Sections{
		ComponentName:    name,
		FolderStructure:  scrub(s.FolderStructure),
		HeaderFunctions:  scrub(s.HeaderFunctions),
		CallRelationship: scrub(s.CallRelationship),
		FlowDiagrams:     scrub(s.FlowDiagrams),
	}}
}

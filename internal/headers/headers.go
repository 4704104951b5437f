// Package headers scans C/C++ header files for function declarations with
// a single regular expression. It is a structural fallback, not a parser:
// macros, templates and multi-line signatures are matched on a best-effort
// basis only.
package headers

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/julianshen/componentdoc/internal/structure"
)

// declPattern approximates "return type tokens, identifier, parenthesized
// parameters, then a semicolon or end of line".
var declPattern = regexp.MustCompile(`(?m)(?:[\w\s\*]+\s+)(\w+)\s*\(([^)]*)\)\s*(?:;|$)`)

// Signature is one candidate function declaration.
type Signature struct {
	Name      string
	RawParams string
}

// HeaderFile holds the declarations found in one header, in source order.
type HeaderFile struct {
	Path      string // relative to the component root, slash separated
	Functions []Signature
	Err       error
}

// Catalog is the result of scanning a component.
type Catalog struct {
	IncludeDir string // relative path of the first include directory
	Files      []HeaderFile
}

// ParseDeclarations returns every declaration-shaped match in src.
func ParseDeclarations(src string) []Signature {
	var out []Signature
	for _, m := range declPattern.FindAllStringSubmatch(src, -1) {
		params := strings.Join(strings.Fields(m[2]), " ")
		if params == "" {
			params = "void"
		}
		out = append(out, Signature{Name: m[1], RawParams: params})
	}
	return out
}

// FindInclude returns the first directory named "include" met while
// walking root in lexical order, or "" when there is none.
func FindInclude(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees cannot hold the include dir we report.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if d.IsDir() && d.Name() == "include" && path != root {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}

// Scan reads every header below root. Files that cannot be read are kept
// in the catalog with Err set.
func Scan(root string) (*Catalog, error) {
	cat := &Catalog{}

	inc, err := FindInclude(root)
	if err != nil {
		return nil, err
	}
	if inc != "" {
		rel, _ := filepath.Rel(root, inc)
		cat.IncludeDir = filepath.ToSlash(rel)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			cat.Files = append(cat.Files, HeaderFile{Path: filepath.ToSlash(rel), Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !structure.IsHeader(d.Name()) {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		hf := HeaderFile{Path: filepath.ToSlash(rel)}
		data, err := os.ReadFile(path)
		if err != nil {
			hf.Err = err
		} else {
			hf.Functions = ParseDeclarations(string(data))
		}
		cat.Files = append(cat.Files, hf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// Extract scans root and renders the catalog as Markdown. When the
// component has no include directory it returns a not-found marker
// naming componentName instead of failing.
func Extract(root, componentName string) (string, error) {
	cat, err := Scan(root)
	if err != nil {
		return "", err
	}
	if cat.IncludeDir == "" {
		return NotFoundMarker(componentName), nil
	}
	return cat.Markdown(), nil
}

// NotFoundMarker is the text emitted for components without an include
// directory.
func NotFoundMarker(componentName string) string {
	return fmt.Sprintf("_include directory not found in %s_\n", componentName)
}

// Markdown renders one section per header file with functions in source
// order.
func (c *Catalog) Markdown() string {
	var b strings.Builder
	b.WriteString("## Header Functions\n\n")
	if len(c.Files) == 0 {
		b.WriteString("_No header files found._\n")
		return b.String()
	}
	for _, f := range c.Files {
		fmt.Fprintf(&b, "### %s\n\n", f.Path)
		switch {
		case f.Err != nil:
			fmt.Fprintf(&b, "_Could not read file: %v_\n\n", f.Err)
		case len(f.Functions) == 0:
			b.WriteString("_No function declarations found._\n\n")
		default:
			for _, fn := range f.Functions {
				fmt.Fprintf(&b, "#### `%s`\n\n", fn.Name)
				fmt.Fprintf(&b, "- **Name**: `%s`\n", fn.Name)
				fmt.Fprintf(&b, "- **Parameters**: `%s`\n\n", fn.RawParams)
			}
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

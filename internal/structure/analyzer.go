// Package structure walks an extracted component and renders it as an
// annotated ASCII tree, collapsing vendored third-party subtrees.
package structure

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/julianshen/componentdoc/internal/errors"
)

// Kind distinguishes files from directories.
type Kind int

const (
	File Kind = iota
	Directory
)

// Node is one entry of the analyzed tree. A vendored directory never has
// children, whatever it contains on disk.
type Node struct {
	Name       string
	Kind       Kind
	Children   []*Node
	Vendored   bool
	Annotation string
	// Note explains why a directory was not expanded (cycle, depth).
	Note string
	Err  error
}

// DefaultMaxDepth bounds the walk when no depth is configured.
const DefaultMaxDepth = 32

// Analyzer builds Node trees from the filesystem.
type Analyzer struct {
	maxDepth int
}

// NewAnalyzer creates an Analyzer that expands at most maxDepth levels
// below the root.
func NewAnalyzer(maxDepth int) *Analyzer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Analyzer{maxDepth: maxDepth}
}

type frame struct {
	node      *Node
	path      string
	depth     int
	ancestors []os.FileInfo
}

// Analyze walks root with an explicit stack. The root itself is never
// classified as vendored. Entry-level I/O errors are recorded on the
// affected node and the walk continues.
func (a *Analyzer) Analyze(root string) (*Node, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "analyze %s", root)
	}
	if !info.IsDir() {
		return nil, errors.NotADirectory(root)
	}

	top := &Node{Name: filepath.Base(filepath.Clean(root)), Kind: Directory}
	stack := []frame{{node: top, path: root, ancestors: []os.FileInfo{info}}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, infos, err := a.list(f.path)
		if err != nil {
			f.node.Err = err
			continue
		}
		f.node.Children = children

		for i, child := range children {
			if child.Kind != Directory || child.Vendored || child.Err != nil {
				continue
			}
			childInfo := infos[i]
			if loops(childInfo, f.ancestors) {
				child.Note = "symlink loop, not followed"
				continue
			}
			if f.depth+1 >= a.maxDepth {
				child.Note = "depth limit reached, not expanded"
				continue
			}
			chain := make([]os.FileInfo, len(f.ancestors), len(f.ancestors)+1)
			copy(chain, f.ancestors)
			stack = append(stack, frame{
				node:      child,
				path:      filepath.Join(f.path, child.Name),
				depth:     f.depth + 1,
				ancestors: append(chain, childInfo),
			})
		}
	}
	return top, nil
}

// list reads dir and returns its visible entries, directories first, each
// group in lexicographic order. infos[i] is the followed FileInfo of
// nodes[i] for directories.
func (a *Analyzer) list(dir string) ([]*Node, []os.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var dirs, files []*Node
	var dirInfos []os.FileInfo
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") && !IsVCS(name) {
			continue
		}
		full := filepath.Join(dir, name)

		isDir := e.IsDir()
		var info os.FileInfo
		if isDir || e.Type()&os.ModeSymlink != 0 {
			// Stat follows symlinks; a broken link fails here.
			info, err = os.Stat(full)
			if err != nil {
				files = append(files, &Node{Name: name, Kind: File, Err: err})
				continue
			}
			isDir = info.IsDir()
		}

		if !isDir {
			files = append(files, &Node{Name: name, Kind: File, Annotation: Annotate(name)})
			continue
		}
		dirs = append(dirs, &Node{Name: name, Kind: Directory, Vendored: classify(full, name)})
		dirInfos = append(dirInfos, info)
	}

	nodes := append(dirs, files...)
	infos := make([]os.FileInfo, len(nodes))
	copy(infos, dirInfos)
	return nodes, infos, nil
}

func loops(info os.FileInfo, ancestors []os.FileInfo) bool {
	for _, anc := range ancestors {
		if os.SameFile(info, anc) {
			return true
		}
	}
	return false
}

// Summarize analyzes root and renders it labeled with root itself.
func (a *Analyzer) Summarize(root string) (string, error) {
	tree, err := a.Analyze(root)
	if err != nil {
		return "", err
	}
	return Render(tree, root), nil
}

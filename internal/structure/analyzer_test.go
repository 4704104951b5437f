package structure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/componentdoc/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func find(n *Node, name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSummarizeRendersAnnotatedTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "libfoo")
	writeFile(t, filepath.Join(root, "include", "foo.h"), "int foo_init(int flags);")
	writeFile(t, filepath.Join(root, "src", "foo.c"), "")
	writeFile(t, filepath.Join(root, "src", "impl.cpp"), "")
	writeFile(t, filepath.Join(root, "CMakeLists.txt"), "")
	writeFile(t, filepath.Join(root, ".clang-format"), "")

	out, err := NewAnalyzer(0).Summarize(root)
	require.NoError(t, err)

	want := "Component root: " + root + "\n\n" +
		"```text\n" +
		"libfoo/\n" +
		"├── include/\n" +
		"│   └── foo.h (header file)\n" +
		"├── src/\n" +
		"│   ├── foo.c (source file)\n" +
		"│   └── impl.cpp (implementation file)\n" +
		"└── CMakeLists.txt\n" +
		"```\n"
	assert.Equal(t, want, out)
}

func TestDirectoriesBeforeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.h"), "")
	writeFile(t, filepath.Join(root, "z", "z.h"), "")
	writeFile(t, filepath.Join(root, "b", "b.h"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	var names []string
	for _, c := range tree.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"b", "z", "a.h"}, names)
}

func TestVendoredAllowlistPrunesDescendants(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.c"), "")
	for _, dir := range []string{"OpenCV", "third_party", "Vendor"} {
		writeFile(t, filepath.Join(root, dir, "modules", "core", "deep_secret_file.hpp"), "")
		writeFile(t, filepath.Join(root, dir, "another_hidden_name.c"), "")
	}

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	for _, dir := range []string{"OpenCV", "third_party", "Vendor"} {
		n := find(tree, dir)
		require.NotNil(t, n, dir)
		assert.True(t, n.Vendored, dir)
		assert.Empty(t, n.Children, dir)
	}

	out := Render(tree, root)
	assert.Contains(t, out, "OpenCV/ (third-party, detail omitted)")
	assert.NotContains(t, out, "modules")
	assert.NotContains(t, out, "deep_secret_file")
	assert.NotContains(t, out, "another_hidden_name")
	assert.Contains(t, out, "main.c (source file)")
}

func TestVCSMetadataMarksFolderVendored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "components", "mylib", ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(root, "components", "mylib", "mylib.h"), "")
	writeFile(t, filepath.Join(root, "components", "own", "own.h"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	components := find(tree, "components")
	require.NotNil(t, components)
	assert.False(t, components.Vendored)

	mylib := find(components, "mylib")
	require.NotNil(t, mylib)
	assert.True(t, mylib.Vendored)
	assert.Empty(t, mylib.Children)

	own := find(components, "own")
	require.NotNil(t, own)
	assert.False(t, own.Vendored)
	assert.Len(t, own.Children, 1)
}

func TestGitSubmoduleFileMarksFolderVendored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", ".git"), "gitdir: ../.git/modules/lib")
	writeFile(t, filepath.Join(root, "lib", "lib.h"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	assert.True(t, find(tree, "lib").Vendored)
}

func TestLicenseFileMarksFolderVendored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cjson", "LICENSE.txt"), "MIT")
	writeFile(t, filepath.Join(root, "cjson", "cJSON.h"), "")
	writeFile(t, filepath.Join(root, "zlib", "COPYING"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	assert.True(t, find(tree, "cjson").Vendored)
	assert.True(t, find(tree, "zlib").Vendored)
}

func TestRootIsNeverVendored(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vendor")
	writeFile(t, filepath.Join(root, "LICENSE"), "")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "")
	writeFile(t, filepath.Join(root, "include", "api.h"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	assert.False(t, tree.Vendored)
	require.NotNil(t, find(tree, "include"))
	assert.Len(t, find(tree, "include").Children, 1)

	git := find(tree, ".git")
	require.NotNil(t, git, "VCS metadata is kept despite being hidden")
	assert.Empty(t, git.Children)
	assert.Contains(t, Render(tree, root), ".git/ (version control, detail omitted)")
}

func TestHiddenEntriesSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "x.h"), "")
	writeFile(t, filepath.Join(root, ".env"), "")
	writeFile(t, filepath.Join(root, "a.h"), "")

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "a.h", tree.Children[0].Name)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "include", "a.h"), "")
	writeFile(t, filepath.Join(root, "include", "nested", "b.h"), "")
	writeFile(t, filepath.Join(root, "boost", "x.hpp"), "")
	writeFile(t, filepath.Join(root, "src", "a.c"), "")

	a := NewAnalyzer(0)
	first, err := a.Summarize(root)
	require.NoError(t, err)
	second, err := a.Summarize(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSymlinkLoopIsNotFollowed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "a.h"), "")
	if err := os.Symlink("..", filepath.Join(root, "a", "up")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tree, err := NewAnalyzer(0).Analyze(root)
	require.NoError(t, err)
	up := find(find(tree, "a"), "up")
	require.NotNil(t, up)
	assert.Equal(t, Directory, up.Kind)
	assert.Equal(t, "symlink loop, not followed", up.Note)
	assert.Empty(t, up.Children)
}

func TestBrokenSymlinkRendersInlineError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.h"), "")
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	out, err := NewAnalyzer(0).Summarize(root)
	require.NoError(t, err)
	assert.Contains(t, out, "dangling [error:")
	assert.Contains(t, out, "ok.h (header file)")
}

func TestUnreadableDirectoryRendersInlineError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "x.h"), "")
	writeFile(t, filepath.Join(root, "open", "y.h"), "")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	out, err := NewAnalyzer(0).Summarize(root)
	require.NoError(t, err)
	assert.Contains(t, out, "[error:")
	assert.Contains(t, out, "y.h (header file)")
}

func TestDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "l1", "l2", "l3", "deep.h"), "")

	out, err := NewAnalyzer(2).Summarize(root)
	require.NoError(t, err)
	assert.Contains(t, out, "l2/ (depth limit reached, not expanded)")
	assert.NotContains(t, out, "l3")
}

func TestAnalyzeMissingRoot(t *testing.T) {
	_, err := NewAnalyzer(0).Analyze(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.h")
	writeFile(t, file, "")
	_, err = NewAnalyzer(0).Analyze(file)
	assert.True(t, errors.Is(err, errors.ErrNotADirectory))
}

func TestRenderConnectorsForNestedLastSiblings(t *testing.T) {
	tree := &Node{Name: "root", Kind: Directory, Children: []*Node{
		{Name: "a", Kind: Directory, Children: []*Node{
			{Name: "b", Kind: Directory, Children: []*Node{{Name: "c.h", Kind: File, Annotation: "header file"}}},
		}},
		{Name: "z.txt", Kind: File},
	}}

	lines := strings.Split(Render(tree, "root"), "\n")
	assert.Equal(t, []string{
		"Component root: root",
		"",
		"```text",
		"root/",
		"├── a/",
		"│   └── b/",
		"│       └── c.h (header file)",
		"└── z.txt",
		"```",
		"",
	}, lines)
}

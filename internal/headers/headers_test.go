package headers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExtractFooInit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "libfoo")
	writeFile(t, filepath.Join(root, "include", "foo.h"), "int foo_init(int flags);\n")

	cat, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, cat.Files, 1)
	assert.Equal(t, "include/foo.h", cat.Files[0].Path)
	assert.Equal(t, []Signature{{Name: "foo_init", RawParams: "int flags"}}, cat.Files[0].Functions)

	md, err := Extract(root, "libfoo")
	require.NoError(t, err)
	assert.Contains(t, md, "### include/foo.h")
	assert.Contains(t, md, "#### `foo_init`")
	assert.Contains(t, md, "- **Parameters**: `int flags`")
}

func TestParseDeclarations(t *testing.T) {
	src := `#ifndef CALC_H
#define CALC_H

/** Adds. */
int add(int a, int b);
unsigned long  checksum (const unsigned char *buf,
                         size_t len);
void   reset();
static inline char* dup_name(void);
#endif
`
	got := ParseDeclarations(src)
	assert.Equal(t, []Signature{
		{Name: "add", RawParams: "int a, int b"},
		{Name: "checksum", RawParams: "const unsigned char *buf, size_t len"},
		{Name: "reset", RawParams: "void"},
		{Name: "dup_name", RawParams: "void"},
	}, got)
}

func TestScanCoversHeadersOutsideInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "include", "api.h"), "int api_open(const char *path);\n")
	writeFile(t, filepath.Join(root, "src", "internal.hpp"), "void helper(int x);\n")
	writeFile(t, filepath.Join(root, "src", "impl.c"), "int not_a_header(void);\n")
	writeFile(t, filepath.Join(root, ".cache", "gen.h"), "int hidden(void);\n")

	cat, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, "include", cat.IncludeDir)

	var paths []string
	for _, f := range cat.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"include/api.h", "src/internal.hpp"}, paths)
}

func TestExtractWithoutIncludeDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.h"), "int a(void);\n")

	md, err := Extract(root, "libbar")
	require.NoError(t, err)
	assert.Equal(t, NotFoundMarker("libbar"), md)
	assert.Contains(t, md, "libbar")
}

func TestFindIncludeFirstMatchInLexicalOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "include", "x.h"), "")
	writeFile(t, filepath.Join(root, "a", "deep", "include", "y.h"), "")

	inc, err := FindInclude(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "deep", "include"), inc)
}

func TestMarkdownEmptyHeader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "include", "types.h"), "typedef int handle_t;\n")

	md, err := Extract(root, "x")
	require.NoError(t, err)
	assert.Contains(t, md, "### include/types.h")
	assert.Contains(t, md, "_No function declarations found._")
}

func TestUnreadableHeaderReportedInline(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "include", "ok.h"), "int ok(void);\n")
	locked := filepath.Join(root, "include", "locked.h")
	writeFile(t, locked, "int locked(void);\n")
	require.NoError(t, os.Chmod(locked, 0o000))

	md, err := Extract(root, "x")
	require.NoError(t, err)
	assert.Contains(t, md, "### include/locked.h")
	assert.Contains(t, md, "_Could not read file:")
	assert.Contains(t, md, "#### `ok`")
}

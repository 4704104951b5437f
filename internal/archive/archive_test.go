package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/locator"
)

// buildZip returns a zip archive containing files (name -> content). Names
// ending in "/" become directory entries.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !strings.HasSuffix(name, "/") {
			_, err = w.Write([]byte(files[name]))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buildZip(t, files), 0o644))
	return path
}

// listTree returns every file path under root, slash separated.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func TestExtractLocalZip(t *testing.T) {
	src := t.TempDir()
	scratchRoot := t.TempDir()
	files := map[string]string{
		"libfoo/include/foo.h": "int foo_init(int flags);\n",
		"libfoo/src/foo.c":     "int foo_init(int flags) { return 0; }\n",
		"libfoo/README":        "hi",
	}
	zipPath := writeZip(t, src, "LibFoo.ZIP", files)

	ex := NewExtractor(Config{ScratchRoot: scratchRoot}, nil)
	ws, err := ex.Extract(context.Background(), locator.Locator{Kind: locator.LocalFile, Value: zipPath})
	require.NoError(t, err)

	assert.Equal(t, "libfoo", ws.ComponentName)
	assert.Equal(t, ws.Path, ws.ScratchDir)
	assert.Equal(t, scratchRoot, filepath.Dir(ws.Path))
	assert.True(t, ScratchTokenPattern.MatchString(filepath.Base(ws.Path)))
	assert.Equal(t, []string{"libfoo/README", "libfoo/include/foo.h", "libfoo/src/foo.c"}, listTree(t, ws.Path))

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Path)
	assert.FileExists(t, zipPath, "local archives are never removed")
}

func TestExtractScratchDirsAreUnique(t *testing.T) {
	src := t.TempDir()
	zipPath := writeZip(t, src, "a.zip", map[string]string{"a/x.h": ""})
	ex := NewExtractor(Config{ScratchRoot: t.TempDir()}, nil)
	loc := locator.Locator{Kind: locator.LocalFile, Value: zipPath}

	first, err := ex.Extract(context.Background(), loc)
	require.NoError(t, err)
	defer first.Close()
	second, err := ex.Extract(context.Background(), loc)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.Path, second.Path)
}

func TestExtractPlaceholderName(t *testing.T) {
	src := t.TempDir()
	zipPath := writeZip(t, src, "flat.zip", map[string]string{
		"__MACOSX/._foo.h": "",
		".hidden/x":        "",
		"foo.h":            "void f(void);",
	})

	ws, err := NewExtractor(Config{ScratchRoot: t.TempDir()}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.LocalFile, Value: zipPath})
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, PlaceholderName, ws.ComponentName)
}

func TestExtractCorruptZipRemovesScratch(t *testing.T) {
	src := t.TempDir()
	scratchRoot := t.TempDir()
	zipPath := filepath.Join(src, "broken.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("this is not a zip archive"), 0o644))

	_, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.LocalFile, Value: zipPath})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtraction))
	assert.Empty(t, entries(t, scratchRoot))
}

func TestExtractUnsafeEntryRemovesScratch(t *testing.T) {
	src := t.TempDir()
	scratchRoot := t.TempDir()
	zipPath := writeZip(t, src, "evil.zip", map[string]string{
		"a/ok.h":        "int ok(void);",
		"../escape.txt": "boom",
	})

	_, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.LocalFile, Value: zipPath})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtraction))
	assert.Empty(t, entries(t, scratchRoot))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(scratchRoot), "escape.txt"))
}

func TestExtractPassthroughDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "libfoo")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	scratchRoot := t.TempDir()

	for _, given := range []string{dir, dir + "/", dir + "//"} {
		ws, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
			Extract(context.Background(), locator.Locator{Kind: locator.LocalDir, Value: given})
		require.NoError(t, err)
		assert.Equal(t, given, ws.Path)
		assert.Equal(t, "libfoo", ws.ComponentName)
		assert.Empty(t, ws.ScratchDir)
		require.NoError(t, ws.Close())
		assert.DirExists(t, dir, "passthrough directories are never removed")
	}
	assert.Empty(t, entries(t, scratchRoot))
}

func TestExtractNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "libfoo.tar")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for _, loc := range []locator.Locator{
		{Kind: locator.LocalFile, Value: file},
		{Kind: locator.LocalDir, Value: "/no/such/dir"},
	} {
		_, err := NewExtractor(Config{}, nil).Extract(context.Background(), loc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotADirectory))
	}
}

func TestExtractRemoteArchive(t *testing.T) {
	payload := buildZip(t, map[string]string{"libbar/include/bar.h": "void bar(void);"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	scratchRoot := t.TempDir()
	ws, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.RemoteURL, Value: srv.URL + "/libbar.zip?X-Amz-Signature=abc"})
	require.NoError(t, err)
	defer ws.Close()

	assert.Equal(t, "libbar", ws.ComponentName)
	assert.Equal(t, []string{"libbar/include/bar.h"}, listTree(t, ws.Path))
	assert.Equal(t, []string{filepath.Base(ws.ScratchDir)}, entries(t, scratchRoot), "download temp dir is removed")
}

func TestExtractRemoteNotFoundCleansUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	scratchRoot := t.TempDir()
	_, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.RemoteURL, Value: srv.URL + "/missing.zip"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDownload))
	assert.Empty(t, entries(t, scratchRoot))
}

func TestExtractRemoteTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	scratchRoot := t.TempDir()
	_, err := NewExtractor(Config{ScratchRoot: scratchRoot, DownloadTimeout: 100 * time.Millisecond}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.RemoteURL, Value: srv.URL + "/slow.zip"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDownload))
	assert.Empty(t, entries(t, scratchRoot))
}

func TestExtractRemoteCorruptPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	scratchRoot := t.TempDir()
	_, err := NewExtractor(Config{ScratchRoot: scratchRoot}, nil).
		Extract(context.Background(), locator.Locator{Kind: locator.RemoteURL, Value: srv.URL + "/x.zip"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtraction))
	assert.Empty(t, entries(t, scratchRoot), "both scratch and download are removed")
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "libfoo", DirName("/tmp/libfoo/"))
	assert.Equal(t, "libfoo", DirName("libfoo"))
	assert.Equal(t, PlaceholderName, DirName("/"))
}

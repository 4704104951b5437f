// Package archive materializes a component as a local directory: it
// downloads remote archives, unpacks zip files into a run-owned scratch
// directory, or passes an existing directory through untouched.
package archive

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	getter "github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/locator"
	"github.com/julianshen/componentdoc/internal/logger"
)

const (
	scratchPrefix  = "cdoc-scratch-"
	downloadPrefix = "cdoc-download-"

	// PlaceholderName is used when an archive has no top-level directory.
	PlaceholderName = "component"
)

// ScratchTokenPattern matches the run-unique scratch directory names this
// package generates. Anything matching it must not reach a published
// document.
var ScratchTokenPattern = regexp.MustCompile(scratchPrefix + `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Config controls download and scratch allocation.
type Config struct {
	DownloadTimeout time.Duration
	ScratchRoot     string
}

// Workspace is the materialized component. When ScratchDir is set the
// workspace owns it and Close removes it.
type Workspace struct {
	Path          string
	ComponentName string
	ScratchDir    string

	closeOnce sync.Once
	closeErr  error
}

// Close releases the scratch directory, if any. It is safe to call more
// than once.
func (w *Workspace) Close() error {
	if w == nil || w.ScratchDir == "" {
		return nil
	}
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.ScratchDir)
	})
	return w.closeErr
}

// Extractor turns Locators into Workspaces.
type Extractor struct {
	cfg Config
	log *zap.SugaredLogger
}

// NewExtractor creates an Extractor with defaults applied.
func NewExtractor(cfg Config, log *zap.SugaredLogger) *Extractor {
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = os.TempDir()
	}
	return &Extractor{cfg: cfg, log: logger.OrNop(log)}
}

// Extract materializes loc. The returned Workspace must be closed by the
// caller on every exit path.
func (e *Extractor) Extract(ctx context.Context, loc locator.Locator) (*Workspace, error) {
	if !loc.IsArchive() {
		return passthrough(loc.Value)
	}

	archivePath := loc.Value
	if loc.Kind == locator.RemoteURL {
		tmpDir, path, err := e.download(ctx, loc.Value)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := os.RemoveAll(tmpDir); err != nil {
				e.log.Warnw("remove download", logger.FieldPath, tmpDir, logger.FieldError, err)
			}
		}()
		archivePath = path
	}

	return e.unpack(archivePath)
}

func passthrough(path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, errors.NotADirectory(path)
	}
	return &Workspace{Path: path, ComponentName: DirName(path)}, nil
}

// download fetches rawURL into a private temp directory. On failure the
// directory is removed before the error is returned.
func (e *Extractor) download(ctx context.Context, rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Download(rawURL, err)
	}

	tmpDir, err := os.MkdirTemp(e.cfg.ScratchRoot, downloadPrefix)
	if err != nil {
		return "", "", errors.Download(rawURL, err)
	}
	dst := filepath.Join(tmpDir, "component.zip")

	g := &getter.HttpGetter{
		Client:              &http.Client{Timeout: e.cfg.DownloadTimeout},
		DoNotCheckHeadFirst: true,
	}
	g.SetClient(&getter.Client{Ctx: ctx})

	start := time.Now()
	if err := g.GetFile(dst, u); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", errors.Download(redact(u), err)
	}
	e.log.Debugw("downloaded archive",
		logger.FieldURL, redact(u),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	return tmpDir, dst, nil
}

// unpack extracts archivePath into a fresh scratch directory. Any failure
// removes the scratch directory entirely.
func (e *Extractor) unpack(archivePath string) (*Workspace, error) {
	scratch := filepath.Join(e.cfg.ScratchRoot, scratchPrefix+uuid.NewString())
	if err := os.Mkdir(scratch, 0o700); err != nil {
		return nil, errors.Extraction(archivePath, err)
	}

	if err := (&getter.ZipDecompressor{}).Decompress(scratch, archivePath, true, 0); err != nil {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			e.log.Warnw("remove scratch", logger.FieldPath, scratch, logger.FieldError, rmErr)
		}
		return nil, errors.Extraction(filepath.Base(archivePath), err)
	}

	name, err := topLevelName(scratch)
	if err != nil {
		_ = os.RemoveAll(scratch)
		return nil, errors.Extraction(filepath.Base(archivePath), err)
	}
	return &Workspace{Path: scratch, ComponentName: name, ScratchDir: scratch}, nil
}

// topLevelName returns the first top-level directory of an extraction,
// ignoring hidden entries and macOS resource forks.
func topLevelName(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == "__MACOSX" {
			continue
		}
		if entry.IsDir() {
			return name, nil
		}
	}
	return PlaceholderName, nil
}

// DirName is the base name of path with trailing separators stripped.
func DirName(path string) string {
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return PlaceholderName
	}
	return filepath.Base(trimmed)
}

// redact drops credentials and query strings (presigned signatures) from u
// before it is logged or wrapped into an error.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}

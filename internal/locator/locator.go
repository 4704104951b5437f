// Package locator classifies the raw component path a run starts from.
package locator

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/logger"
)

// Kind tags a Locator.
type Kind int

const (
	LocalFile Kind = iota
	LocalDir
	RemoteURL
)

func (k Kind) String() string {
	switch k {
	case LocalFile:
		return "local-file"
	case LocalDir:
		return "local-dir"
	case RemoteURL:
		return "remote-url"
	default:
		return "unknown"
	}
}

// Locator is a classified reference to component input.
type Locator struct {
	Kind  Kind
	Value string
}

func (l Locator) String() string { return l.Value }

// IsArchive reports whether the locator should be treated as a zip
// archive: remote URLs always are, local paths only with a .zip suffix.
func (l Locator) IsArchive() bool {
	if l.Kind == RemoteURL {
		return true
	}
	return strings.HasSuffix(strings.ToLower(l.Value), ".zip")
}

var windowsDrive = regexp.MustCompile(`^[A-Za-z]:[/\\]`)

// IsWindowsPath reports whether s starts with a drive-letter prefix.
func IsWindowsPath(s string) bool {
	return windowsDrive.MatchString(s)
}

// IsRemote reports whether s carries an http or https scheme.
func IsRemote(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Uploader hands a local file to object storage and returns a retrieval
// URL for it.
type Uploader interface {
	Upload(ctx context.Context, content []byte, name, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Resolver turns raw locator strings into Locators.
type Resolver struct {
	uploader Uploader
	expiry   time.Duration
	log      *zap.SugaredLogger
}

// NewResolver creates a Resolver. A nil uploader disables delegated upload
// and local files resolve to LocalFile locators.
func NewResolver(up Uploader, expiry time.Duration, log *zap.SugaredLogger) *Resolver {
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &Resolver{uploader: up, expiry: expiry, log: logger.OrNop(log)}
}

// Resolve classifies raw. Windows paths are rejected before any
// filesystem access; remote URLs are returned without touching the disk.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Locator, error) {
	p := strings.TrimSpace(raw)

	if IsWindowsPath(p) {
		return Locator{}, errors.PathFormat(p)
	}
	if IsRemote(p) {
		return Locator{Kind: RemoteURL, Value: p}, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return Locator{}, errors.NotFound(p)
	}
	if info.IsDir() {
		return Locator{Kind: LocalDir, Value: p}, nil
	}

	local := Locator{Kind: LocalFile, Value: p}
	if r.uploader == nil {
		return local, nil
	}
	url, err := r.upload(ctx, p)
	if err != nil {
		r.log.Warnw("upload failed, using local file",
			logger.FieldPath, p,
			logger.FieldError, err,
		)
		return local, nil
	}
	r.log.Debugw("uploaded local component", logger.FieldPath, p, logger.FieldURL, url)
	return Locator{Kind: RemoteURL, Value: url}, nil
}

func (r *Resolver) upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read component")
	}
	name := filepath.Base(path)
	key, err := r.uploader.Upload(ctx, data, name, ContentType(name))
	if err != nil {
		return "", err
	}
	return r.uploader.PresignedURL(ctx, key, r.expiry)
}

// ContentType guesses a MIME type from the file name's extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".zip" {
		return "application/zip"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}


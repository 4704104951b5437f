package document

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/logger"
	"github.com/julianshen/componentdoc/internal/storage"
)

// DefaultPresignExpiry is the lifetime of a published README URL.
const DefaultPresignExpiry = 1800 * time.Second

// LocalPrefix marks a readme URL that points at a local fallback file.
const LocalPrefix = "local:"

// Publisher uploads rendered documents and falls back to the local
// filesystem when storage is missing or failing.
type Publisher struct {
	store       storage.Store
	expiry      time.Duration
	fallbackDir string
	log         *zap.SugaredLogger
}

// NewPublisher creates a Publisher. store may be nil.
func NewPublisher(store storage.Store, expiry time.Duration, fallbackDir string, log *zap.SugaredLogger) *Publisher {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	if fallbackDir == "" {
		fallbackDir = os.TempDir()
	}
	return &Publisher{store: store, expiry: expiry, fallbackDir: fallbackDir, log: logger.OrNop(log)}
}

// FileName derives the published name from the content digest:
// README_<md5[0:8]>_<md5[8:16]><ext>.
func FileName(content string, f Format) string {
	sum := md5.Sum([]byte(content))
	h := hex.EncodeToString(sum[:])
	return "README_" + h[:8] + "_" + h[8:16] + f.Ext()
}

// Publish stores content and returns its retrieval URL, or a
// "local:<path>" locator when storage could not take it. Only a failed
// local write is an error.
func (p *Publisher) Publish(ctx context.Context, content string, f Format) (string, error) {
	name := FileName(content, f)
	if p.store != nil {
		url, err := p.upload(ctx, content, name, f)
		if err == nil {
			return url, nil
		}
		p.log.Warnw("storage unavailable, writing README locally",
			"name", name, logger.FieldError, err)
	}

	path := filepath.Join(p.fallbackDir, name)
	if err := os.MkdirAll(p.fallbackDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating fallback dir %s", p.fallbackDir)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return LocalPrefix + path, nil
}

func (p *Publisher) upload(ctx context.Context, content, name string, f Format) (string, error) {
	key, err := p.store.Upload(ctx, []byte(content), name, f.ContentType())
	if err != nil {
		return "", err
	}
	return p.store.PresignedURL(ctx, key, p.expiry)
}

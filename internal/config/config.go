package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/julianshen/componentdoc/internal/errors"
)

// Config represents the top-level application configuration.
type Config struct {
	Reasoning ReasoningConfig `toml:"reasoning"`
	Stages    StagesConfig    `toml:"stages"`
	Storage   StorageConfig   `toml:"storage"`
	Extract   ExtractConfig   `toml:"extract"`
	Structure StructureConfig `toml:"structure"`
	Output    OutputConfig    `toml:"output"`
	History   HistoryConfig   `toml:"history"`
	Log       LogConfig       `toml:"log"`
}

// ReasoningConfig selects the model backend and the middleware wrapped
// around it.
type ReasoningConfig struct {
	Provider       string            `toml:"provider"` // openai, gemini
	BaseURL        string            `toml:"base_url"`
	Model          string            `toml:"model"`
	APIKeySource   string            `toml:"api_key_source"`
	APIKey         string            `toml:"api_key"`
	ExtraHeaders   map[string]string `toml:"extra_headers"`
	RetryAttempts  int               `toml:"retry_attempts"`
	RetryBaseDelay time.Duration     `toml:"retry_base_delay"`
	RPS            float64           `toml:"rps"`
	Burst          int               `toml:"burst"`
	CacheSize      int               `toml:"cache_size"`
	CacheTTL       time.Duration     `toml:"cache_ttl"`
}

// StagesConfig points at the prompt records for the two reasoning stages.
// Empty paths use the embedded defaults.
type StagesConfig struct {
	CallRelation string `toml:"call_relation"`
	FlowDiagram  string `toml:"flow_diagram"`
}

// StorageConfig configures the S3-compatible object store. Storage is
// disabled when Endpoint or Bucket is empty.
type StorageConfig struct {
	Endpoint      string        `toml:"endpoint"`
	Region        string        `toml:"region"`
	AccessKey     string        `toml:"access_key"`
	SecretKey     string        `toml:"secret_key"`
	Bucket        string        `toml:"bucket"`
	UseSSL        bool          `toml:"use_ssl"`
	UploadInputs  bool          `toml:"upload_inputs"`
	PresignExpiry time.Duration `toml:"presign_expiry"`
}

// Enabled reports whether enough is configured to reach a bucket.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != "" && strings.TrimSpace(s.Bucket) != ""
}

// ExtractConfig controls archive acquisition.
type ExtractConfig struct {
	DownloadTimeout time.Duration `toml:"download_timeout"`
	ScratchRoot     string        `toml:"scratch_root"`
}

// StructureConfig bounds the directory walk.
type StructureConfig struct {
	MaxDepth int `toml:"max_depth"`
}

// OutputConfig selects the document format and the local fallback
// location used when publishing to storage is not possible.
type OutputConfig struct {
	Format      string `toml:"format"` // markdown, html
	FallbackDir string `toml:"fallback_dir"`
}

// HistoryConfig locates the run-history database. A DSN starting with
// postgres:// or postgresql:// selects PostgreSQL; anything else is a
// SQLite path. Empty disables history.
type HistoryConfig struct {
	DSN string `toml:"dsn"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	JSON  bool   `toml:"json"`
	Level string `toml:"level"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Reasoning: ReasoningConfig{
			Provider:       "openai",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			APIKeySource:   "env",
			RetryAttempts:  3,
			RetryBaseDelay: 500 * time.Millisecond,
			CacheSize:      64,
			CacheTTL:       time.Hour,
		},
		Storage: StorageConfig{
			Region:        "us-east-1",
			UploadInputs:  true,
			PresignExpiry: 30 * time.Minute,
		},
		Extract: ExtractConfig{
			DownloadTimeout: 60 * time.Second,
			ScratchRoot:     os.TempDir(),
		},
		Structure: StructureConfig{
			MaxDepth: 32,
		},
		Output: OutputConfig{
			Format:      "markdown",
			FallbackDir: os.TempDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, errors.Wrapf(err, "decode config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat config %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "markdown", "html":
	default:
		return errors.Newf("unsupported output format %q (want markdown or html)", c.Output.Format)
	}
	switch c.Reasoning.Provider {
	case "openai", "gemini":
	default:
		return errors.Newf("unsupported reasoning provider %q (want openai or gemini)", c.Reasoning.Provider)
	}
	if c.Structure.MaxDepth <= 0 {
		return errors.Newf("structure.max_depth must be positive, got %d", c.Structure.MaxDepth)
	}
	if c.Extract.DownloadTimeout <= 0 {
		return errors.Newf("extract.download_timeout must be positive, got %s", c.Extract.DownloadTimeout)
	}
	return nil
}

func applyEnv(cfg *Config) {
	r := &cfg.Reasoning
	r.Provider = firstNonEmpty(os.Getenv("COMPONENTDOC_PROVIDER"), r.Provider)
	r.BaseURL = firstNonEmpty(os.Getenv("COMPONENTDOC_BASE_URL"), r.BaseURL)
	r.Model = firstNonEmpty(os.Getenv("COMPONENTDOC_MODEL"), r.Model)

	s := &cfg.Storage
	s.Endpoint = firstNonEmpty(os.Getenv("S3_ENDPOINT"), s.Endpoint)
	s.Region = firstNonEmpty(os.Getenv("S3_REGION"), s.Region)
	s.AccessKey = firstNonEmpty(os.Getenv("S3_ACCESS_KEY"), s.AccessKey)
	s.SecretKey = firstNonEmpty(os.Getenv("S3_SECRET_KEY"), s.SecretKey)
	s.Bucket = firstNonEmpty(os.Getenv("S3_BUCKET"), s.Bucket)
	if v, err := strconv.ParseBool(os.Getenv("S3_USE_SSL")); err == nil {
		s.UseSSL = v
	}

	cfg.Extract.ScratchRoot = firstNonEmpty(os.Getenv("COMPONENTDOC_SCRATCH_ROOT"), cfg.Extract.ScratchRoot)
	cfg.Output.Format = firstNonEmpty(os.Getenv("COMPONENTDOC_FORMAT"), cfg.Output.Format)
	cfg.History.DSN = firstNonEmpty(os.Getenv("COMPONENTDOC_HISTORY_DSN"), cfg.History.DSN)
	cfg.Log.Level = firstNonEmpty(os.Getenv("COMPONENTDOC_LOG_LEVEL"), cfg.Log.Level)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

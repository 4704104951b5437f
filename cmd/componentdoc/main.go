package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/julianshen/componentdoc/internal/componentdoc"
	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/logger"
	"github.com/julianshen/componentdoc/internal/provider"
	"github.com/julianshen/componentdoc/internal/reasoning"
	"github.com/julianshen/componentdoc/internal/storage"
	"github.com/julianshen/componentdoc/internal/store"

	// Register providers via init() side effects.
	_ "github.com/julianshen/componentdoc/internal/provider/gemini"
	_ "github.com/julianshen/componentdoc/internal/provider/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath   string
	envFile      string
	modelFlag    string
	providerFlag string
	logLevel     string
	logJSON      bool
)

func versionString() string {
	return fmt.Sprintf("componentdoc %s (commit: %s, built: %s)", version, commit, date)
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "componentdoc",
		Short: "Generate README documentation for C/C++ components",
		Long: `componentdoc turns a component directory or zip archive, local or remote,
into a README with its directory layout, public header functions, call
relationships and flow diagrams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&modelFlag, "model", "", "override model name")
	root.PersistentFlags().StringVar(&providerFlag, "provider", "", "override provider name: openai, gemini")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(versionString())
		},
	}

	root.AddCommand(versionCmd)
	root.AddCommand(generateCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(stagesCmd())
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		if hints := errors.FlattenHints(err); hints != "" {
			fmt.Fprintln(os.Stderr, hintStyle.Render("Hint: ")+hints)
		}
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfgPath := configPath
	if cfgPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine home directory")
		}
		cfgPath = filepath.Join(home, ".config", "componentdoc", "config.toml")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	if modelFlag != "" {
		cfg.Reasoning.Model = modelFlag
	}
	if providerFlag != "" {
		cfg.Reasoning.Provider = providerFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logJSON {
		cfg.Log.JSON = true
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	return logger.New(logger.Options{JSON: cfg.Log.JSON, Level: cfg.Log.Level})
}

// app bundles a generator with the resources it holds open.
type app struct {
	gen     *componentdoc.Generator
	history *store.Store
	log     *zap.SugaredLogger
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
	_ = a.log.Sync()
}

// newApp builds the generator and its collaborators from cfg. With
// offline set no provider is created and reasoning calls fail.
func newApp(cfg *config.Config, offline bool) (*app, error) {
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{log: log}

	var inv reasoning.Invoker = reasoning.Func(func(context.Context, string, string, config.ModelOptions) (string, error) {
		return "", errors.New("reasoning provider not configured")
	})
	if !offline {
		p, err := provider.NewProvider(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "creating provider")
		}
		inv = reasoning.FromConfig(reasoning.NewProviderInvoker(p, cfg.Reasoning.Model), cfg.Reasoning, log)
	}

	var st storage.Store
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Store(storage.S3ConfigFrom(cfg.Storage))
		if err != nil {
			log.Warnw("storage disabled", logger.FieldError, err)
		} else {
			st = s3
		}
	}

	if cfg.History.DSN != "" {
		h, err := store.NewStore(cfg.History.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening history")
		}
		a.history = h
	}

	gen, err := componentdoc.NewGenerator(cfg, componentdoc.Deps{
		Invoker: inv,
		Store:   st,
		History: a.history,
		Log:     log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.gen = gen
	return a, nil
}

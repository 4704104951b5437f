package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/logger"
	"github.com/julianshen/componentdoc/internal/output"
)

func batchCmd() *cobra.Command {
	var (
		concurrencyFlag int
		outputFlag      string
		formatFlag      string
	)

	cmd := &cobra.Command{
		Use:   "batch <component>...",
		Short: "Generate READMEs for several components",
		Long: `Run the pipeline for each component independently. Runs share the
configuration and reasoning provider but never scratch space. A failed run
does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if formatFlag != "" {
				cfg.Output.Format = formatFlag
			}

			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			results, failed := runBatch(cmd.Context(), a, args, concurrencyFlag)
			data, err := output.New(outputFlag).Format(results...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			if failed > 0 {
				return errors.Newf("%d of %d runs failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrencyFlag, "concurrency", 2, "max runs in parallel")
	cmd.Flags().StringVar(&outputFlag, "output", "markdown", "output format: json, markdown")
	cmd.Flags().StringVar(&formatFlag, "format", "", "README format: markdown, html (default from config)")

	return cmd
}

// runBatch runs every input and returns the results in input order along
// with the number of failed runs.
func runBatch(ctx context.Context, a *app, inputs []string, concurrency int) ([]*output.RunResult, int) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]*output.RunResult, len(inputs))
	var (
		mu     sync.Mutex
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := a.gen.Run(gctx, in)
			results[i] = toRunResult(res, err)
			if err != nil {
				a.log.Warnw("run failed", logger.FieldPath, in, logger.FieldError, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, failed
}

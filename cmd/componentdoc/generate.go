package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/julianshen/componentdoc/internal/componentdoc"
	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/output"
)

func generateCmd() *cobra.Command {
	var (
		formatFlag string
		outputFlag string
		printFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <component>",
		Short: "Generate a README for one component",
		Long: `Generate a README for a component given as a local directory, a local
zip archive or an http(s) URL to a zip archive. Prints the README URL, or a
local: path when object storage is not configured.`,
		Args: cobra.ExactArgs(1),
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

			res, runErr := a.gen.Run(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			if outputFlag != "" {
				data, err := output.New(outputFlag).Format(toRunResult(res, runErr))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return runErr
			}
			if runErr != nil {
				return runErr
			}

			if printFlag {
				if err := printReadme(out, res.ReadmeContent, cfg.Output.Format); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, successStyle.Render("README: ")+res.ReadmeURL)
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%s in %s (run %s)", res.ComponentName, res.Duration().Round(time.Millisecond), res.RunID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "README format: markdown, html (default from config)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "print the run result as json or markdown instead of a status line")
	cmd.Flags().BoolVar(&printFlag, "print", false, "render the README in the terminal")

	return cmd
}

// printReadme renders Markdown READMEs for the terminal; other formats are
// written verbatim.
func printReadme(w io.Writer, content, format string) error {
	if strings.EqualFold(format, "html") {
		_, err := io.WriteString(w, content)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return errors.Wrap(err, "creating terminal renderer")
	}
	rendered, err := r.Render(content)
	if err != nil {
		return errors.Wrap(err, "rendering README")
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// toRunResult converts a generator result and its error for output.
func toRunResult(res *componentdoc.Result, err error) *output.RunResult {
	r := &output.RunResult{
		RunID:       res.RunID,
		Input:       res.Input,
		Component:   res.ComponentName,
		Status:      res.Status.String(),
		ReadmeURL:   res.ReadmeURL,
		FailedStage: res.FailedStage,
		DurationMs:  res.Duration().Milliseconds(),
	}
	for _, s := range res.Stages {
		st := output.StageTiming{Name: s.Stage, DurationMs: s.Duration.Milliseconds()}
		if s.Err != nil {
			st.Error = s.Err.Error()
		}
		r.Stages = append(r.Stages, st)
	}
	if err != nil {
		r.Error = err.Error()
		r.Hints = errors.GetAllHints(err)
	}
	return r
}

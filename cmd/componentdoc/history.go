package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/julianshen/componentdoc/internal/errors"
	"github.com/julianshen/componentdoc/internal/output"
	"github.com/julianshen/componentdoc/internal/store"
)

func historyCmd() *cobra.Command {
	var (
		limitFlag  int
		outputFlag string
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long:  "List recent runs from the history database, or show one run by ID.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.History.DSN == "" {
				return errors.WithHint(
					errors.New("run history is disabled"),
					"set [history] dsn in the config file or COMPONENTDOC_HISTORY_DSN",
				)
			}

			h, err := store.NewStore(cfg.History.DSN)
			if err != nil {
				return err
			}
			defer h.Close()

			var results []*output.RunResult
			if len(args) == 1 {
				rec, err := h.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rec == nil {
					return errors.Newf("run %s not found", args[0])
				}
				results = append(results, output.FromRecord(*rec))
			} else {
				recs, err := h.ListRuns(cmd.Context(), limitFlag)
				if err != nil {
					return err
				}
				for _, rec := range recs {
					results = append(results, output.FromRecord(rec))
				}
			}

			if len(results) == 0 && outputFlag != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No runs recorded."))
				return nil
			}
			data, err := output.New(outputFlag).Format(results...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "max runs to list")
	cmd.Flags().StringVar(&outputFlag, "output", "markdown", "output format: json, markdown")

	return cmd
}

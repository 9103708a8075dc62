package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/cli"
	"github.com/Norgate-AV/ueh/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit    int
		clearAll bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "history [project]",
		Short: "Show recent rebuild runs",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.ValidateFormat(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, args)
			if err != nil {
				return err
			}

			store, err := history.Open(a.cfg.HistoryFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if clearAll {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
				return nil
			}

			var records []history.Record
			if len(args) > 0 {
				descriptor, _, err := a.project(args)
				if err != nil {
					return err
				}

				records, err = store.ListProject(descriptor, limit)
				if err != nil {
					return err
				}
			} else {
				records, err = store.List(limit)
				if err != nil {
					return err
				}
			}

			if output != string(cli.FormatText) {
				if records == nil {
					records = []history.Record{}
				}

				return cli.OutputResults(cmd.OutOrStdout(), output, records)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			table := cli.NewTableFormatter(cmd.OutOrStdout())
			table.Header("STARTED", "PROJECT", "RESULT", "ENGINE", "DURATION")
			for _, r := range records {
				table.Row(
					cli.FormatTime(r.Started),
					projectLabel(r.DescriptorPath),
					resultLabel(r),
					valueOr(r.EngineVersion, "-"),
					cli.FormatDuration(r.Duration()),
				)
			}

			return table.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded runs")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func projectLabel(descriptor string) string {
	base := filepath.Base(descriptor)
	return base[:len(base)-len(filepath.Ext(base))]
}

func resultLabel(r history.Record) string {
	if r.Stage == "" {
		return r.State
	}

	return fmt.Sprintf("%s (%s: %s)", r.State, r.Stage, cli.TruncateString(r.Cause, 60))
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}

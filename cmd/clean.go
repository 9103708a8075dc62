package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/artifacts"
	"github.com/Norgate-AV/ueh/internal/cli"
	"github.com/Norgate-AV/ueh/internal/logging"
)

func newCleanCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean [project]",
		Short: "Delete a project's generated directories",
		Long: `Delete .vs, Binaries, Intermediate and DerivedDataCache next to the project
descriptor. The editor is not closed first; use 'ueh rebuild' for that.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, args)
			if err != nil {
				return err
			}

			descriptor, _, err := a.project(args)
			if err != nil {
				return err
			}

			root := filepath.Dir(descriptor)
			console := logging.NewConsole(cmd.OutOrStdout())
			cleaner := artifacts.NewCleaner(console.Log)

			if !dryRun {
				return cleaner.Clean(root)
			}

			targets, err := cleaner.Plan(root)
			if err != nil {
				return err
			}

			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clean")
				return nil
			}

			var total int64
			table := cli.NewTableFormatter(cmd.OutOrStdout())
			table.Header("DIRECTORY", "SIZE")
			for _, t := range targets {
				table.Row(t.Name, cli.FormatBytes(t.Size))
				total += t.Size
			}

			if err := table.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s would be freed\n", cli.FormatBytes(total))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only list what would be deleted")

	return cmd
}

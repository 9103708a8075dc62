package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/cli"
	"github.com/Norgate-AV/ueh/internal/projects"
	"github.com/Norgate-AV/ueh/internal/utils"
)

// Replaced in tests
var copyToClipboard = clipboard.WriteAll

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage the list of known projects",
	}

	cmd.AddCommand(
		newProjectsListCmd(),
		newProjectsAddCmd(),
		newProjectsRemoveCmd(),
		newProjectsPathCmd(),
	)

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects, most recently opened first",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.ValidateFormat(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}

			entries := a.store.List()
			if output != string(cli.FormatText) {
				return cli.OutputResults(cmd.OutOrStdout(), output, entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects. Add one with 'ueh projects add <path>'.")
				return nil
			}

			table := cli.NewTableFormatter(cmd.OutOrStdout())
			table.Header("NAME", "LAST OPENED", "PATH")
			for _, e := range entries {
				table.Row(e.Name, cli.FormatTime(e.LastOpened), e.DescriptorPath)
			}

			return table.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func newProjectsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Register a .uproject file or the project in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, args)
			if err != nil {
				return err
			}

			descriptor, err := utils.FindDescriptor(args[0])
			if err != nil {
				return err
			}

			entry, added, err := a.store.Add(descriptor)
			if err != nil {
				return err
			}

			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already registered\n", entry.Name)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", entry.Name, entry.DescriptorPath)
			if entry.SolutionPath == "" {
				a.logger.Info("no solution file yet", "directory", entry.Directory)
			}

			return nil
		},
	}
}

func newProjectsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <project>",
		Aliases: []string{"rm"},
		Short:   "Forget a project. Nothing is deleted from disk.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}

			entry, err := a.store.Remove(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", entry.Name)

			return nil
		},
	}
}

func newProjectsPathCmd() *cobra.Command {
	var copyPath bool

	cmd := &cobra.Command{
		Use:   "path <project>",
		Short: "Print a project's directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}

			entry, err := a.store.Find(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), entry.Directory)

			if copyPath {
				if err := copyToClipboard(entry.Directory); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}

				fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyPath, "copy", "c", false, "Copy the path to the clipboard")

	return cmd
}

// entryFor returns the registered entry for descriptor or one built from disk
func entryFor(descriptor string, registered *projects.Entry) (projects.Entry, error) {
	if registered != nil {
		return *registered, nil
	}

	dir := filepath.Dir(descriptor)
	solution, err := projects.FindSolution(dir)
	if err != nil {
		return projects.Entry{}, err
	}

	return projects.Entry{
		Name:           strings.TrimSuffix(filepath.Base(descriptor), filepath.Ext(descriptor)),
		DescriptorPath: descriptor,
		SolutionPath:   solution,
		Directory:      dir,
	}, nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/logging"
	"github.com/Norgate-AV/ueh/internal/projects"
)

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a project in the editor, the IDE or the file browser",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "editor [project]",
			Short: "Start the Unreal Editor on a project without rebuilding",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runOpenEditor,
		},
		&cobra.Command{
			Use:     "ide [project]",
			Aliases: []string{"solution", "sln"},
			Short:   "Open the project's solution file",
			Args:    cobra.MaximumNArgs(1),
			RunE:    runOpenIDE,
		},
		&cobra.Command{
			Use:     "explorer [project]",
			Aliases: []string{"dir", "folder"},
			Short:   "Show the project directory in the file browser",
			Args:    cobra.MaximumNArgs(1),
			RunE:    runOpenExplorer,
		},
	)

	return cmd
}

// openTarget loads the app and resolves the project argument
func openTarget(cmd *cobra.Command, args []string) (*app, projects.Entry, editorLauncher, error) {
	a, err := newApp(cmd, args)
	if err != nil {
		return nil, projects.Entry{}, nil, err
	}

	descriptor, registered, err := a.project(args)
	if err != nil {
		return nil, projects.Entry{}, nil, err
	}

	entry, err := entryFor(descriptor, registered)
	if err != nil {
		return nil, projects.Entry{}, nil, err
	}

	console := logging.NewConsole(cmd.OutOrStdout())

	return a, entry, newLauncher(console.Log), nil
}

func runOpenEditor(cmd *cobra.Command, args []string) error {
	a, entry, l, err := openTarget(cmd, args)
	if err != nil {
		return err
	}

	// an unresolvable engine falls back to the desktop file association
	root := ""
	if inst, err := a.resolver().Resolve(entry.DescriptorPath); err == nil {
		root = inst.Root
	} else {
		a.logger.Info("engine not resolved, using file association", "error", err)
	}

	if err := l.LaunchEditor(root, entry.DescriptorPath); err != nil {
		return err
	}

	a.touch(entry.DescriptorPath)

	return nil
}

func runOpenIDE(cmd *cobra.Command, args []string) error {
	a, entry, l, err := openTarget(cmd, args)
	if err != nil {
		return err
	}

	solution := entry.SolutionPath
	if solution == "" {
		if solution, err = projects.FindSolution(entry.Directory); err != nil {
			return err
		}
	}

	if solution == "" {
		return fmt.Errorf("no solution file in %s; run 'ueh rebuild' to generate one", entry.Directory)
	}

	if err := l.LaunchIDE(solution); err != nil {
		return err
	}

	a.touch(entry.DescriptorPath)

	return nil
}

func runOpenExplorer(cmd *cobra.Command, args []string) error {
	_, entry, l, err := openTarget(cmd, args)
	if err != nil {
		return err
	}

	return l.OpenInExplorer(entry.Directory)
}

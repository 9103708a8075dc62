package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/codes"
	"github.com/Norgate-AV/ueh/internal/pipeline"
	"github.com/Norgate-AV/ueh/internal/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ueh [project]",
		Short: "Unreal Engine project helper",
		Long: `Close the Unreal Editor, clean a project's generated directories, regenerate
its IDE project files with the engine it is associated with, and start the
editor again.

A project is a .uproject path, a directory holding one, or the name of a
registered project. Without arguments ueh rebuilds the project in the
current directory.`,
		RunE:          runRebuild,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime),
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().String("log-level", "", "Diagnostic log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "Diagnostic log format (text, json)")
	cmd.PersistentFlags().String("projects-file", "", "Path of the project list")
	cmd.PersistentFlags().String("history-file", "", "Path of the run history database")
	addRebuildFlags(cmd)

	cmd.AddCommand(
		newRebuildCmd(),
		newProjectsCmd(),
		newOpenCmd(),
		newResolveCmd(),
		newCleanCmd(),
		newHistoryCmd(),
	)

	return cmd
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// pipeline failures have already been written to the run log
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	code := codes.ExitCodeFor(err)
	if codes.IsSuccess(code) {
		code = codes.GeneralFailure
	}

	os.Exit(code)
}

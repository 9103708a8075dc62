package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/artifacts"
	"github.com/Norgate-AV/ueh/internal/history"
	"github.com/Norgate-AV/ueh/internal/logging"
	"github.com/Norgate-AV/ueh/internal/pipeline"
	"github.com/Norgate-AV/ueh/internal/process"
)

func newRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild [project]",
		Short: "Close the editor, clean, regenerate project files and relaunch",
		Long: `Close every running Unreal Editor, delete .vs, Binaries, Intermediate and
DerivedDataCache next to the project descriptor, regenerate the IDE project
files with UnrealBuildTool and start the editor on the project again.

Examples:
  ueh rebuild ~/Projects/Shooter/Shooter.uproject
  ueh rebuild Shooter --timeout 20s`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRebuild,
	}

	addRebuildFlags(cmd)

	return cmd
}

func addRebuildFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Duration("timeout", process.DefaultTimeout, "How long to wait for the editor to close")
	flags.Duration("poll-interval", process.DefaultPollInterval, "How often to check whether the editor has closed")
	flags.String("editor-process", pipeline.DefaultEditorProcess, "Editor process name")
	flags.String("dotnet", "", "Path of the dotnet host running UnrealBuildTool")
	flags.Bool("no-history", false, "Do not record this run")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args)
	if err != nil {
		return err
	}

	descriptor, _, err := a.project(args)
	if err != nil {
		return err
	}

	queue := logging.NewQueue(logging.DefaultQueueSize)
	console := logging.NewConsole(cmd.OutOrStdout())

	drained := make(chan struct{})
	go func() {
		queue.Run(console.Write)
		close(drained)
	}()

	defer func() {
		queue.Close()
		<-drained
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	deps := pipeline.Dependencies{
		Terminator: process.NewTerminator(newProcessManager(), queue.Log),
		Cleaner:    artifacts.NewCleaner(queue.Log),
		Resolver:   a.resolver(),
		Invoker:    newInvoker(a.cfg.DotnetPath, queue.Log),
		Launcher:   newLauncher(queue.Log),
	}

	if !a.cfg.NoHistory {
		store, err := history.Open(a.cfg.HistoryFile)
		if err != nil {
			a.logger.Warn("run history disabled", "error", err)
		} else {
			defer store.Close()
			deps.Recorder = store
		}
	}

	orch := pipeline.New(deps, pipeline.Options{
		EditorProcess: a.cfg.EditorProcess,
		KillTimeout:   a.cfg.KillTimeout,
		PollInterval:  a.cfg.PollInterval,
	}, queue.Log)

	orch.OnTransition = func(from, to pipeline.State) {
		a.logger.Debug("pipeline state changed", "from", from, "to", to)
	}

	a.logger.Debug("rebuilding project",
		"descriptor", descriptor,
		"editor_process", a.cfg.EditorProcess,
		"timeout", a.cfg.KillTimeout,
		"dotnet", a.cfg.DotnetPath,
	)

	if _, err := orch.RebuildAndLaunch(ctx, descriptor); err != nil {
		return err
	}

	a.touch(descriptor)

	return nil
}

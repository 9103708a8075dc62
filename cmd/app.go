package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/builder"
	"github.com/Norgate-AV/ueh/internal/config"
	"github.com/Norgate-AV/ueh/internal/launcher"
	"github.com/Norgate-AV/ueh/internal/logging"
	"github.com/Norgate-AV/ueh/internal/pipeline"
	"github.com/Norgate-AV/ueh/internal/process"
	"github.com/Norgate-AV/ueh/internal/projects"
	"github.com/Norgate-AV/ueh/internal/toolchain"
	"github.com/Norgate-AV/ueh/internal/utils"
)

// editorLauncher starts the editor, the IDE and the file browser
type editorLauncher interface {
	LaunchEditor(installRoot, descriptorPath string) error
	LaunchIDE(solutionPath string) error
	OpenInExplorer(directory string) error
}

// Replaced in tests
var (
	newProcessManager = process.NewManager
	engineSources     = toolchain.DefaultSources

	newInvoker = func(dotnetPath string, log logging.Sink) pipeline.Invoker {
		return builder.NewInvoker(dotnetPath, log)
	}

	newLauncher = func(log logging.Sink) editorLauncher {
		return launcher.New(log)
	}
)

// app holds what every command needs: configuration, diagnostics and the
// project list
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *projects.Store
}

func newApp(cmd *cobra.Command, args []string) (*app, error) {
	loader := config.NewLoader()

	cfg, err := loader.Load(cmd, args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}

	logger := logging.NewLogger(level, cfg.LogFormat, cmd.ErrOrStderr())
	for _, f := range loader.Files {
		logger.Debug("config file loaded", "path", f)
	}

	if local := loader.Local; local != nil {
		logger.Debug("project config found", "dir", local.Dir, "depth", local.Depth)
	}

	store := projects.NewStore(cfg.ProjectsFile)
	if err := store.Load(); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

// project turns a command argument into a descriptor path. The entry is set
// when the project is registered.
func (a *app) project(args []string) (string, *projects.Entry, error) {
	arg := "."
	if len(args) > 0 {
		arg = args[0]
	}

	if _, err := os.Stat(arg); err == nil || utils.IsDescriptor(arg) || utils.HasSeparator(arg) {
		descriptor, err := utils.FindDescriptor(arg)
		if err != nil {
			return "", nil, err
		}

		entry, err := a.store.Find(descriptor)
		if err != nil {
			return descriptor, nil, nil
		}

		return descriptor, &entry, nil
	}

	entry, err := a.store.Find(arg)
	if err != nil {
		return "", nil, err
	}

	return entry.DescriptorPath, &entry, nil
}

// resolver looks engines up in the configured overrides, then the platform sources
func (a *app) resolver() *toolchain.Resolver {
	return toolchain.NewResolver(toolchain.WithOverrides(a.cfg.EngineOverrides, engineSources()), a.logger)
}

// touch moves a registered project to the top of the list
func (a *app) touch(descriptor string) {
	if _, err := a.store.Touch(descriptor); err != nil && !errors.Is(err, projects.ErrNotFound) {
		a.logger.Warn("failed to update project list", "error", err)
	}
}

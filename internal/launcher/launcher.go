// Package launcher starts the editor, the IDE and the file browser without
// waiting for them to exit.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Norgate-AV/ueh/internal/logging"
)

// LaunchError is returned when a program could not be started
type LaunchError struct {
	Target string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Target, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launcher starts detached processes
type Launcher struct {
	log   logging.Sink
	goos  string
	start func(name string, args ...string) error
}

// New creates a launcher for the current platform
func New(log logging.Sink) *Launcher {
	if log == nil {
		log = logging.Discard
	}

	return &Launcher{
		log:   log,
		goos:  runtime.GOOS,
		start: startDetached,
	}
}

// EditorPath returns the editor executable inside an engine install
func EditorPath(installRoot, goos string) string {
	switch goos {
	case "windows":
		return filepath.Join(installRoot, "Engine", "Binaries", "Win64", "UnrealEditor.exe")
	case "darwin":
		return filepath.Join(installRoot, "Engine", "Binaries", "Mac", "UnrealEditor.app", "Contents", "MacOS", "UnrealEditor")
	default:
		return filepath.Join(installRoot, "Engine", "Binaries", "Linux", "UnrealEditor")
	}
}

// LaunchEditor opens the project in the editor. With an install root the
// engine's editor binary is started directly; without one the descriptor is
// handed to the desktop's file association.
func (l *Launcher) LaunchEditor(installRoot, descriptorPath string) error {
	l.log("Starting Unreal Engine")

	if installRoot != "" {
		editor := EditorPath(installRoot, l.goos)
		if _, err := os.Stat(editor); err == nil {
			if err := l.start(editor, descriptorPath); err != nil {
				return &LaunchError{Target: "Unreal Editor", Err: err}
			}

			return nil
		}
	}

	if err := l.open(descriptorPath); err != nil {
		return &LaunchError{Target: "Unreal Editor", Err: err}
	}

	return nil
}

// LaunchIDE opens the solution file. An empty path does nothing.
func (l *Launcher) LaunchIDE(solutionPath string) error {
	if solutionPath == "" {
		return nil
	}

	l.log("Launching IDE")

	if err := l.open(solutionPath); err != nil {
		return &LaunchError{Target: "IDE", Err: err}
	}

	return nil
}

// OpenInExplorer shows directory in the platform file browser
func (l *Launcher) OpenInExplorer(directory string) error {
	l.log("Opening in Explorer")

	if err := l.open(directory); err != nil {
		return &LaunchError{Target: "file browser", Err: err}
	}

	return nil
}

// open hands path to the desktop's default handler
func (l *Launcher) open(path string) error {
	switch l.goos {
	case "windows":
		return l.start("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		return l.start("open", path)
	default:
		return l.start("xdg-open", path)
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}

	return cmd.Process.Release()
}

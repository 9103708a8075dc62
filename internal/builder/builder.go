// Package builder runs UnrealBuildTool to regenerate a project's IDE files.
package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/ueh/internal/logging"
)

// DefaultDotnet is the .NET host used to run UnrealBuildTool
const DefaultDotnet = "dotnet"

// GenerateFlags are passed to UnrealBuildTool after the project argument
var GenerateFlags = []string{"-game", "-rocket", "-progress"}

const maxLineSize = 1024 * 1024

// BuildFailedError is returned when the build tool cannot be started or exits
// with a non-zero status. ExitCode is -1 when the process did not run to
// completion (missing executable, bad path, interrupted).
type BuildFailedError struct {
	ExitCode int
	Err      error
}

func (e *BuildFailedError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("failed to run build tool: %v", e.Err)
	}

	return fmt.Sprintf("build tool exited with code %d", e.ExitCode)
}

func (e *BuildFailedError) Unwrap() error {
	return e.Err
}

// ToolPath returns the UnrealBuildTool assembly inside an engine install
func ToolPath(installRoot string) string {
	return filepath.Join(installRoot, "Engine", "Binaries", "DotNET", "UnrealBuildTool", "UnrealBuildTool.dll")
}

// Invoker runs the project file generator and streams its output to a log sink
type Invoker struct {
	dotnet      string
	log         logging.Sink
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewInvoker creates an invoker. An empty dotnetPath uses DefaultDotnet.
func NewInvoker(dotnetPath string, log logging.Sink) *Invoker {
	if dotnetPath == "" {
		dotnetPath = DefaultDotnet
	}

	if log == nil {
		log = logging.Discard
	}

	return &Invoker{
		dotnet:      dotnetPath,
		log:         log,
		execCommand: exec.CommandContext,
	}
}

// Dotnet returns the .NET host the invoker runs
func (inv *Invoker) Dotnet() string {
	return inv.dotnet
}

// BuildCommandArgs builds the arguments passed to the .NET host
func (inv *Invoker) BuildCommandArgs(installRoot, descriptorPath string) ([]string, error) {
	absDescriptor, err := filepath.Abs(descriptorPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", descriptorPath, err)
	}

	args := []string{ToolPath(installRoot), "-projectfiles", "-project=" + absDescriptor}
	args = append(args, GenerateFlags...)

	return args, nil
}

// Invoke regenerates the IDE project files for descriptorPath using the engine
// at installRoot. It blocks until the build tool exits.
func (inv *Invoker) Invoke(ctx context.Context, installRoot, descriptorPath string) error {
	args, err := inv.BuildCommandArgs(installRoot, descriptorPath)
	if err != nil {
		return &BuildFailedError{ExitCode: -1, Err: err}
	}

	if _, err := os.Stat(args[0]); err != nil {
		return &BuildFailedError{ExitCode: -1, Err: fmt.Errorf("UnrealBuildTool not found: %w", err)}
	}

	return inv.ExecuteCommand(ctx, inv.dotnet, args)
}

// ExecuteCommand runs name with args, logging stdout and stderr line by line
// as they arrive
func (inv *Invoker) ExecuteCommand(ctx context.Context, name string, args []string) error {
	cmd := inv.execCommand(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &BuildFailedError{ExitCode: -1, Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &BuildFailedError{ExitCode: -1, Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return &BuildFailedError{ExitCode: -1, Err: err}
	}

	var g errgroup.Group
	g.Go(func() error { return inv.stream(stdout) })
	g.Go(func() error { return inv.stream(stderr) })

	// pipes must be drained before Wait closes them
	readErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &BuildFailedError{ExitCode: -1, Err: ctxErr}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return &BuildFailedError{ExitCode: exitErr.ExitCode(), Err: err}
		}

		return &BuildFailedError{ExitCode: -1, Err: err}
	}

	if readErr != nil {
		inv.log(fmt.Sprintf("Warning: build output was cut short: %v", readErr))
	}

	return nil
}

// PrintBuildInfo describes the command that Invoke would run
func (inv *Invoker) PrintBuildInfo(w io.Writer, installRoot, descriptorPath string, args []string) {
	fmt.Fprintf(w, "Engine: %s\nProject: %s\nCommand: %s %s\n",
		installRoot, descriptorPath, inv.dotnet, strings.Join(args, " "))
}

func (inv *Invoker) stream(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		inv.log(strings.TrimRight(scanner.Text(), "\r"))
	}

	err := scanner.Err()
	if err != nil {
		// keep the pipe flowing so the child never blocks on a full buffer
		_, _ = io.Copy(io.Discard, r)
	}

	return err
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/ueh/internal/builder"
	"github.com/Norgate-AV/ueh/internal/codes"
	"github.com/Norgate-AV/ueh/internal/history"
	"github.com/Norgate-AV/ueh/internal/logging"
	"github.com/Norgate-AV/ueh/internal/pipeline"
	"github.com/Norgate-AV/ueh/internal/process"
	"github.com/Norgate-AV/ueh/internal/projects"
	"github.com/Norgate-AV/ueh/internal/toolchain"
)

type noProcesses struct{}

func (noProcesses) List(string) ([]process.Process, error) { return nil, nil }
func (noProcesses) Terminate(int) error                    { return nil }

type mockInvoker struct {
	err   error
	calls int
	root  string
}

func (m *mockInvoker) Invoke(ctx context.Context, installRoot, descriptorPath string) error {
	m.calls++
	m.root = installRoot
	return m.err
}

type mockLauncher struct {
	editor   []string
	ide      []string
	explorer []string
}

func (m *mockLauncher) LaunchEditor(installRoot, descriptorPath string) error {
	m.editor = append(m.editor, descriptorPath)
	return nil
}

func (m *mockLauncher) LaunchIDE(solutionPath string) error {
	m.ide = append(m.ide, solutionPath)
	return nil
}

func (m *mockLauncher) OpenInExplorer(directory string) error {
	m.explorer = append(m.explorer, directory)
	return nil
}

// testEnv is an isolated project, engine and set of data files
type testEnv struct {
	projectDir   string
	descriptor   string
	engine       string
	projectsFile string
	historyFile  string

	invoker   *mockInvoker
	launcher  *mockLauncher
	clipboard []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	data := t.TempDir()
	env := &testEnv{
		projectDir:   filepath.Join(t.TempDir(), "Shooter"),
		engine:       t.TempDir(),
		projectsFile: filepath.Join(data, "projects.json"),
		historyFile:  filepath.Join(data, "history.db"),
		invoker:      &mockInvoker{},
		launcher:     &mockLauncher{},
	}

	env.descriptor = filepath.Join(env.projectDir, "Shooter.uproject")
	require.NoError(t, os.MkdirAll(filepath.Join(env.projectDir, "Intermediate", "Build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.projectDir, "Intermediate", "Build", "log.txt"), make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(env.descriptor, []byte(`{"FileVersion": 3, "EngineAssociation": "5.3"}`), 0o644))

	origManager, origSources, origInvoker, origLauncher, origClipboard :=
		newProcessManager, engineSources, newInvoker, newLauncher, copyToClipboard

	t.Cleanup(func() {
		newProcessManager, engineSources, newInvoker, newLauncher, copyToClipboard =
			origManager, origSources, origInvoker, origLauncher, origClipboard
		viper.Reset()
	})

	newProcessManager = func() process.Manager { return noProcesses{} }
	engineSources = func() []toolchain.Source {
		return []toolchain.Source{{
			Name:   "test builds",
			Lookup: func(id string) (string, bool) { return env.engine, id == "5.3" },
		}}
	}
	newInvoker = func(string, logging.Sink) pipeline.Invoker { return env.invoker }
	newLauncher = func(logging.Sink) editorLauncher { return env.launcher }
	copyToClipboard = func(text string) error {
		env.clipboard = append(env.clipboard, text)
		return nil
	}

	return env
}

// run executes a fresh command tree and returns its standard output
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--projects-file", e.projectsFile, "--history-file", e.historyFile))

	err := cmd.Execute()

	return out.String(), err
}

func TestRebuild(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "rebuild", env.descriptor)
	require.NoError(t, err)

	assert.Contains(t, out, "Closing Unreal Editor...")
	assert.Contains(t, out, "No running UnrealEditor processes")
	assert.Contains(t, out, "Cleaning project directories...")
	assert.Contains(t, out, "Deleting Intermediate")
	assert.Contains(t, out, "Using Unreal Engine 5.3 at "+env.engine)
	assert.Contains(t, out, "Launching Unreal Editor...")
	assert.Contains(t, out, "Done.")

	assert.NoDirExists(t, filepath.Join(env.projectDir, "Intermediate"))
	assert.Equal(t, 1, env.invoker.calls)
	assert.Equal(t, env.engine, env.invoker.root)
	assert.Equal(t, []string{env.descriptor}, env.launcher.editor)

	store, err := history.Open(env.historyFile)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "done", records[0].State)
	assert.Equal(t, "5.3", records[0].EngineVersion)
}

func TestRebuild_BuildFailure(t *testing.T) {
	env := newTestEnv(t)
	env.invoker.err = &builder.BuildFailedError{ExitCode: 1}

	out, err := env.run(t, env.descriptor)
	require.Error(t, err)

	assert.Equal(t, codes.BuildFailed, codes.ExitCodeFor(err))
	assert.Equal(t, pipeline.Building, pipeline.StageOf(err))
	assert.Contains(t, out, "Error: build tool exited with code 1")
	assert.NotContains(t, out, "Done.")
	assert.Empty(t, env.launcher.editor)
}

func TestRebuild_EngineNotFound(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.descriptor, []byte(`{"EngineAssociation": "4.27"}`), 0o644))

	out, err := env.run(t, "rebuild", env.descriptor, "--no-history")
	require.Error(t, err)

	assert.Equal(t, codes.EngineNotFound, codes.ExitCodeFor(err))
	assert.Contains(t, out, "Error: unable to resolve Unreal Engine 4.27")
	assert.Zero(t, env.invoker.calls)
	assert.NoFileExists(t, env.historyFile)
}

func TestRebuild_ByRegisteredName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "projects", "add", env.projectDir)
	require.NoError(t, err)

	out, err := env.run(t, "rebuild", "shooter")
	require.NoError(t, err)
	assert.Contains(t, out, "Done.")
	assert.Equal(t, []string{env.descriptor}, env.launcher.editor)
}

func TestRebuild_CurrentDirectory(t *testing.T) {
	env := newTestEnv(t)
	t.Chdir(env.projectDir)

	out, err := env.run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Done.")
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects")

	out, err = env.run(t, "projects", "add", env.descriptor)
	require.NoError(t, err)
	assert.Contains(t, out, "Added Shooter")

	out, err = env.run(t, "projects", "add", env.descriptor)
	require.NoError(t, err)
	assert.Contains(t, out, "already registered")

	out, err = env.run(t, "projects", "list", "-o", "json")
	require.NoError(t, err)

	var entries []projects.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Shooter", entries[0].Name)
	assert.Equal(t, env.descriptor, entries[0].DescriptorPath)

	out, err = env.run(t, "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, env.descriptor)

	out, err = env.run(t, "projects", "path", "Shooter", "--copy")
	require.NoError(t, err)
	assert.Equal(t, env.projectDir+"\n", out)
	assert.Equal(t, []string{env.projectDir}, env.clipboard)

	out, err = env.run(t, "projects", "remove", "Shooter")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed Shooter")

	_, err = env.run(t, "projects", "path", "Shooter")
	assert.ErrorIs(t, err, projects.ErrNotFound)
}

func TestProjects_ListRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "projects", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "resolve", env.descriptor, "-o", "json", "--command")
	require.NoError(t, err)

	var result resolveResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "5.3", result.VersionID)
	assert.Equal(t, env.engine, result.Root)
	assert.Equal(t, "test builds", result.Source)
	require.NotEmpty(t, result.Command)
	assert.Equal(t, "dotnet", result.Command[0])
	assert.Contains(t, result.Command, "-projectfiles")
	assert.Contains(t, result.Command, "-project="+env.descriptor)

	out, err = env.run(t, "resolve", env.descriptor)
	require.NoError(t, err)
	assert.Contains(t, out, "Unreal Engine 5.3")
	assert.Contains(t, out, "(from test builds)")
}

func TestResolve_Override(t *testing.T) {
	env := newTestEnv(t)
	override := t.TempDir()

	base, err := os.UserConfigDir()
	require.NoError(t, err)

	configDir := filepath.Join(base, "ueh")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"),
		[]byte("engine_overrides:\n  \"5.3\": "+override+"\n"), 0o644))

	out, err := env.run(t, "resolve", env.descriptor, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "root: "+override)
	assert.Contains(t, out, "source: "+toolchain.SourceOverrides)
}

func TestClean(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "clean", env.descriptor, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Intermediate")
	assert.Contains(t, out, "2.0 KB would be freed")
	assert.DirExists(t, filepath.Join(env.projectDir, "Intermediate"))

	out, err = env.run(t, "clean", env.descriptor)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleting Intermediate")
	assert.NoDirExists(t, filepath.Join(env.projectDir, "Intermediate"))

	out, err = env.run(t, "clean", env.descriptor, "-n")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to clean")
}

func TestOpen(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "open", "ide", env.descriptor)
	assert.ErrorContains(t, err, "no solution file")

	solution := filepath.Join(env.projectDir, "Shooter.sln")
	require.NoError(t, os.WriteFile(solution, nil, 0o644))

	_, err = env.run(t, "open", "ide", env.descriptor)
	require.NoError(t, err)
	assert.Equal(t, []string{solution}, env.launcher.ide)

	_, err = env.run(t, "open", "explorer", env.descriptor)
	require.NoError(t, err)
	assert.Equal(t, []string{env.projectDir}, env.launcher.explorer)

	_, err = env.run(t, "open", "editor", env.descriptor)
	require.NoError(t, err)
	assert.Equal(t, []string{env.descriptor}, env.launcher.editor)
	assert.Zero(t, env.invoker.calls, "opening never rebuilds")
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")

	_, err = env.run(t, "rebuild", env.descriptor)
	require.NoError(t, err)

	env.invoker.err = &builder.BuildFailedError{ExitCode: 6}
	_, err = env.run(t, "rebuild", env.descriptor)
	require.Error(t, err)

	out, err = env.run(t, "history", "-o", "json")
	require.NoError(t, err)

	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "failed", records[0].State)
	assert.Equal(t, "building", records[0].Stage)
	assert.Equal(t, "build tool exited with code 6", records[0].Cause)
	assert.Equal(t, "done", records[1].State)

	out, err = env.run(t, "history", env.descriptor, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Shooter")
	assert.Contains(t, out, "failed (building: build tool exited with code 6)")
	assert.NotContains(t, out, "done")

	out, err = env.run(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared")

	out, err = env.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestProjectLabel(t *testing.T) {
	assert.Equal(t, "Shooter", projectLabel("/work/Shooter/Shooter.uproject"))
	assert.Equal(t, "Game", projectLabel("Game"))
}

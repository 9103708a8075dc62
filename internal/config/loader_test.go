package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLoader returns a loader whose global config lives under a temp dir
func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	base := t.TempDir()
	loader := NewLoader()
	loader.configDir = func() (string, error) { return base, nil }

	globalDir := filepath.Join(base, AppName)
	require.NoError(t, os.MkdirAll(globalDir, 0o755))

	return loader, globalDir
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
}

func TestLoader_SetupViperDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	loader := NewLoader()
	loader.setupViperDefaults()

	assert.Equal(t, "UnrealEditor", viper.GetString("editor_process"))
	assert.Equal(t, 8*time.Second, viper.GetDuration("kill_timeout"))
	assert.Equal(t, 250*time.Millisecond, viper.GetDuration("poll_interval"))
	assert.Equal(t, "dotnet", viper.GetString("dotnet_path"))
	assert.Equal(t, false, viper.GetBool("verbose"))
}

func TestLoader_LoadGlobalConfig(t *testing.T) {
	t.Run("loads yaml config", func(t *testing.T) {
		loader, globalDir := newTestLoader(t)
		configPath := filepath.Join(globalDir, "config.yml")
		configContent := `editor_process: "UnrealEditor-Custom"
kill_timeout: 12s
engine_overrides:
  "5.3": /opt/UE_5.3`
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

		loader.loadGlobalConfig()

		assert.Equal(t, "UnrealEditor-Custom", viper.GetString("editor_process"))
		assert.Equal(t, 12*time.Second, viper.GetDuration("kill_timeout"))
		assert.Equal(t, []string{configPath}, loader.Files)
	})

	t.Run("loads json config", func(t *testing.T) {
		loader, globalDir := newTestLoader(t)
		configPath := filepath.Join(globalDir, "config.json")
		configContent := `{
  "dotnet_path": "/usr/share/dotnet/dotnet",
  "verbose": true
}`
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

		loader.loadGlobalConfig()

		assert.Equal(t, "/usr/share/dotnet/dotnet", viper.GetString("dotnet_path"))
		assert.True(t, viper.GetBool("verbose"))
	})

	t.Run("handles missing config dir gracefully", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		loader := NewLoader()
		loader.configDir = func() (string, error) { return "", os.ErrNotExist }

		assert.NotPanics(t, func() {
			loader.loadGlobalConfig()
		})
		assert.Empty(t, loader.Files)
	})
}

func TestLoader_LoadLocalConfig(t *testing.T) {
	t.Run("loads local config from project directory", func(t *testing.T) {
		loader, _ := newTestLoader(t)

		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, ".ueh.yml")
		require.NoError(t, os.WriteFile(configPath, []byte(`poll_interval: 50ms`), 0o644))

		descriptor := filepath.Join(tempDir, "Game.uproject")
		require.NoError(t, os.WriteFile(descriptor, []byte("{}"), 0o644))

		loader.loadLocalConfig([]string{descriptor})

		assert.Equal(t, 50*time.Millisecond, viper.GetDuration("poll_interval"))
		assert.Equal(t, []string{configPath}, loader.Files)
		require.NotNil(t, loader.Local)
		assert.Equal(t, LocalConfig{Path: configPath, Dir: tempDir, Depth: 0}, *loader.Local)
	})

	t.Run("local config overrides global config", func(t *testing.T) {
		loader, globalDir := newTestLoader(t)
		require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yml"),
			[]byte("kill_timeout: 20s\neditor_process: Global"), 0o644))

		projectDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".ueh.yaml"), []byte("kill_timeout: 4s"), 0o644))

		loader.loadGlobalConfig()
		loader.loadLocalConfig([]string{projectDir})

		assert.Equal(t, 4*time.Second, viper.GetDuration("kill_timeout"))
		assert.Equal(t, "Global", viper.GetString("editor_process"))
		assert.Len(t, loader.Files, 2)
	})

	t.Run("project names do not break lookup", func(t *testing.T) {
		loader, _ := newTestLoader(t)

		assert.NotPanics(t, func() {
			loader.loadLocalConfig([]string{"NotAPath"})
		})
	})
}

func TestLoader_Load(t *testing.T) {
	loader, globalDir := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yml"),
		[]byte("kill_timeout: 20s\npoll_interval: 1s"), 0o644))

	t.Setenv("UEH_EDITOR_PROCESS", "FromEnv")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Duration("timeout", DefaultKillTimeout, "")
	cmd.Flags().String("projects-file", "", "")
	cmd.Flags().Bool("verbose", false, "")

	projectsFile := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, cmd.Flags().Set("timeout", "30s"))
	require.NoError(t, cmd.Flags().Set("projects-file", projectsFile))

	cfg, err := loader.Load(cmd, nil)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.KillTimeout, "flags beat config files")
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "FromEnv", cfg.EditorProcess)
	assert.Equal(t, projectsFile, cfg.ProjectsFile)
	assert.False(t, cfg.Verbose, "unset flags keep lower layers")
}

func TestLoader_LoadRejectsInvalidDurations(t *testing.T) {
	loader, globalDir := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yml"),
		[]byte("kill_timeout: 1s\npoll_interval: 2s"), 0o644))

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("projects-file", filepath.Join(t.TempDir(), "projects.json"), "")

	_, err := loader.Load(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be shorter than kill timeout")
}

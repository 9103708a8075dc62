package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Norgate-AV/ueh/internal/history"
	"github.com/Norgate-AV/ueh/internal/process"
	"github.com/Norgate-AV/ueh/internal/projects"
	"github.com/Norgate-AV/ueh/internal/utils"
)

// Default configuration values
const (
	DefaultEditorProcess = "UnrealEditor"
	DefaultKillTimeout   = process.DefaultTimeout
	DefaultPollInterval  = process.DefaultPollInterval
	DefaultDotnetPath    = "dotnet"
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultVerbose       = false
	DefaultNoHistory     = false
)

// Holds the configuration options for ueh
type Config struct {
	// Name of the editor process closed before a rebuild
	EditorProcess string

	// How long to wait for the editor to exit, and how often to check
	KillTimeout  time.Duration
	PollInterval time.Duration

	// dotnet host used to run UnrealBuildTool
	DotnetPath string

	ProjectsFile string
	HistoryFile  string

	// Skip recording the run in the history database
	NoHistory bool

	// Engine version id to install root, consulted before any other source
	EngineOverrides map[string]string

	LogLevel  string
	LogFormat string

	// Enable verbose output
	Verbose bool
}

// Load builds a Config from the values currently held by viper
func Load() (*Config, error) {
	cfg := &Config{
		EditorProcess:   viper.GetString("editor_process"),
		KillTimeout:     viper.GetDuration("kill_timeout"),
		PollInterval:    viper.GetDuration("poll_interval"),
		DotnetPath:      viper.GetString("dotnet_path"),
		ProjectsFile:    viper.GetString("projects_file"),
		HistoryFile:     viper.GetString("history_file"),
		NoHistory:       viper.GetBool("no_history"),
		EngineOverrides: viper.GetStringMapString("engine_overrides"),
		LogLevel:        viper.GetString("log_level"),
		LogFormat:       viper.GetString("log_format"),
		Verbose:         viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if cfg.EditorProcess == "" {
		cfg.EditorProcess = DefaultEditorProcess
	}

	if cfg.DotnetPath == "" {
		cfg.DotnetPath = DefaultDotnetPath
	}

	if cfg.ProjectsFile == "" {
		path, err := projects.DefaultPath()
		if err != nil {
			return nil, err
		}

		cfg.ProjectsFile = path
	}

	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(filepath.Dir(cfg.ProjectsFile), history.DefaultFileName)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.KillTimeout <= 0 {
		return fmt.Errorf("invalid kill timeout: %s", c.KillTimeout)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %s", c.PollInterval)
	}

	if c.PollInterval >= c.KillTimeout {
		return fmt.Errorf("poll interval %s must be shorter than kill timeout %s", c.PollInterval, c.KillTimeout)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
		c.LogFormat = strings.ToLower(c.LogFormat)
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}

	var err error
	if c.ProjectsFile, err = utils.Absolute(c.ProjectsFile); err != nil {
		return fmt.Errorf("invalid projects file path: %v", err)
	}

	if c.HistoryFile, err = utils.Absolute(c.HistoryFile); err != nil {
		return fmt.Errorf("invalid history file path: %v", err)
	}

	// dotnet is usually found on PATH, so only paths are made absolute
	if utils.HasSeparator(c.DotnetPath) {
		if c.DotnetPath, err = utils.Absolute(c.DotnetPath); err != nil {
			return fmt.Errorf("invalid dotnet path: %v", err)
		}
	}

	// Resolve engine override roots
	for id, root := range c.EngineOverrides {
		if root == "" {
			delete(c.EngineOverrides, id)
			continue
		}

		abs, err := utils.Absolute(root)
		if err != nil {
			return fmt.Errorf("invalid engine override for %s: %v", id, err)
		}

		c.EngineOverrides[id] = abs
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the global config directory and the local config file
const AppName = "ueh"

// EnvPrefix prefixes environment overrides, e.g. UEH_KILL_TIMEOUT
const EnvPrefix = "UEH"

var configExts = []string{"yml", "yaml", "json", "toml"}

// flagKeys maps command flags to their config keys
var flagKeys = map[string]string{
	"editor-process": "editor_process",
	"timeout":        "kill_timeout",
	"poll-interval":  "poll_interval",
	"dotnet":         "dotnet_path",
	"projects-file":  "projects_file",
	"history-file":   "history_file",
	"no-history":     "no_history",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"verbose":        "verbose",
}

// Loader handles configuration loading from various sources
type Loader struct {
	configDir func() (string, error)

	// Files lists the config files read, in order
	Files []string

	// Local is the project config merged, if any
	Local *LocalConfig
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{configDir: os.UserConfigDir}
}

// Load reads defaults, the global config file, the local config file for the
// project named by args[0], environment overrides and command flags, each
// taking precedence over the previous one
func (l *Loader) Load(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(args)
	l.bindEnv()
	l.bindCommandFlags(cmd)

	return Load()
}

// GlobalDir returns the directory holding the global config file
func (l *Loader) GlobalDir() (string, error) {
	base, err := l.configDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, AppName), nil
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("editor_process", DefaultEditorProcess)
	viper.SetDefault("kill_timeout", DefaultKillTimeout)
	viper.SetDefault("poll_interval", DefaultPollInterval)
	viper.SetDefault("dotnet_path", DefaultDotnetPath)
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("log_format", DefaultLogFormat)
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("no_history", DefaultNoHistory)
}

// loadGlobalConfig loads global configuration from the user config directory
func (l *Loader) loadGlobalConfig() {
	dir, err := l.GlobalDir()
	if err != nil {
		return
	}

	for _, ext := range configExts {
		globalPath := filepath.Join(dir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.MergeInConfig(); err == nil {
				l.Files = append(l.Files, globalPath)
				break
			}
		}
	}
}

// loadLocalConfig loads local configuration from the project directory, or
// the working directory when args do not name a path
func (l *Loader) loadLocalConfig(args []string) {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	if len(args) > 0 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			if info, err := os.Stat(abs); err == nil {
				dir = abs
				if !info.IsDir() {
					dir = filepath.Dir(abs)
				}
			}
		}
	}

	local, ok := FindLocalConfig(dir)
	if !ok {
		return
	}

	viper.SetConfigFile(local.Path)
	if err := viper.MergeInConfig(); err == nil {
		l.Files = append(l.Files, local.Path)
		l.Local = &local
	}
}

// bindEnv enables UEH_* environment overrides
func (l *Loader) bindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// bindCommandFlags binds the command flags that exist to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for name, key := range flagKeys {
		if flag := lookupFlag(cmd, name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}

	return cmd.InheritedFlags().Lookup(name)
}

package toolchain

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Source names, in default priority order
const (
	SourceOverrides      = "config overrides"
	SourceUserBuilds     = "user builds"
	SourceMachineBuilds  = "machine builds"
	SourceMachineInstall = "machine installs"
)

// keyDelimiter replaces viper's "." so that ids like "5.3" stay a single key
const keyDelimiter = "::"

// WithOverrides puts a source for the configured overrides ahead of sources.
// An empty map leaves sources unchanged.
func WithOverrides(overrides map[string]string, sources []Source) []Source {
	if len(overrides) == 0 {
		return sources
	}

	src := Source{
		Name: SourceOverrides,
		Lookup: func(id string) (string, bool) {
			return lookupFold(overrides, id)
		},
	}

	return append([]Source{src}, sources...)
}

// FileSources builds the three lookup tables from engines.{yml,yaml,json,toml}
// files: the user file's "builds" map, then the machine file's "builds" map,
// then the machine file's "installs.<id>.installed_directory" entries. Each
// file is read at most once, on first lookup.
func FileSources(userDir, machineDir string) []Source {
	user := &engineTable{dir: userDir}
	machine := &engineTable{dir: machineDir}

	return []Source{
		{
			Name: SourceUserBuilds,
			Lookup: func(id string) (string, bool) {
				return user.build(id)
			},
		},
		{
			Name: SourceMachineBuilds,
			Lookup: func(id string) (string, bool) {
				return machine.build(id)
			},
		},
		{
			Name: SourceMachineInstall,
			Lookup: func(id string) (string, bool) {
				return machine.install(id)
			},
		},
	}
}

// readTable is replaced in tests
var readTable = loadTable

// engineTable is an engines file shared by the sources reading it
type engineTable struct {
	dir  string
	once sync.Once
	v    *viper.Viper
}

func (t *engineTable) load() *viper.Viper {
	t.once.Do(func() {
		t.v = readTable(t.dir)
	})

	return t.v
}

// loadTable reads the engines file in dir, or returns nil when there is none
func loadTable(dir string) *viper.Viper {
	if dir == "" {
		return nil
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigName("engines")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		return nil
	}

	return v
}

func (t *engineTable) build(id string) (string, bool) {
	v := t.load()
	if v == nil {
		return "", false
	}

	return lookupFold(v.GetStringMapString("builds"), id)
}

func (t *engineTable) install(id string) (string, bool) {
	v := t.load()
	if v == nil {
		return "", false
	}

	for key, value := range v.GetStringMap("installs") {
		if !strings.EqualFold(key, id) {
			continue
		}

		entry, ok := value.(map[string]any)
		if !ok {
			return "", false
		}

		for field, dirValue := range entry {
			if strings.EqualFold(field, "installed_directory") {
				path, ok := dirValue.(string)
				return filepath.Clean(path), ok && path != ""
			}
		}
	}

	return "", false
}

// lookupFold finds id in m ignoring case, like registry value names
func lookupFold(m map[string]string, id string) (string, bool) {
	if path, ok := m[id]; ok && path != "" {
		return path, true
	}

	for key, path := range m {
		if strings.EqualFold(key, id) && path != "" {
			return path, true
		}
	}

	return "", false
}

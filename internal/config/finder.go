package config

import (
	"os"
	"path/filepath"
)

// LocalConfig is a project config file found above a start directory
type LocalConfig struct {
	Path string
	Dir  string
	// Depth is how many parents were climbed from the start directory
	Depth int
}

// FindLocalConfig looks for .ueh.<ext> in start and each parent. The search
// ends at the first directory holding .git, so a config outside the
// repository the project lives in is never picked up.
func FindLocalConfig(start string) (LocalConfig, bool) {
	dir := filepath.Clean(start)

	for depth := 0; ; depth++ {
		if path, ok := localConfigIn(dir); ok {
			return LocalConfig{Path: path, Dir: dir, Depth: depth}, true
		}

		if exists(filepath.Join(dir, ".git")) {
			return LocalConfig{}, false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return LocalConfig{}, false
		}

		dir = parent
	}
}

func localConfigIn(dir string) (string, bool) {
	for _, ext := range configExts {
		if path := filepath.Join(dir, "."+AppName+"."+ext); exists(path) {
			return path, true
		}
	}

	return "", false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

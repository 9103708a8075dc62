package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorExt is the extension of an Unreal project descriptor
const DescriptorExt = ".uproject"

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

// Absolute expands ~ and returns the cleaned absolute form of path. An empty
// path stays empty.
func Absolute(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}

	return filepath.Abs(expanded)
}

// HasSeparator reports whether path contains a directory separator of either kind
func HasSeparator(path string) bool {
	return strings.ContainsAny(path, `/\`)
}

// IsDescriptor reports whether path names a .uproject file, ignoring case
func IsDescriptor(path string) bool {
	return strings.EqualFold(filepath.Ext(path), DescriptorExt)
}

// FindDescriptor returns the absolute descriptor path for path. A directory
// must contain exactly one .uproject file.
func FindDescriptor(path string) (string, error) {
	abs, err := Absolute(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !IsDescriptor(abs) {
			return "", fmt.Errorf("%s is not a %s file", path, DescriptorExt)
		}

		return abs, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() && IsDescriptor(e.Name()) {
			found = append(found, filepath.Join(abs, e.Name()))
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s file in %s", DescriptorExt, path)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%s contains %d %s files", path, len(found), DescriptorExt)
	}
}

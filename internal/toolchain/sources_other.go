//go:build !windows

package toolchain

import (
	"os"
	"path/filepath"
)

// MachineDir holds the machine-wide engines file on platforms without a registry
const MachineDir = "/etc/ueh"

// DefaultSources returns the platform lookup sources in priority order
func DefaultSources() []Source {
	userDir := ""
	if dir, err := os.UserConfigDir(); err == nil {
		userDir = filepath.Join(dir, "ueh")
	}

	return FileSources(userDir, MachineDir)
}

//go:build linux

package process

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// NewManager returns the process manager for this platform
func NewManager() Manager {
	return &procManager{root: "/proc"}
}

// procManager reads the process table from procfs
type procManager struct {
	root string
}

func (m *procManager) List(name string) ([]Process, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", m.root, err)
	}

	var procs []Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		if m.zombie(entry.Name()) {
			continue
		}

		for _, candidate := range m.names(entry.Name()) {
			if MatchesName(candidate, name) {
				procs = append(procs, Process{PID: pid, Name: normalizeName(candidate)})
				break
			}
		}
	}

	return procs, nil
}

// names returns the short command name and the executable base name. comm is
// truncated by the kernel, so the exe link is checked as well.
func (m *procManager) names(pid string) []string {
	var names []string

	if comm, err := os.ReadFile(filepath.Join(m.root, pid, "comm")); err == nil {
		names = append(names, strings.TrimSpace(string(comm)))
	}

	if exe, err := os.Readlink(filepath.Join(m.root, pid, "exe")); err == nil {
		names = append(names, filepath.Base(strings.TrimSuffix(exe, " (deleted)")))
	}

	return names
}

// zombie reports whether pid has exited but not been reaped. The state field
// follows the last ')' since the command name may itself contain one.
func (m *procManager) zombie(pid string) bool {
	stat, err := os.ReadFile(filepath.Join(m.root, pid, "stat"))
	if err != nil {
		return false
	}

	i := bytes.LastIndexByte(stat, ')')
	if i < 0 {
		return false
	}

	fields := strings.Fields(string(stat[i+1:]))

	return len(fields) > 0 && fields[0] == "Z"
}

func (m *procManager) Terminate(pid int) error {
	err := unix.Kill(pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("process %d has already exited", pid)
	}

	return err
}

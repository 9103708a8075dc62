//go:build unix && !linux

package process

import (
	"errors"
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"
)

// NewManager returns the process manager for this platform
func NewManager() Manager {
	return &psManager{}
}

// psManager shells out to ps, which every BSD-derived system ships
type psManager struct{}

func (m *psManager) List(name string) ([]Process, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run ps: %w", err)
	}

	return parsePS(string(out), name), nil
}

func (m *psManager) Terminate(pid int) error {
	err := unix.Kill(pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("process %d has already exited", pid)
	}

	return err
}

// Package process finds running processes by name and stops them.
package process

import (
	"bufio"
	"strconv"
	"strings"
)

// Process is a running process matched by name
type Process struct {
	PID  int
	Name string
}

// Manager enumerates and terminates processes. Each platform provides its own
// implementation through NewManager.
type Manager interface {
	// List returns every running process whose executable name matches name
	List(name string) ([]Process, error)

	// Terminate requests that the process with the given PID stops
	Terminate(pid int) error
}

// MatchesName reports whether an executable name refers to the process name
// we are looking for. Comparison ignores case, any leading directory and a
// trailing .exe.
func MatchesName(candidate, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}

	return strings.EqualFold(normalizeName(candidate), normalizeName(name))
}

func normalizeName(n string) string {
	n = strings.TrimSpace(n)
	n = strings.ReplaceAll(n, `\`, "/")
	if i := strings.LastIndex(n, "/"); i >= 0 {
		n = n[i+1:]
	}

	if strings.HasSuffix(strings.ToLower(n), ".exe") {
		n = n[:len(n)-4]
	}

	return n
}

// parsePS parses the output of `ps -axo pid=,comm=`
func parsePS(out string, name string) []Process {
	var procs []Process

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pidField, comm, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}

		pid, err := strconv.Atoi(pidField)
		if err != nil {
			continue
		}

		comm = strings.TrimSpace(comm)
		if MatchesName(comm, name) {
			procs = append(procs, Process{PID: pid, Name: normalizeName(comm)})
		}
	}

	return procs
}

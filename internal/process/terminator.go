package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Norgate-AV/ueh/internal/logging"
)

const (
	// DefaultTimeout is how long Terminate waits for processes to exit
	DefaultTimeout = 8000 * time.Millisecond

	// DefaultPollInterval is how often the process list is checked while waiting
	DefaultPollInterval = 250 * time.Millisecond
)

// ErrTerminationTimeout matches any *TimeoutError
var ErrTerminationTimeout = errors.New("termination timed out")

// TimeoutError is returned when processes are still running after the timeout
type TimeoutError struct {
	Name      string
	Timeout   time.Duration
	Remaining []Process
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s failed to close within %s (%d still running)", e.Name, e.Timeout, len(e.Remaining))
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTerminationTimeout
}

// Terminator stops every process with a given name and waits until they are gone
type Terminator struct {
	manager Manager
	log     logging.Sink
}

// NewTerminator creates a terminator using the given process manager
func NewTerminator(manager Manager, log logging.Sink) *Terminator {
	if log == nil {
		log = logging.Discard
	}

	return &Terminator{
		manager: manager,
		log:     log,
	}
}

// Terminate requests termination of every process matching name, then polls
// every pollInterval until none are left or timeout elapses. A failure to stop
// an individual process is logged and does not stop the remaining requests.
func (t *Terminator) Terminate(ctx context.Context, name string, timeout, pollInterval time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	procs, err := t.manager.List(name)
	if err != nil {
		return fmt.Errorf("failed to list %s processes: %w", name, err)
	}

	if len(procs) == 0 {
		t.log(fmt.Sprintf("No running %s processes", name))
		return nil
	}

	for _, p := range procs {
		t.log(fmt.Sprintf("Closing %s (PID %d)", name, p.PID))

		if err := t.manager.Terminate(p.PID); err != nil {
			t.log(fmt.Sprintf("Failed to close %s (PID %d): %v", name, p.PID, err))
		}
	}

	return t.wait(ctx, name, timeout, pollInterval)
}

func (t *Terminator) wait(ctx context.Context, name string, timeout, pollInterval time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		remaining, err := t.manager.List(name)
		if err != nil {
			return fmt.Errorf("failed to list %s processes: %w", name, err)
		}

		if len(remaining) == 0 {
			t.log(fmt.Sprintf("%s closed", name))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			// one last look before giving up
			remaining, err = t.manager.List(name)
			if err == nil && len(remaining) == 0 {
				t.log(fmt.Sprintf("%s closed", name))
				return nil
			}

			t.log(fmt.Sprintf("%s still running after %s", name, timeout))

			return &TimeoutError{Name: name, Timeout: timeout, Remaining: remaining}
		case <-ticker.C:
		}
	}
}

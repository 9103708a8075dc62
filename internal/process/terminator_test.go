package process

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/ueh/internal/logging"
)

// fakeManager returns scripted List results; the last one repeats forever
type fakeManager struct {
	mu         sync.Mutex
	lists      [][]Process
	listCalls  int
	listErr    error
	failPIDs   map[int]error
	terminated []int
}

func (m *fakeManager) List(name string) ([]Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	i := m.listCalls
	if i >= len(m.lists) {
		i = len(m.lists) - 1
	}
	m.listCalls++

	if i < 0 {
		return nil, nil
	}

	return m.lists[i], nil
}

func (m *fakeManager) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.terminated = append(m.terminated, pid)

	return m.failPIDs[pid]
}

func editors(pids ...int) []Process {
	procs := make([]Process, 0, len(pids))
	for _, pid := range pids {
		procs = append(procs, Process{PID: pid, Name: "UnrealEditor"})
	}

	return procs
}

func TestTerminator_NoProcesses(t *testing.T) {
	m := &fakeManager{lists: [][]Process{nil}}
	logs := logging.NewBuffer()

	start := time.Now()
	err := NewTerminator(m, logs.Log).Terminate(context.Background(), "UnrealEditor", time.Second, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Empty(t, m.terminated, "no kill requests when nothing is running")
	assert.Equal(t, 1, m.listCalls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Contains(t, logs.Messages(), "No running UnrealEditor processes")
}

func TestTerminator_ContinuesAfterFailedRequest(t *testing.T) {
	m := &fakeManager{
		lists:    [][]Process{editors(10, 20, 30), nil},
		failPIDs: map[int]error{20: errors.New("access denied")},
	}
	logs := logging.NewBuffer()

	err := NewTerminator(m, logs.Log).Terminate(context.Background(), "UnrealEditor", time.Second, 5*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30}, m.terminated)
	assert.Contains(t, logs.Messages(), "Failed to close UnrealEditor (PID 20): access denied")
	assert.Contains(t, logs.Messages(), "UnrealEditor closed")
}

func TestTerminator_WaitsUntilEmpty(t *testing.T) {
	m := &fakeManager{
		lists: [][]Process{editors(1, 2), editors(1, 2), editors(2), nil},
	}

	err := NewTerminator(m, nil).Terminate(context.Background(), "UnrealEditor", time.Second, 5*time.Millisecond)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.listCalls, 4)
}

func TestTerminator_Timeout(t *testing.T) {
	m := &fakeManager{lists: [][]Process{editors(42)}}
	logs := logging.NewBuffer()

	err := NewTerminator(m, logs.Log).Terminate(context.Background(), "UnrealEditor", 40*time.Millisecond, 5*time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminationTimeout)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "UnrealEditor", timeoutErr.Name)
	assert.Equal(t, editors(42), timeoutErr.Remaining)
	assert.Equal(t, []int{42}, m.terminated)
	assert.Contains(t, logs.Messages(), "UnrealEditor still running after 40ms")
}

func TestTerminator_ListError(t *testing.T) {
	m := &fakeManager{listErr: errors.New("boom")}

	err := NewTerminator(m, nil).Terminate(context.Background(), "UnrealEditor", time.Second, time.Millisecond)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list UnrealEditor processes")
	assert.Empty(t, m.terminated)
}

func TestTerminator_ContextCancelled(t *testing.T) {
	m := &fakeManager{lists: [][]Process{editors(7)}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := NewTerminator(m, nil).Terminate(ctx, "UnrealEditor", 5*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerminator_DefaultsForNonPositiveDurations(t *testing.T) {
	m := &fakeManager{lists: [][]Process{editors(3), nil}}

	err := NewTerminator(m, nil).Terminate(context.Background(), "UnrealEditor", 0, 0)

	require.NoError(t, err)
}

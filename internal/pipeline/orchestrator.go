// Package pipeline sequences the rebuild-and-launch workflow: close the
// editor, clean artifacts, resolve the engine, regenerate project files and
// start the editor again.
//
// Each stage runs exactly once and only after the previous one succeeded. The
// first failure moves the pipeline to Failed and the remaining stages are
// skipped. Nothing done by an earlier stage is rolled back.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Norgate-AV/ueh/internal/history"
	"github.com/Norgate-AV/ueh/internal/logging"
	"github.com/Norgate-AV/ueh/internal/process"
	"github.com/Norgate-AV/ueh/internal/toolchain"
)

// Terminator stops running editor processes
type Terminator interface {
	Terminate(ctx context.Context, name string, timeout, pollInterval time.Duration) error
}

// Cleaner deletes build artifacts under a project root
type Cleaner interface {
	Clean(projectRoot string) error
}

// Resolver finds the engine install a project builds with
type Resolver interface {
	Resolve(descriptorPath string) (toolchain.Installation, error)
}

// Invoker regenerates IDE project files
type Invoker interface {
	Invoke(ctx context.Context, installRoot, descriptorPath string) error
}

// Launcher starts the editor without waiting for it
type Launcher interface {
	LaunchEditor(installRoot, descriptorPath string) error
}

// Recorder keeps a record of finished runs
type Recorder interface {
	Record(rec history.Record) error
}

// Dependencies are the collaborators of an Orchestrator. Recorder is optional.
type Dependencies struct {
	Terminator Terminator
	Cleaner    Cleaner
	Resolver   Resolver
	Invoker    Invoker
	Launcher   Launcher
	Recorder   Recorder
}

// Options tune the termination stage
type Options struct {
	EditorProcess string
	KillTimeout   time.Duration
	PollInterval  time.Duration
}

// DefaultEditorProcess is the editor's process name
const DefaultEditorProcess = "UnrealEditor"

// Outcome describes a finished run
type Outcome struct {
	DescriptorPath string
	State          State
	Stage          State
	Err            error
	Installation   toolchain.Installation
	Started        time.Time
	Finished       time.Time
}

// Record converts the outcome into a history record
func (o Outcome) Record() history.Record {
	rec := history.Record{
		DescriptorPath: o.DescriptorPath,
		State:          string(o.State),
		Stage:          string(o.Stage),
		EngineVersion:  o.Installation.VersionID,
		EngineRoot:     o.Installation.Root,
		Started:        o.Started,
		Finished:       o.Finished,
	}

	if o.Err != nil {
		rec.Cause = o.Err.Error()
	}

	return rec
}

// Orchestrator runs the rebuild-and-launch pipeline. A single Orchestrator may
// be shared by several goroutines; rebuilds of the same project are refused
// while one is in flight.
type Orchestrator struct {
	deps Dependencies
	opts Options
	log  logging.Sink
	now  func() time.Time

	// OnTransition, when set, is called on every state change
	OnTransition func(from, to State)

	mu      sync.Mutex
	running map[string]struct{}
}

// New creates an orchestrator. Zero options fall back to the defaults.
func New(deps Dependencies, opts Options, log logging.Sink) *Orchestrator {
	if opts.EditorProcess == "" {
		opts.EditorProcess = DefaultEditorProcess
	}

	if opts.KillTimeout <= 0 {
		opts.KillTimeout = process.DefaultTimeout
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = process.DefaultPollInterval
	}

	if log == nil {
		log = logging.Discard
	}

	return &Orchestrator{
		deps:    deps,
		opts:    opts,
		log:     log,
		now:     time.Now,
		running: make(map[string]struct{}),
	}
}

// run tracks the state of one invocation
type run struct {
	o       *Orchestrator
	state   State
	outcome Outcome
}

func (r *run) enter(next State) {
	if !r.state.CanTransition(next) {
		invalidTransition(r.state, next)
	}

	from := r.state
	r.state = next

	if r.o.OnTransition != nil {
		r.o.OnTransition(from, next)
	}
}

// fail moves the run to Failed and reports err to the log
func (r *run) fail(err error) (Outcome, error) {
	stage := r.state
	r.enter(Failed)

	stageErr := &StageError{Stage: stage, Err: err}

	r.outcome.State = Failed
	r.outcome.Stage = stage
	r.outcome.Err = stageErr

	r.o.log("Error: " + err.Error())
	r.o.finish(&r.outcome)

	return r.outcome, stageErr
}

// RebuildAndLaunch closes the editor, cleans the project next to
// descriptorPath, regenerates its IDE files with the resolved engine and
// starts the editor again. The returned error is a *StageError naming the
// failed stage, or ErrRebuildInProgress.
func (o *Orchestrator) RebuildAndLaunch(ctx context.Context, descriptorPath string) (Outcome, error) {
	if abs, err := filepath.Abs(descriptorPath); err == nil {
		descriptorPath = abs
	}

	key := strings.ToLower(filepath.Clean(descriptorPath))
	if !o.acquire(key) {
		return Outcome{DescriptorPath: descriptorPath, State: Idle, Err: ErrRebuildInProgress}, ErrRebuildInProgress
	}
	defer o.release(key)

	r := &run{
		o:     o,
		state: Idle,
		outcome: Outcome{
			DescriptorPath: descriptorPath,
			Started:        o.now(),
		},
	}

	r.enter(Terminating)
	o.log("Closing Unreal Editor...")
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if err := o.deps.Terminator.Terminate(ctx, o.opts.EditorProcess, o.opts.KillTimeout, o.opts.PollInterval); err != nil {
		return r.fail(err)
	}

	r.enter(Cleaning)
	o.log("Cleaning project directories...")
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if err := o.deps.Cleaner.Clean(filepath.Dir(descriptorPath)); err != nil {
		return r.fail(err)
	}

	r.enter(Resolving)
	o.log("Resolving engine...")
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	inst, err := o.deps.Resolver.Resolve(descriptorPath)
	if err != nil {
		return r.fail(err)
	}

	r.outcome.Installation = inst
	o.log(fmt.Sprintf("Using Unreal Engine %s at %s", inst.VersionID, inst.Root))

	r.enter(Building)
	o.log("Generating IDE project files...")
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if err := o.deps.Invoker.Invoke(ctx, inst.Root, descriptorPath); err != nil {
		return r.fail(err)
	}

	r.enter(Launching)
	o.log("Launching Unreal Editor...")
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	if err := o.deps.Launcher.LaunchEditor(inst.Root, descriptorPath); err != nil {
		return r.fail(err)
	}

	r.enter(Done)
	r.outcome.State = Done
	o.log("Done.")
	o.finish(&r.outcome)

	return r.outcome, nil
}

// finish stamps the outcome and hands it to the recorder
func (o *Orchestrator) finish(outcome *Outcome) {
	outcome.Finished = o.now()

	if o.deps.Recorder == nil {
		return
	}

	if err := o.deps.Recorder.Record(outcome.Record()); err != nil {
		o.log(fmt.Sprintf("Warning: failed to record run history: %v", err))
	}
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.running[key]; busy {
		return false
	}

	o.running[key] = struct{}{}

	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.running, key)
}

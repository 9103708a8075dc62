// Package toolchain works out which installed engine a project builds with.
//
// The engine version comes from the project descriptor. The install root comes
// from an ordered list of lookup sources; the first source that names an
// existing directory wins, and sources naming a missing directory are skipped.
package toolchain

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Norgate-AV/ueh/internal/logging"
)

// Source is one place an install root can be looked up
type Source struct {
	Name   string
	Lookup func(versionID string) (string, bool)
}

// Installation is a resolved engine install
type Installation struct {
	VersionID string `json:"versionId" yaml:"version_id"`
	Root      string `json:"root" yaml:"root"`
	Source    string `json:"source" yaml:"source"`
}

// EngineNotFoundError is returned when no source names an existing directory
type EngineNotFoundError struct {
	VersionID string
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("unable to resolve Unreal Engine %s", e.VersionID)
}

// Resolver resolves install roots from an ordered list of sources
type Resolver struct {
	sources []Source
	logger  *slog.Logger
	isDir   func(path string) bool
}

// NewResolver creates a resolver that consults sources in order
func NewResolver(sources []Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}

	return &Resolver{
		sources: sources,
		logger:  logger,
		isDir:   isDir,
	}
}

// Sources returns the lookup sources in priority order
func (r *Resolver) Sources() []Source {
	return r.sources
}

// Resolve reads the engine association from the descriptor and resolves it
func (r *Resolver) Resolve(descriptorPath string) (Installation, error) {
	id, err := ReadVersionID(descriptorPath)
	if err != nil {
		return Installation{}, err
	}

	return r.ResolveVersion(id)
}

// ResolveVersion returns the first install root, by source priority, that
// exists on disk
func (r *Resolver) ResolveVersion(versionID string) (Installation, error) {
	for _, src := range r.sources {
		path, ok := src.Lookup(versionID)
		if !ok || path == "" {
			r.logger.Debug("engine source has no entry", "source", src.Name, "version", versionID)
			continue
		}

		if !r.isDir(path) {
			r.logger.Debug("engine source points at missing directory", "source", src.Name, "version", versionID, "path", path)
			continue
		}

		r.logger.Debug("engine resolved", "source", src.Name, "version", versionID, "path", path)

		return Installation{VersionID: versionID, Root: path, Source: src.Name}, nil
	}

	return Installation{}, &EngineNotFoundError{VersionID: versionID}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

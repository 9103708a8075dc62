// Package artifacts removes generated directories from a project so that the
// next build starts from a clean tree.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Norgate-AV/ueh/internal/logging"
)

// Directories are the generated directories removed from a project root:
// IDE cache, compiled binaries, intermediate build files and derived data.
var Directories = []string{".vs", "Binaries", "Intermediate", "DerivedDataCache"}

// CleanError is returned when an existing artifact directory cannot be removed
type CleanError struct {
	Path string
	Err  error
}

func (e *CleanError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

func (e *CleanError) Unwrap() error {
	return e.Err
}

// Target is an artifact directory present on disk
type Target struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

// Cleaner deletes artifact directories
type Cleaner struct {
	log       logging.Sink
	removeAll func(path string) error
}

// NewCleaner creates a cleaner that reports each deletion to log
func NewCleaner(log logging.Sink) *Cleaner {
	if log == nil {
		log = logging.Discard
	}

	return &Cleaner{
		log:       log,
		removeAll: os.RemoveAll,
	}
}

// Clean deletes every artifact directory directly under projectRoot. Missing
// directories are skipped. The first failed deletion stops the clean; anything
// removed before it stays removed.
func (c *Cleaner) Clean(projectRoot string) error {
	for _, name := range Directories {
		path := filepath.Join(projectRoot, name)

		exists, err := dirExists(path)
		if err != nil {
			return &CleanError{Path: path, Err: err}
		}

		if !exists {
			continue
		}

		c.log("Deleting " + name)

		if err := c.removeAll(path); err != nil {
			return &CleanError{Path: path, Err: err}
		}
	}

	return nil
}

// Plan lists the artifact directories that Clean would delete, with their size on disk
func (c *Cleaner) Plan(projectRoot string) ([]Target, error) {
	var targets []Target

	for _, name := range Directories {
		path := filepath.Join(projectRoot, name)

		exists, err := dirExists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
		}

		if !exists {
			continue
		}

		size, err := dirSize(path)
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s: %w", path, err)
		}

		targets = append(targets, Target{Name: name, Path: path, Size: size})
	}

	return targets, nil
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return info.IsDir(), nil
}

func dirSize(root string) (int64, error) {
	var total int64

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		total += info.Size()

		return nil
	})

	return total, err
}

// Package projects keeps the list of known Unreal projects in a JSON file.
// The list is ordered by last use, most recent first, and holds at most one
// entry per descriptor path regardless of case.
package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Norgate-AV/ueh/internal/utils"
)

const (
	// DirName is the directory under the user cache dir holding the list
	DirName = "UnrealEngineHub"

	// FileName is the name of the list file
	FileName = "projects.json"
)

var (
	// ErrNotFound is returned when no entry matches a name or path
	ErrNotFound = errors.New("project not found")

	// ErrAmbiguous is returned when a name matches more than one entry
	ErrAmbiguous = errors.New("project name is ambiguous")
)

// Entry is a registered project
type Entry struct {
	Name           string    `json:"name" yaml:"name"`
	DescriptorPath string    `json:"descriptorPath" yaml:"descriptor_path"`
	SolutionPath   string    `json:"solutionPath" yaml:"solution_path"`
	Directory      string    `json:"directory" yaml:"directory"`
	LastOpened     time.Time `json:"lastOpened" yaml:"last_opened"`
}

// Store owns the project list file. All methods are safe for concurrent use.
type Store struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries []Entry
}

// DefaultPath returns <UserCacheDir>/UnrealEngineHub/projects.json
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	return filepath.Join(dir, DirName, FileName), nil
}

// NewStore creates a store backed by the file at path. Call Load to read it.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the list from disk. A missing file is an empty list.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.entries = nil
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read project list: %w", err)
	}

	var entries []Entry
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to parse project list %s: %w", s.path, err)
		}
	}

	s.entries = entries
	s.sort()

	return nil
}

// List returns a copy of the entries, most recently opened first
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.entries)
}

// Add registers the project at descriptorPath. If it is already registered
// the existing entry is returned with added set to false and nothing is
// written.
func (s *Store) Add(descriptorPath string) (entry Entry, added bool, err error) {
	abs, err := filepath.Abs(descriptorPath)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to resolve path %s: %w", descriptorPath, err)
	}

	if !utils.IsDescriptor(abs) {
		return Entry{}, false, fmt.Errorf("%s is not a %s file", descriptorPath, utils.DescriptorExt)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to stat project descriptor: %w", err)
	}

	if info.IsDir() {
		return Entry{}, false, fmt.Errorf("%s is a directory", descriptorPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOfPath(abs); i >= 0 {
		return s.entries[i], false, nil
	}

	dir := filepath.Dir(abs)
	solution, err := FindSolution(dir)
	if err != nil {
		return Entry{}, false, err
	}

	entry = Entry{
		Name:           strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		DescriptorPath: abs,
		SolutionPath:   solution,
		Directory:      dir,
		LastOpened:     s.now(),
	}

	s.entries = append(s.entries, entry)
	s.sort()

	if err := s.save(); err != nil {
		return Entry{}, false, err
	}

	return entry, true, nil
}

// Remove deletes the entry matching key, a project name or descriptor path
func (s *Store) Remove(key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(key)
	if err != nil {
		return Entry{}, err
	}

	entry := s.entries[i]
	s.entries = slices.Delete(s.entries, i, i+1)

	if err := s.save(); err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// Find returns the entry matching key, a project name or descriptor path
func (s *Store) Find(key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(key)
	if err != nil {
		return Entry{}, err
	}

	return s.entries[i], nil
}

// Touch marks the entry matching key as opened now and moves it to the front
func (s *Store) Touch(key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.find(key)
	if err != nil {
		return Entry{}, err
	}

	s.entries[i].LastOpened = s.now()
	entry := s.entries[i]
	s.sort()

	if err := s.save(); err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// FindSolution returns the first *.sln file in dir by name, or "" if there is none
func FindSolution(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.sln"))
	if err != nil {
		return "", fmt.Errorf("failed to search for solution in %s: %w", dir, err)
	}

	if len(matches) == 0 {
		return "", nil
	}

	return matches[0], nil
}

func (s *Store) find(key string) (int, error) {
	if utils.IsDescriptor(key) {
		abs, err := filepath.Abs(key)
		if err == nil {
			if i := s.indexOfPath(abs); i >= 0 {
				return i, nil
			}
		}
	}

	found := -1
	for i, e := range s.entries {
		if !strings.EqualFold(e.Name, key) {
			continue
		}

		if found >= 0 {
			return -1, fmt.Errorf("%w: %s", ErrAmbiguous, key)
		}

		found = i
	}

	if found < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return found, nil
}

func (s *Store) indexOfPath(abs string) int {
	for i, e := range s.entries {
		if strings.EqualFold(filepath.Clean(e.DescriptorPath), filepath.Clean(abs)) {
			return i
		}
	}

	return -1
}

func (s *Store) sort() {
	slices.SortStableFunc(s.entries, func(a, b Entry) int {
		return b.LastOpened.Compare(a.LastOpened)
	})
}

// save rewrites the whole file
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create project list directory: %w", err)
	}

	entries := s.entries
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project list: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project list: %w", err)
	}

	return nil
}

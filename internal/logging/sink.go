// Package logging carries the pipeline's user-facing log lines from the
// components that produce them to whatever displays them.
//
// Producers only ever see a Sink. Sinks may be called from several goroutines
// at once (subprocess readers, termination polling), so every implementation
// in this package is safe for concurrent use.
package logging

import (
	"sync"
	"time"
)

// Sink receives a single log message
type Sink func(msg string)

// Discard drops every message
func Discard(string) {}

// Entry is a timestamped log message
type Entry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Format renders the entry the way it is shown to the user
func (e Entry) Format() string {
	return "[" + e.Time.Format("15:04:05") + "] " + e.Message
}

// Buffer is an append-only, in-memory collection of entries
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// Log appends msg to the buffer
func (b *Buffer) Log(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{Time: b.now(), Message: msg})
}

// Entries returns a copy of everything logged so far
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)

	return out
}

// Messages returns the logged messages without timestamps
func (b *Buffer) Messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.Message)
	}

	return out
}

// Clear drops all entries
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = nil
}

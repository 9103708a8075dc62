package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Console writes entries to a terminal, one per line
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	errorStyle lipgloss.Style
	doneStyle  lipgloss.Style
	timeStyle  lipgloss.Style
}

// NewConsole creates a console sink writing to w. Colours are only emitted
// when w is a terminal that supports them.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)

	return &Console{
		w:          w,
		now:        time.Now,
		errorStyle: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		doneStyle:  r.NewStyle().Foreground(lipgloss.Color("10")),
		timeStyle:  r.NewStyle().Faint(true),
	}
}

// Log writes msg with the current time
func (c *Console) Log(msg string) {
	c.Write(Entry{Time: c.now(), Message: msg})
}

// Write renders a single entry
func (c *Console) Write(e Entry) {
	stamp := c.timeStyle.Render("[" + e.Time.Format("15:04:05") + "]")

	msg := e.Message
	switch {
	case strings.HasPrefix(msg, "Error:"):
		msg = c.errorStyle.Render(msg)
	case msg == "Done.":
		msg = c.doneStyle.Render(msg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s %s\n", stamp, msg)
}

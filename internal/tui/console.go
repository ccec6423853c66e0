// Package tui renders operator-facing output: status lines, template
// listings and the single-line overwrite used for download progress.
package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ANSI escape sequences
const (
	ClearLine      = "\033[2K" // Clear the entire current line
	CarriageReturn = "\r"
	Bell           = "\a"
)

// Console writes operator messages to an output stream. Writes are
// serialised so progress redraws and status lines do not interleave.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	styles   Styles
	overlaid bool
}

// NewConsole creates a Console writing to out. Colours are enabled only
// when out is a terminal.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:    out,
		styles: NewStyles(lipgloss.NewRenderer(out)),
	}
}

// Write implements io.Writer so subprocess output shares the console's
// serialisation. A pending overwrite line is cleared first.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	return c.out.Write(p)
}

// Styles returns the console's styles.
func (c *Console) Styles() Styles {
	return c.styles
}

// Status writes one status line, e.g. "ℹ️  Running nc".
func (c *Console) Status(s Status, format string, args ...any) {
	c.Println(c.styles.Status(s, fmt.Sprintf(format, args...)))
}

// Info writes an informational status line.
func (c *Console) Info(format string, args ...any) { c.Status(StatusInfo, format, args...) }

// Success writes a success status line.
func (c *Console) Success(format string, args ...any) { c.Status(StatusOK, format, args...) }

// Warn writes a warning status line.
func (c *Console) Warn(format string, args ...any) { c.Status(StatusWarn, format, args...) }

// Error writes an error status line.
func (c *Console) Error(format string, args ...any) { c.Status(StatusError, format, args...) }

// Println writes s followed by a newline. A pending overwrite line is
// cleared first.
func (c *Console) Println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	fmt.Fprintln(c.out, s)
}

// Print writes s without a trailing newline.
func (c *Console) Print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	fmt.Fprint(c.out, s)
}

// Overwrite replaces the current line with s. The next Println or Clear
// removes it.
func (c *Console) Overwrite(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, CarriageReturn+ClearLine+s)
	c.overlaid = true
}

// Clear removes a line written by Overwrite.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

// RingBell sounds the terminal bell.
func (c *Console) RingBell() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, Bell)
}

func (c *Console) clearLocked() {
	if c.overlaid {
		fmt.Fprint(c.out, CarriageReturn+ClearLine)
		c.overlaid = false
	}
}

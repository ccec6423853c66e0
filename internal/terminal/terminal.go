// Package terminal switches the local controlling terminal in and out of the
// raw discipline used while relaying a remote pty. Raw here means canonical
// line editing, local echo and signal generation are off, so every keystroke
// (Ctrl-C included) reaches the remote side as a byte. Output processing is
// left alone.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrAlreadyRaw is returned by Acquire while a previous acquisition is still
// active.
var ErrAlreadyRaw = errors.New("terminal already in raw mode")

// Error reports a failure to read or apply terminal attributes.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Snapshot holds the terminal attributes captured before entering raw mode.
type Snapshot struct {
	termios unix.Termios
}

// Controller manages the mode of a single terminal file descriptor.
type Controller struct {
	fd int

	mu     sync.Mutex
	active bool
}

// New creates a Controller for f, typically os.Stdin.
func New(f *os.File) *Controller {
	return &Controller{fd: int(f.Fd())}
}

// IsTerminal reports whether the descriptor refers to a terminal.
func (c *Controller) IsTerminal() bool {
	return term.IsTerminal(c.fd)
}

// EnterRaw captures the current attributes, then disables canonical mode,
// echo and signal characters.
func (c *Controller) EnterRaw() (*Snapshot, error) {
	orig, err := unix.IoctlGetTermios(c.fd, ioctlReadTermios)
	if err != nil {
		return nil, &Error{Op: "get attributes", Err: err}
	}
	snap := &Snapshot{termios: *orig}

	raw := *orig
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(c.fd, ioctlWriteTermios, &raw); err != nil {
		return nil, &Error{Op: "set raw attributes", Err: err}
	}
	return snap, nil
}

// Restore reapplies the attributes captured in s.
func (c *Controller) Restore(s *Snapshot) error {
	if s == nil {
		return nil
	}
	t := s.termios
	if err := unix.IoctlSetTermios(c.fd, ioctlWriteTermios, &t); err != nil {
		return &Error{Op: "restore attributes", Err: err}
	}
	return nil
}

// Acquire enters raw mode and returns the matching release function.
// Release is safe to call more than once; only the first call restores.
// Callers defer it so every exit path leaves the terminal as it was.
func (c *Controller) Acquire() (func() error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil, ErrAlreadyRaw
	}

	snap, err := c.EnterRaw()
	if err != nil {
		return nil, err
	}
	c.active = true

	var once sync.Once
	var restoreErr error
	return func() error {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			restoreErr = c.Restore(snap)
			c.active = false
		})
		return restoreErr
	}, nil
}

package terminal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openTTY returns the slave side of a fresh pseudo-terminal.
func openTTY(t *testing.T) *os.File {
	t.Helper()
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	return tty
}

func attrs(t *testing.T, f *os.File) unix.Termios {
	t.Helper()
	tio, err := unix.IoctlGetTermios(int(f.Fd()), ioctlReadTermios)
	require.NoError(t, err)
	return *tio
}

func TestController_EnterRawRestore(t *testing.T) {
	t.Parallel()

	tty := openTTY(t)
	c := New(tty)
	before := attrs(t, tty)
	require.NotZero(t, before.Lflag&unix.ICANON, "fresh pty should start canonical")

	snap, err := c.EnterRaw()
	require.NoError(t, err)

	raw := attrs(t, tty)
	assert.Zero(t, raw.Lflag&unix.ICANON)
	assert.Zero(t, raw.Lflag&unix.ECHO)
	assert.Zero(t, raw.Lflag&unix.ISIG)
	assert.Equal(t, uint8(1), raw.Cc[unix.VMIN])
	assert.Equal(t, before.Oflag, raw.Oflag, "output processing is untouched")

	require.NoError(t, c.Restore(snap))
	assert.Equal(t, before, attrs(t, tty), "restore must reproduce the original attributes exactly")
}

func TestController_RestoreNil(t *testing.T) {
	t.Parallel()

	c := New(openTTY(t))
	assert.NoError(t, c.Restore(nil))
}

func TestController_Acquire(t *testing.T) {
	t.Parallel()

	tty := openTTY(t)
	c := New(tty)
	before := attrs(t, tty)

	release, err := c.Acquire()
	require.NoError(t, err)

	_, err = c.Acquire()
	assert.True(t, errors.Is(err, ErrAlreadyRaw), "nested acquisition must be refused")

	require.NoError(t, release())
	require.NoError(t, release(), "release is idempotent")
	assert.Equal(t, before, attrs(t, tty))

	release, err = c.Acquire()
	require.NoError(t, err, "acquire works again after release")
	require.NoError(t, release())
}

func TestController_AcquireReleasedOnEarlyReturn(t *testing.T) {
	t.Parallel()

	tty := openTTY(t)
	c := New(tty)
	before := attrs(t, tty)

	stage := func() error {
		release, err := c.Acquire()
		if err != nil {
			return err
		}
		defer release()
		return errors.New("stage failed")
	}

	require.Error(t, stage())
	assert.Equal(t, before, attrs(t, tty))
}

func TestController_NotATerminal(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	require.NoError(t, err)
	defer f.Close()

	c := New(f)
	assert.False(t, c.IsTerminal())

	_, err = c.EnterRaw()
	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "get attributes", terr.Op)

	_, err = c.Acquire()
	require.Error(t, err)
	// A failed acquisition does not leave the controller marked active.
	assert.False(t, errors.Is(err, ErrAlreadyRaw))
}

func TestController_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, New(openTTY(t)).IsTerminal())
}

func TestTTYName(t *testing.T) {
	t.Parallel()

	tty := openTTY(t)
	name, err := TTYName(tty)
	require.NoError(t, err)
	assert.Equal(t, tty.Name(), name)
}

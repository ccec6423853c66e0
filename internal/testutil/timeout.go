package testutil

import (
	"context"
	"testing"
	"time"
)

const (
	// DefaultWait bounds waits for asynchronous effects such as relay
	// output or server shutdown.
	DefaultWait = 5 * time.Second

	// DefaultTick is the polling interval used with DefaultWait.
	DefaultTick = 10 * time.Millisecond

	// DefaultTestBuffer is the buffer time subtracted from test deadline
	// to allow for cleanup operations before the test times out.
	DefaultTestBuffer = 2 * time.Second
)

// ContextWithTestDeadline creates a context that respects the test's deadline.
// It subtracts DefaultTestBuffer from the test deadline. If the test has no
// deadline, or the adjusted deadline has passed, it falls back to fallback.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-DefaultTestBuffer)
		if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// WaitClosed fails the test if ch is not closed within DefaultWait.
func WaitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(DefaultWait):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// WaitErr waits for a result on errCh and returns it.
func WaitErr(t *testing.T, errCh <-chan error, what string) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(DefaultWait):
		t.Fatalf("timed out waiting for %s", what)
		return nil
	}
}

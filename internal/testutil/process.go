package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeProcess stands in for a subprocess. Bytes written to Stdin are
// captured and can be read with Received; Emit feeds bytes to Stdout.
// Closing Stdin exits the process with ExitErr unless Exit was called first.
type FakeProcess struct {
	// ExitErr is returned by Wait when the process exits because its stdin
	// was closed.
	ExitErr error

	outR *io.PipeReader
	outW *io.PipeWriter

	mu       sync.Mutex
	received bytes.Buffer
	changed  chan struct{}
	stdinEOF bool

	exitOnce sync.Once
	exited   chan struct{}
	waitErr  error
}

// NewFakeProcess returns a running FakeProcess.
func NewFakeProcess() *FakeProcess {
	r, w := io.Pipe()
	return &FakeProcess{
		outR:    r,
		outW:    w,
		changed: make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Stdin returns the process input.
func (p *FakeProcess) Stdin() io.WriteCloser { return fakeStdin{p} }

// Stdout returns the process output.
func (p *FakeProcess) Stdout() io.Reader { return p.outR }

// Wait blocks until the process exits.
func (p *FakeProcess) Wait() error {
	<-p.exited
	return p.waitErr
}

// Emit writes s to the process output. It blocks until the reader consumes
// it and fails once output is closed.
func (p *FakeProcess) Emit(s string) error {
	_, err := io.WriteString(p.outW, s)
	return err
}

// CloseOutput signals EOF on Stdout.
func (p *FakeProcess) CloseOutput() {
	p.outW.Close()
}

// Exit terminates the process with err, closing its output.
func (p *FakeProcess) Exit(err error) {
	p.exitOnce.Do(func() {
		p.waitErr = err
		p.outW.Close()
		close(p.exited)
	})
}

// Exited is closed once the process has exited.
func (p *FakeProcess) Exited() <-chan struct{} { return p.exited }

// Received returns everything written to Stdin so far.
func (p *FakeProcess) Received() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received.String()
}

// StdinClosed reports whether Stdin has been closed.
func (p *FakeProcess) StdinClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdinEOF
}

// WaitReceived blocks until Stdin has received a string containing want or
// ctx is done.
func (p *FakeProcess) WaitReceived(ctx context.Context, want string) error {
	for {
		p.mu.Lock()
		got := p.received.String()
		ch := p.changed
		p.mu.Unlock()
		if strings.Contains(got, want) {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %q, received %q: %w", want, got, ctx.Err())
		}
	}
}

func (p *FakeProcess) notifyLocked() {
	close(p.changed)
	p.changed = make(chan struct{})
}

type fakeStdin struct{ p *FakeProcess }

func (s fakeStdin) Write(b []byte) (int, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if s.p.stdinEOF {
		return 0, io.ErrClosedPipe
	}
	s.p.received.Write(b)
	s.p.notifyLocked()
	return len(b), nil
}

func (s fakeStdin) Close() error {
	s.p.mu.Lock()
	already := s.p.stdinEOF
	s.p.stdinEOF = true
	s.p.notifyLocked()
	s.p.mu.Unlock()
	if !already {
		s.p.Exit(s.p.ExitErr)
	}
	return nil
}

// Launch records one call to FakeLauncher.Launch.
type Launch struct {
	Name string
	Args []string
}

// FakeLauncher hands out queued FakeProcesses in order. When the queue is
// empty, or Err is set, Launch fails.
type FakeLauncher struct {
	Err error

	mu       sync.Mutex
	queue    []*FakeProcess
	launches []Launch
}

// NewFakeLauncher returns a launcher that serves procs in order.
func NewFakeLauncher(procs ...*FakeProcess) *FakeLauncher {
	return &FakeLauncher{queue: procs}
}

// Next records the launch and pops the next queued process. Relay tests wrap
// it in a relay.LauncherFunc.
func (l *FakeLauncher) Next(name string, args ...string) (*FakeProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, Launch{Name: name, Args: append([]string(nil), args...)})
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.queue) == 0 {
		return nil, errors.New("no fake process queued")
	}
	p := l.queue[0]
	l.queue = l.queue[1:]
	return p, nil
}

// Launches returns every recorded launch.
func (l *FakeLauncher) Launches() []Launch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Launch(nil), l.launches...)
}

package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/logging"
	"github.com/thruflo/shelly/internal/toolbox"
	"github.com/thruflo/shelly/internal/tui"
)

// DefaultHTTPHost is the interface the raw upgrade's file server binds to.
const DefaultHTTPHost = "0.0.0.0"

// RawMode switches the local terminal into raw mode for the duration of a
// stage. *terminal.Controller implements it.
type RawMode interface {
	Acquire() (release func() error, err error)
}

// Options configures a Relay.
type Options struct {
	Config   *config.Config
	IP       string // Address the remote peer connects back to
	Port     int    // Listener port; the raw relay uses Port+1
	HTTPHost string // Optional: file server bind host, DefaultHTTPHost if empty

	In       io.Reader
	Console  *tui.Console
	Terminal RawMode
	Launcher Launcher

	// Toolbox resolution for the raw upgrade.
	ToolboxDir string
	Downloader toolbox.Downloader
	Confirmer  toolbox.Confirmer // Optional: asks on the session input if nil

	TTY   string              // Optional: value for {tty} in relay args
	Sleep func(time.Duration) // Optional: replaces time.Sleep for the grace period

	// ReleaseHTTPPort, if set, runs before the raw upgrade binds the file
	// server port. The CLI uses it to stop its startup file server.
	ReleaseHTTPPort func()
}

// Relay is one interactive session.
type Relay struct {
	id       string
	cfg      *config.Config
	ip       string
	port     int
	httpHost string

	in       *bufio.Reader
	console  *tui.Console
	term     RawMode
	launcher Launcher
	resolver *toolbox.Resolver
	tty      string
	sleep    func(time.Duration)
	log      *logging.Logger

	releaseHTTPPort func()

	mu     sync.Mutex
	state  State
	reason EndReason

	primary     Process
	primaryDone chan struct{}
	closeOnce   sync.Once
}

// New creates a Relay in StateConnecting.
func New(opts Options) *Relay {
	id := uuid.New().String()
	in := bufio.NewReader(opts.In)

	httpHost := opts.HTTPHost
	if httpHost == "" {
		httpHost = DefaultHTTPHost
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	console := opts.Console
	if console == nil {
		console = tui.NewConsole(os.Stdout)
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	confirm := opts.Confirmer
	if confirm == nil {
		confirm = toolbox.LineConfirmer{In: in, Out: console}
	}

	return &Relay{
		id:       id,
		cfg:      opts.Config,
		ip:       opts.IP,
		port:     opts.Port,
		httpHost: httpHost,
		in:       in,
		console:  console,
		term:     opts.Terminal,
		launcher: launcher,
		resolver: toolbox.NewResolver(opts.Config.Toolbox, opts.ToolboxDir, opts.Downloader, confirm, console),
		tty:      opts.TTY,
		sleep:    sleep,
		log:      logging.With("session", id),
		state:    StateConnecting,

		releaseHTTPPort: opts.ReleaseHTTPPort,
	}
}

// ID returns the session id used in log lines.
func (r *Relay) ID() string {
	return r.id
}

// State returns the current state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reason returns why the session closed. It is EndReasonUnknown until Run
// returns.
func (r *Relay) Reason() EndReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

func (r *Relay) setState(s State) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.mu.Unlock()
	if prev != s {
		r.log.Debug("state transition", "from", prev.String(), "to", s.String())
	}
}

func (r *Relay) setReason(reason EndReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reason == EndReasonUnknown {
		r.reason = reason
	}
}

// vars returns template values with {port} set to port.
func (r *Relay) vars(port int) config.Vars {
	return config.Vars{
		IP:       r.ip,
		Port:     port,
		HTTPPort: r.cfg.Shelly.HTTPPort,
		Binary:   r.cfg.Upgrade.Binary,
		TTY:      r.tty,
	}
}

// Run spawns the listener and drives the session until it closes. It
// returns nil when the listener exits successfully.
func (r *Relay) Run(ctx context.Context) error {
	r.setState(StateConnecting)
	args := r.cfg.Listener.ExpandArgs(r.vars(r.port))
	r.log.Info("starting listener", "command", r.cfg.Listener.Path, "args", strings.Join(args, " "))

	proc, err := r.launcher.Launch(ctx, r.cfg.Listener.Path, args...)
	if err != nil {
		r.setReason(EndReasonError)
		r.setState(StateClosed)
		var spawnErr *SpawnError
		if !errors.As(err, &spawnErr) {
			err = &SpawnError{Name: r.cfg.Listener.Path, Err: err}
		}
		return err
	}
	r.primary = proc
	r.primaryDone = make(chan struct{})
	go func() {
		defer close(r.primaryDone)
		r.copyOutput(proc.Stdout())
	}()

	r.setState(StateInteractive)
	runErr := r.interactive(ctx)
	if runErr != nil {
		r.setReason(EndReasonError)
	}
	r.setState(StateClosed)
	return r.finish(runErr)
}

// interactive is the line-mode loop. It returns when the session should
// close.
func (r *Relay) interactive(ctx context.Context) error {
	for {
		line, err := r.in.ReadString('\n')
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				r.setReason(EndReasonInputClosed)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		line = strings.TrimSuffix(line, "\n")

		switch cmd := ParseCommand(line); cmd {
		case CommandNone:
			if err := writeLine(r.primary.Stdin(), line); err != nil {
				if isClosed(err) {
					r.setReason(EndReasonChannelClosed)
					return nil
				}
				return fmt.Errorf("failed to write to listener: %w", err)
			}

		case CommandUpgrade:
			return r.upgradePTY(ctx)

		case CommandSocat:
			err := r.upgradeRaw(ctx)
			var stageErr *StageError
			if errors.As(err, &stageErr) {
				r.log.Warn("raw upgrade failed", "error", stageErr.Err)
				r.console.Error("Raw upgrade failed: %v", stageErr.Err)
				r.setState(StateInteractive)
				continue
			}
			return err

		case CommandQuit:
			r.log.Info("operator quit")
			r.setReason(EndReasonQuit)
			return r.closePrimaryInput()

		default:
			r.console.Warn("unknown command: %s", line)
		}
	}
}

// finish is StateClosed: close the listener's input and wait for it to
// exit.
func (r *Relay) finish(runErr error) error {
	if err := r.closePrimaryInput(); err != nil && runErr == nil {
		r.log.Debug("closing listener input", "error", err)
	}
	<-r.primaryDone
	waitErr := r.primary.Wait()

	r.log.Info("session closed", "reason", r.Reason().String())
	if runErr != nil {
		return runErr
	}
	if waitErr != nil {
		return fmt.Errorf("listener exited: %w", waitErr)
	}
	return nil
}

func (r *Relay) closePrimaryInput() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.primary.Stdin().Close()
	})
	if err != nil && isClosed(err) {
		return nil
	}
	return err
}

// StageError reports an upgrade stage that failed before reaching the
// remote side. The session stays interactive.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/serve"
	"github.com/thruflo/shelly/internal/toolbox"
)

// upgradePTY is stage 1: ask the remote shell for a pty, then forward raw
// input over the listener channel for the rest of the session.
func (r *Relay) upgradePTY(ctx context.Context) (err error) {
	r.setState(StateUpgradingPty)
	r.console.Info("Upgrading to a pty; Ctrl+C now goes to the remote shell and commands are disabled")

	if err := writeLine(r.primary.Stdin(), r.cfg.Upgrade.PTYCommand); err != nil {
		if isClosed(err) {
			r.setReason(EndReasonChannelClosed)
			return nil
		}
		return fmt.Errorf("failed to send pty command: %w", err)
	}

	release, err := r.term.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	reason, err := r.forwardInput(r.primary.Stdin(), r.primaryDone)
	r.setReason(reason)
	if err != nil {
		return fmt.Errorf("pty forward: %w", err)
	}
	return nil
}

// upgradeRaw is stage 2: serve the relay binary, start the local relay
// subprocess on port+1, instruct the remote shell to fetch it and connect
// back, then forward raw input to the relay subprocess.
//
// Failures before the remote command is sent return a *StageError and
// leave the session interactive.
func (r *Relay) upgradeRaw(ctx context.Context) (err error) {
	r.setState(StateUpgradingRaw)

	files, err := r.resolver.Mapping(ctx, r.cfg.Upgrade.Artifacts)
	switch {
	case errors.Is(err, toolbox.ErrNoArtifacts):
		r.console.Warn("No toolbox artifacts resolved for %s; the remote fetch will fail",
			strings.Join(r.cfg.Upgrade.Artifacts, ", "))
		if files, err = serve.NewFileMapping(); err != nil {
			return &StageError{Stage: StateUpgradingRaw, Err: err}
		}
	case err != nil:
		return &StageError{Stage: StateUpgradingRaw, Err: err}
	}

	if r.releaseHTTPPort != nil {
		r.releaseHTTPPort()
	}
	srv := serve.NewServer(r.httpHost, r.cfg.Shelly.HTTPPort, files, serve.WithLogger(r.log.With("component", "serve")))
	if err := srv.Listen(); err != nil {
		return &StageError{Stage: StateUpgradingRaw, Err: err}
	}
	serveCtx, cancelServe := context.WithCancel(ctx)
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := srv.Serve(serveCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Warn("file server stopped", "error", err)
		}
	}()
	defer func() {
		srv.Stop()
		cancelServe()
		<-serveDone
	}()
	for _, e := range files.Entries() {
		r.console.Info("Serving %s on %s", e.Name, srv.Addr())
	}

	vars := r.vars(r.port + 1)
	if addr, ok := srv.Addr().(*net.TCPAddr); ok {
		vars.HTTPPort = addr.Port
	}

	args := r.cfg.Relay.ExpandArgs(vars)
	r.log.Info("starting relay", "command", r.cfg.Relay.Path, "args", strings.Join(args, " "))
	relayProc, err := r.launcher.Launch(ctx, r.cfg.Relay.Path, args...)
	if err != nil {
		var spawnErr *SpawnError
		if !errors.As(err, &spawnErr) {
			err = &SpawnError{Name: r.cfg.Relay.Path, Err: err}
		}
		return &StageError{Stage: StateUpgradingRaw, Err: err}
	}
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		r.copyOutput(relayProc.Stdout())
	}()
	defer func() {
		if cerr := relayProc.Stdin().Close(); cerr != nil {
			r.log.Debug("closing relay input", "error", cerr)
		}
		// Drain the relay's output before Wait closes the pipe.
		<-relayDone
		if werr := relayProc.Wait(); werr != nil {
			r.log.Debug("relay exited", "error", werr)
		}
	}()

	remote := config.Expand(r.cfg.Upgrade.SocatCommand, vars)
	r.log.Debug("sending raw relay command", "command", remote)
	if err := writeLine(r.primary.Stdin(), remote); err != nil {
		if isClosed(err) {
			r.setReason(EndReasonChannelClosed)
			return nil
		}
		return fmt.Errorf("failed to send relay command: %w", err)
	}
	if err := r.closePrimaryInput(); err != nil {
		r.log.Debug("closing listener input", "error", err)
	}

	r.console.Info("Waiting for the remote relay on port %d", r.port+1)
	r.sleep(time.Duration(r.cfg.Upgrade.GraceMillis) * time.Millisecond)

	release, err := r.term.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	reason, err := r.forwardInput(relayProc.Stdin(), relayDone)
	r.setReason(reason)
	if err != nil {
		return fmt.Errorf("relay forward: %w", err)
	}
	return nil
}

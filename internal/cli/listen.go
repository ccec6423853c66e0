package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/download"
	"github.com/thruflo/shelly/internal/logging"
	"github.com/thruflo/shelly/internal/relay"
	"github.com/thruflo/shelly/internal/serve"
	"github.com/thruflo/shelly/internal/terminal"
	"github.com/thruflo/shelly/internal/toolbox"
	"github.com/thruflo/shelly/internal/tui"
)

var (
	listenHost     string
	listenPort     int
	listenShell    string
	listenDownload bool
)

func init() {
	rootCmd.Flags().StringVarP(&listenHost, "host", "l", "", "listen interface address (prompted if omitted)")
	rootCmd.Flags().IntVarP(&listenPort, "port", "p", 0, "listening port (prompted if omitted)")
	rootCmd.Flags().StringVarP(&listenShell, "shell", "s", "", "reverse shell type to list")
	rootCmd.Flags().BoolVarP(&listenDownload, "download", "d", false, "download missing toolbox files without asking")
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	console := tui.NewConsole(cmd.OutOrStdout())

	paths := config.DefaultPaths()
	cfg, err := loadConfig(paths)
	if err != nil {
		return err
	}

	host, port, err := resolveTarget(cfg, listenHost, listenPort)
	if err != nil {
		return err
	}

	console.Info("%s Revshells for %s:%d", listenShell, host, port)
	console.Println("")
	shell, err := printTemplates(console, cfg, listenShell, config.Vars{
		IP:       host,
		Port:     port,
		HTTPPort: cfg.Shelly.HTTPPort,
		Binary:   cfg.Upgrade.Binary,
	})
	if err != nil {
		console.Error("%v", err)
	}

	dl := download.New(download.WithReporter(download.Bars(console)))
	stopFileServer := func() {}
	if shell != nil && len(shell.Serve) > 0 {
		var confirm toolbox.Confirmer = toolbox.ConfirmFunc(prompter.Confirm)
		if listenDownload {
			confirm = toolbox.AlwaysConfirm
		}
		resolver := toolbox.NewResolver(cfg.Toolbox, paths.ToolboxDir(), dl, confirm, console)
		stop, err := startFileServer(ctx, resolver, cfg.Shelly.HTTPPort, shell.Serve, console)
		if err != nil {
			return err
		}
		defer stop()
		stopFileServer = stop
	}

	console.Println("")
	if shell != nil && shell.Listener == config.ListenerSocatRaw {
		console.Info("Running %s in raw mode", cfg.RawListener.Path)
		return runRawListener(ctx, cfg, port)
	}

	console.Info("Running %s", cfg.Listener.Path)
	var confirm toolbox.Confirmer
	if listenDownload {
		confirm = toolbox.AlwaysConfirm
	}
	tty, err := terminal.TTYName(os.Stdin)
	if err != nil {
		logging.Debug("no tty for relay arguments", "error", err)
	}

	r := relay.New(relay.Options{
		Config:     cfg,
		IP:         host,
		Port:       port,
		In:         os.Stdin,
		Console:    console,
		Terminal:   terminal.New(os.Stdin),
		Launcher:   relay.ExecLauncher{},
		ToolboxDir: paths.ToolboxDir(),
		Downloader: dl,
		Confirmer:  confirm,
		TTY:        tty,

		ReleaseHTTPPort: stopFileServer,
	})
	err = r.Run(ctx)
	console.Info("Session closed (%s)", r.Reason())
	return err
}

// resolveTarget picks the listen address and port from flags, then the
// config, then interactive prompts.
func resolveTarget(cfg *config.Config, host string, port int) (string, int, error) {
	if host == "" {
		host = cfg.Shelly.Host
	}
	if port == 0 {
		port = cfg.Shelly.Port
	}

	if host == "" {
		addrs, err := listInterfaces()
		if err != nil {
			return "", 0, err
		}
		if host, err = prompter.SelectInterface(addrs); err != nil {
			return "", 0, fmt.Errorf("select interface (or pass --host): %w", err)
		}
	}
	if port == 0 {
		var err error
		if port, err = prompter.Port(config.DefaultListenPort); err != nil {
			return "", 0, fmt.Errorf("listening port (or pass --port): %w", err)
		}
	}
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("port number %d is out of range (1-65535)", port)
	}
	return host, port, nil
}

// printTemplates prints the payloads of the named shell with vars filled
// in. It returns the shell, or nil when no shell was named.
func printTemplates(console *tui.Console, cfg *config.Config, name string, vars config.Vars) (*config.Shell, error) {
	if name == "" {
		console.Info("No revshell specified")
		return nil, nil
	}
	shell, ok := cfg.Shells[name]
	if !ok {
		names := make([]string, 0, len(cfg.Shells))
		for n := range cfg.Shells {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("shell '%s' not found in config (available: %s)", name, strings.Join(names, ", "))
	}
	if len(shell.Templates) == 0 {
		console.Warn("templates is missing or empty for shell '%s'", name)
	}
	for _, t := range shell.Templates {
		console.Println(console.Styles().Command.Render(config.Expand(t, vars)))
	}
	return &shell, nil
}

// startFileServer resolves names and serves them on port in the background.
// A bind failure is fatal; an empty resolution only warns. The returned stop
// function may be called more than once.
func startFileServer(ctx context.Context, resolver *toolbox.Resolver, port int, names []string, console *tui.Console) (func(), error) {
	files, err := resolver.Mapping(ctx, names)
	if err != nil {
		console.Warn("Not serving %s: %v", strings.Join(names, ", "), err)
		return func() {}, nil
	}

	srv := serve.NewServer(relay.DefaultHTTPHost, port, files)
	if err := srv.Listen(); err != nil {
		return nil, err
	}
	for _, e := range files.Entries() {
		console.Info("Serving %s on %s", e.Name, srv.Addr())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			logging.Debug("file server stopped", "error", err)
		}
	}()
	return func() {
		srv.Stop()
		<-done
	}, nil
}

// runRawListener runs the raw listener attached to the local terminal. The
// remote pty talks to the terminal device directly.
func runRawListener(ctx context.Context, cfg *config.Config, port int) error {
	tty, err := terminal.TTYName(os.Stdin)
	if err != nil {
		return err
	}
	args := cfg.RawListener.ExpandArgs(config.Vars{Port: port, TTY: tty})
	logging.Info("starting raw listener", "command", cfg.RawListener.Path, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, cfg.RawListener.Path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s exited: %w", cfg.RawListener.Path, err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/serve"
	"github.com/thruflo/shelly/internal/tui"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve NAME=PATH...",
	Short: "Serve one file to the first client that asks for it",
	Long: `Starts the one-shot file server. Each argument maps a public name to a
local file; a bare PATH is served under its base name. The server exits
after the first successful download.

Example:
  shelly serve socatx64.bin=~/.shelly/toolbox/socatx64.bin linpeas.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "interface to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to bind (default: shelly.default_http_svr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	entries, err := parseServeArgs(args)
	if err != nil {
		return err
	}
	files, err := serve.NewFileMapping(entries...)
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port = config.DefaultHTTPPort
		if cfg, err := config.Load(config.DefaultPaths().Dir); err == nil {
			port = cfg.Shelly.HTTPPort
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return serveFiles(ctx, tui.NewConsole(cmd.OutOrStdout()), serveHost, port, files, nil)
}

// serveFiles runs a server until it delivers a file or ctx is done. ready,
// if set, is called with the bound address.
func serveFiles(ctx context.Context, console *tui.Console, host string, port int, files *serve.FileMapping, ready func(net.Addr)) error {
	srv := serve.NewServer(host, port, files)
	if err := srv.Listen(); err != nil {
		return err
	}
	for _, e := range files.Entries() {
		console.Info("Serving %s (%s) on %s", e.Name, e.Path, srv.Addr())
	}
	if ready != nil {
		ready(srv.Addr())
	}

	if err := srv.Serve(ctx); err != nil {
		if ctx.Err() != nil {
			console.Info("Shutdown signal received; stopping server")
			return nil
		}
		return err
	}
	console.Success("Delivered %s", srv.Delivered())
	return nil
}

// parseServeArgs turns NAME=PATH or PATH arguments into entries.
func parseServeArgs(args []string) ([]serve.Entry, error) {
	entries := make([]serve.Entry, 0, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok {
			path = arg
			name = filepath.Base(arg)
		}
		if path == "" {
			return nil, fmt.Errorf("missing path in %q", arg)
		}
		entries = append(entries, serve.Entry{Name: name, Path: expandHome(path)})
	}
	return entries, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

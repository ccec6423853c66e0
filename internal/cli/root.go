package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "shelly",
	Short: "Reverse shell listener with pty and socat upgrades",
	Long: `Shelly prints reverse shell payloads for your address and port, serves
the toolbox binaries a payload needs, and catches the shell with nc.

Inside a session, lines are sent to the remote shell. Lines starting with
':' are commands:
  :upgrade  spawn a pty on the remote side and switch to raw mode
  :socat    push a static socat to the remote side and reconnect through it
  :quit     close the session`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runListen,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("shelly version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if verbose {
		level = logging.LevelDebug
	}
	logging.SetLevel(level)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

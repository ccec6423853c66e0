package cli

import (
	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/tui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ~/.shelly directory",
	Long: `Creates the shelly config directory ($SHELLY_HOME or ~/.shelly) with a
commented default shelly.yaml and an empty toolbox/ directory.

The default config defines the bash, nc and socat shells, a static socat
toolbox entry and the commands sent by :upgrade and :socat.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	if err := config.WriteDefault(paths, initForce); err != nil {
		return err
	}

	console := tui.NewConsole(cmd.OutOrStdout())
	console.Success("Initialised %s", paths.Dir)
	console.Println("  " + paths.ConfigFile())
	console.Println("  " + paths.ToolboxDir())
	return nil
}

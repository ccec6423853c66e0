package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/tui"
)

var shellsCmd = &cobra.Command{
	Use:   "shells",
	Short: "List the configured reverse shells",
	Args:  cobra.NoArgs,
	RunE:  runShells,
}

func init() {
	rootCmd.AddCommand(shellsCmd)
}

func runShells(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.DefaultPaths())
	if err != nil {
		return err
	}
	console := tui.NewConsole(cmd.OutOrStdout())
	styles := console.Styles()

	names := make([]string, 0, len(cfg.Shells))
	for n := range cfg.Shells {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		console.Info("No shells configured")
		return nil
	}

	for _, name := range names {
		shell := cfg.Shells[name]
		listener := shell.Listener
		if listener == "" {
			listener = config.ListenerNetcat
		}
		heading := name + styles.Dim.Render(" ("+listener+")")
		items := append([]string(nil), shell.Templates...)
		for _, s := range shell.Serve {
			items = append(items, styles.Dim.Render("serves "+s))
		}
		console.Println(styles.List(heading, items))
	}
	return nil
}

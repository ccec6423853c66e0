package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/download"
	"github.com/thruflo/shelly/internal/toolbox"
	"github.com/thruflo/shelly/internal/tui"
)

var toolboxCmd = &cobra.Command{
	Use:   "toolbox",
	Short: "Manage the cached toolbox binaries",
}

var toolboxFetchCmd = &cobra.Command{
	Use:   "fetch [ARTIFACT...]",
	Short: "Download missing toolbox binaries",
	Long: `Downloads every missing architecture file of the named toolbox entries,
or of all entries when none are named. Files already in the toolbox
directory are kept.`,
	RunE: runToolboxFetch,
}

var toolboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List toolbox entries and whether they are cached",
	Args:  cobra.NoArgs,
	RunE:  runToolboxList,
}

func init() {
	toolboxCmd.AddCommand(toolboxFetchCmd)
	toolboxCmd.AddCommand(toolboxListCmd)
	rootCmd.AddCommand(toolboxCmd)
}

func runToolboxFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	paths := config.DefaultPaths()
	cfg, err := loadConfig(paths)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = artifactNames(cfg)
	}
	console := tui.NewConsole(cmd.OutOrStdout())
	dl := download.New(download.WithReporter(download.Bars(console)))
	resolver := toolbox.NewResolver(cfg.Toolbox, paths.ToolboxDir(), dl, toolbox.AlwaysConfirm, console)

	entries, err := resolver.Resolve(ctx, names)
	if err != nil {
		return err
	}
	if len(entries) == 0 && len(names) > 0 {
		return toolbox.ErrNoArtifacts
	}
	console.Success("%d file(s) ready in %s", len(entries), paths.ToolboxDir())
	return nil
}

func runToolboxList(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := loadConfig(paths)
	if err != nil {
		return err
	}
	console := tui.NewConsole(cmd.OutOrStdout())
	styles := console.Styles()

	names := artifactNames(cfg)
	if len(names) == 0 {
		console.Info("No toolbox entries configured")
		return nil
	}
	for _, name := range names {
		archs := cfg.Toolbox[name]
		keys := make([]string, 0, len(archs))
		for k := range archs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		items := make([]string, 0, len(keys))
		for _, arch := range keys {
			art := archs[arch]
			items = append(items, arch+"  "+art.Filename+"  "+cacheState(styles, filepath.Join(paths.ToolboxDir(), art.Filename)))
		}
		console.Println(styles.List(name, items))
	}
	return nil
}

func cacheState(styles tui.Styles, path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return styles.Dim.Render("missing")
	}
	return styles.OK.Render("cached " + humanize.Bytes(uint64(info.Size())))
}

func artifactNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Toolbox))
	for n := range cfg.Toolbox {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Package toolbox resolves the logical artifact names used by shells and
// upgrades into local files, downloading missing ones on request.
package toolbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/thruflo/shelly/internal/config"
	"github.com/thruflo/shelly/internal/logging"
	"github.com/thruflo/shelly/internal/serve"
	"github.com/thruflo/shelly/internal/tui"
)

// ErrNoArtifacts is returned by Mapping when none of the requested
// artifacts could be resolved.
var ErrNoArtifacts = errors.New("no toolbox artifacts resolved")

// Downloader fetches url into dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Resolver maps artifact names to files in the toolbox directory.
type Resolver struct {
	toolbox map[string]map[string]config.Artifact
	dir     string
	dl      Downloader
	confirm Confirmer
	console *tui.Console
	log     *logging.Logger
}

// NewResolver creates a Resolver over the configured toolbox entries stored
// in dir. Diagnostics are written to console.
func NewResolver(toolbox map[string]map[string]config.Artifact, dir string, dl Downloader, confirm Confirmer, console *tui.Console) *Resolver {
	return &Resolver{
		toolbox: toolbox,
		dir:     dir,
		dl:      dl,
		confirm: confirm,
		console: console,
		log:     logging.With("component", "toolbox"),
	}
}

// Resolve returns one entry per resolved architecture file, named by its
// filename and deduplicated. Missing files are downloaded after
// confirmation; anything that cannot be resolved is reported and skipped.
// The only error is cancellation of ctx.
func (r *Resolver) Resolve(ctx context.Context, names []string) ([]serve.Entry, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.console.Error("Failed to create toolbox directory %s: %v", r.dir, err)
		return nil, nil
	}

	var entries []serve.Entry
	seen := make(map[string]bool)
	for _, name := range names {
		archs, ok := r.toolbox[name]
		if !ok {
			r.console.Warn("Serve file '%s' not found in toolbox config", name)
			continue
		}

		keys := make([]string, 0, len(archs))
		for k := range archs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, arch := range keys {
			if err := ctx.Err(); err != nil {
				return entries, err
			}
			art := archs[arch]
			path, ok := r.resolveOne(ctx, name, arch, art)
			if !ok || seen[art.Filename] {
				continue
			}
			seen[art.Filename] = true
			entries = append(entries, serve.Entry{Name: art.Filename, Path: path})
		}
	}
	return entries, ctx.Err()
}

func (r *Resolver) resolveOne(ctx context.Context, name, arch string, art config.Artifact) (string, bool) {
	log := r.log.With("artifact", name).With("arch", arch)

	if art.Filename == "" {
		r.console.Warn("No filename field for toolbox entry '%s', arch '%s'", name, arch)
		return "", false
	}
	path := filepath.Join(r.dir, art.Filename)
	if _, err := os.Stat(path); err == nil {
		log.Debug("reusing toolbox file", "path", path)
		return path, true
	}

	if art.Download == "" {
		r.console.Warn("Toolbox file missing for '%s', arch '%s': %s (no download URL)", name, arch, path)
		return "", false
	}

	r.console.Info("Toolbox file missing for '%s', arch '%s': %s", name, arch, path)
	ok, err := r.confirm.Confirm(fmt.Sprintf("Download %s from %s?", art.Filename, art.Download))
	if err != nil {
		log.Warn("confirmation failed", "error", err)
		r.console.Warn("Skipping download for %s", art.Filename)
		return "", false
	}
	if !ok {
		r.console.Info("Skipping download for %s", art.Filename)
		return "", false
	}

	if err := r.dl.Download(ctx, art.Download, path); err != nil {
		log.Warn("download failed", "url", art.Download, "error", err)
		r.console.Error("Failed to download %s: %v", art.Download, err)
		return "", false
	}
	r.console.Success("Downloaded to %s", path)
	return path, true
}

// Mapping resolves names into a FileMapping. When names is non-empty and
// nothing resolves, it returns ErrNoArtifacts.
func (r *Resolver) Mapping(ctx context.Context, names []string) (*serve.FileMapping, error) {
	entries, err := r.Resolve(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && len(names) > 0 {
		return nil, ErrNoArtifacts
	}
	return serve.NewFileMapping(entries...)
}

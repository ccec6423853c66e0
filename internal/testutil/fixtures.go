package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thruflo/shelly/internal/config"
)

// SampleArtifact is a small stand-in for a toolbox binary.
const SampleArtifact = "\x7fELF-not-really-socat"

// WriteArtifact writes content to dir/name and returns the path.
func WriteArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// SetupHome creates a temporary config directory with an empty toolbox and
// points $SHELLY_HOME at it for the duration of the test.
func SetupHome(t *testing.T) config.Paths {
	t.Helper()
	p := config.Paths{Dir: filepath.Join(t.TempDir(), ".shelly")}
	require.NoError(t, os.MkdirAll(p.ToolboxDir(), 0o755))
	t.Setenv(config.HomeEnv, p.Dir)
	return p
}

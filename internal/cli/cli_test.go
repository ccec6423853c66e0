package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrompter answers prompts from fixed values and records them.
type fakePrompter struct {
	host    string
	port    int
	confirm bool
	err     error

	selected  [][]InterfaceAddr
	confirms  []string
	portCalls int
}

func (p *fakePrompter) SelectInterface(addrs []InterfaceAddr) (string, error) {
	p.selected = append(p.selected, addrs)
	return p.host, p.err
}

func (p *fakePrompter) Port(defaultPort int) (int, error) {
	p.portCalls++
	return p.port, p.err
}

func (p *fakePrompter) Confirm(title string) (bool, error) {
	p.confirms = append(p.confirms, title)
	return p.confirm, p.err
}

func usePrompter(t *testing.T, p Prompter) {
	t.Helper()
	old := prompter
	prompter = p
	t.Cleanup(func() { prompter = old })
}

// captureOutput redirects cmd's output into a buffer for the test.
func captureOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	return &buf
}

func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "directory should exist: %s", path)
	assert.True(t, info.IsDir(), "should be a directory: %s", path)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err, "file should exist: %s", path)
	assert.False(t, info.IsDir(), "should be a file: %s", path)
}

func TestRootCommandWiring(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "serve", "shells", "toolbox"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"host", "port", "shell", "download"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "l", rootCmd.Flags().Lookup("host").Shorthand)
	assert.Equal(t, "d", rootCmd.Flags().Lookup("download").Shorthand)
}

func TestSetupLogging(t *testing.T) {
	oldLevel, oldVerbose := logLevel, verbose
	t.Cleanup(func() { logLevel, verbose = oldLevel, oldVerbose })

	logLevel, verbose = "info", false
	assert.NoError(t, setupLogging(rootCmd, nil))

	logLevel = "loud"
	err := setupLogging(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")

	logLevel, verbose = "loud", true
	assert.Error(t, setupLogging(rootCmd, nil), "level is parsed before --verbose applies")

	logLevel = "warn"
	assert.NoError(t, setupLogging(rootCmd, nil))
}

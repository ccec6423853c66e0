package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the config directory location.
const HomeEnv = "SHELLY_HOME"

// Paths locates the files shelly keeps under its config directory.
type Paths struct {
	Dir string
}

// DefaultPaths returns paths rooted at $SHELLY_HOME or ~/.shelly.
func DefaultPaths() Paths {
	if v := os.Getenv(HomeEnv); v != "" {
		return Paths{Dir: v}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{Dir: ".shelly"}
	}
	return Paths{Dir: filepath.Join(home, ".shelly")}
}

// ConfigFile returns the path of the YAML config file.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.Dir, ConfigFileName)
}

// ToolboxDir returns the directory holding cached toolbox binaries.
func (p Paths) ToolboxDir() string {
	return filepath.Join(p.Dir, "toolbox")
}

// Exists reports whether the config directory exists.
func (p Paths) Exists() bool {
	info, err := os.Stat(p.Dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}

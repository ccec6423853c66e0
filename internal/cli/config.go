package cli

import (
	"errors"
	"fmt"

	"github.com/thruflo/shelly/internal/config"
)

// loadConfig loads the config from p, offering to initialise it on first
// run.
func loadConfig(p config.Paths) (*config.Config, error) {
	cfg, err := config.Load(p.Dir)
	if !errors.Is(err, config.ErrNotInitialised) {
		return cfg, err
	}

	ok, perr := prompter.Confirm(fmt.Sprintf("Looks like this is your first time running shelly. Initialise %s?", p.ConfigFile()))
	if perr != nil {
		return nil, perr
	}
	if !ok {
		return nil, fmt.Errorf("cannot continue without a config file: %w", err)
	}
	if err := config.WriteDefault(p, false); err != nil {
		return nil, err
	}
	return config.Load(p.Dir)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bumper/pkg/config"
)

// loadConfig reads bumper.toml before any command runs and attaches the
// logger to the command context.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.config = cfg
	c.configFile = path
	if path != "" {
		c.Logger.Debug("Loaded config", "path", path)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// effectiveConfig returns the loaded config with defaults applied.
func (c *CLI) effectiveConfig() config.Config {
	return c.config.WithDefaults()
}

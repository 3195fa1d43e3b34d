// Package cli implements the bumper command-line interface.
//
// The root command checks ./package.json (or the path given as argument)
// against the npm registry and prints the available updates per section.
// Subcommands manage the response cache and run the HTTP API.
//
// # Commands
//
//   - check: report (and with -w write) newer versions; also the root default
//   - cache: clear or locate the file response cache
//   - serve: expose the check over HTTP with Prometheus metrics
//   - completion: shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which includes
// one "Fetching <name>" line per registry lookup. Loggers are passed through
// context.Context as well as held on the CLI.
//
// # Configuration
//
// Settings are read from bumper.toml (see pkg/config). Flags override the
// file only when given explicitly.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bumper/pkg/buildinfo"
	"github.com/matzehuels/bumper/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bumper"

	// defaultManifest is checked when no path is given.
	defaultManifest = "package.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer // Reports
	Err    io.Writer // Status lines

	configPath string        // --config
	config     config.Config // Loaded before any command runs, defaults not applied
	configFile string        // File the config came from, "" when none
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
}

func (c *CLI) status() printer {
	return printer{c.Err}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Without a subcommand it behaves like "check".
func (c *CLI) RootCommand() *cobra.Command {
	var flags checkFlags

	root := &cobra.Command{
		Use:   appName + " [package.json]",
		Short: "Bumper updates npm dependencies to their latest versions",
		Long: `Bumper looks up the latest published version of every entry in the
dependencies and devDependencies of a package.json, reports the ones that are
behind, and with --write rewrites them in place keeping their range prefix.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: c.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args, &flags)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./bumper.toml, then ~/.config/bumper/bumper.toml)")
	flags.register(root)

	// Register all subcommands
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

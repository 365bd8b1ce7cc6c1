// Package cli implements the depthmontage command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/asmqc/depthmontage/pkg/buildinfo"
	"github.com/asmqc/depthmontage/pkg/diagram"
)

const (
	// appName is the application name used for directories and display.
	appName = "depthmontage"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Depthmontage visualizes sequencing depth around alignment diagrams",
		Long:         `Depthmontage renders per-base sequencing-depth coverage tracks for genome assemblies, flagging zero- and low-depth regions and compositing the panels around a pairwise alignment diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Subcommands pull the logger back out with loggerFromContext.
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.montageCommand())
	root.AddCommand(c.plotCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newGenerator builds the external diagram generator, wrapped with the
// artifact cache unless disabled.
func newGenerator(logger *log.Logger, command []string, noCache bool) diagram.Generator {
	exec := &diagram.ExecGenerator{Command: command, Logger: logger}
	if noCache {
		return exec
	}
	dir, err := cacheDir()
	if err != nil {
		return exec
	}
	cache, err := diagram.NewCache(dir)
	if err != nil {
		logger.Debug("diagram cache unavailable", "err", err)
		return exec
	}
	return &diagram.CachedGenerator{Inner: exec, Cache: cache, Logger: logger}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depthmontage/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

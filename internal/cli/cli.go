// Package cli implements the quotectl operator commands: offline rendering, numbering, CSV
// export and queue maintenance.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// newJobs opens the queue helpers; tests replace it.
	newJobs func(redisAddr string) (*JobsCLI, error)
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		newJobs: NewJobsCLI,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "quotectl",
		Short:        "quotectl renders and maintains quotation documents",
		SilenceUsage: true,
	}

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.numberCommand())
	root.AddCommand(c.csvCommand())
	root.AddCommand(c.jobsCommand())

	return root
}

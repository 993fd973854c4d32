// Package cli implements the contentsync command line client.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/core"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "contentsync",
		Short: "Follow AI content generation jobs in real time",
		Long: `contentsync talks to the Content Service: it creates, edits and deletes
content records and follows their generation jobs over the push
connection, falling back to polling while the connection is down.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (default is ./config.yml)")

	root.AddCommand(
		newDashboardCommand(),
		newWatchCommand(),
		newCreateCommand(),
		newEditCommand(),
		newRollbackCommand(),
		newDeleteCommand(),
		newStatusCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func newApp(cmd *cobra.Command) (*core.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return core.NewWithConfig(cfg)
}

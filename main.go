// Command lectern runs the course platform API and its maintenance
// commands.
//
//	lectern serve             run the HTTP server (default)
//	lectern migrate up        apply pending migrations
//	lectern migrate status    print migration state
//	lectern user create       create an account, usually an instructor
//	lectern category create   create a catalog category
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/akinalp/lectern/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lectern",
		Short:         "Course platform API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newUserCmd(), newCategoryCmd())
	return cmd
}

// loadConfig reads the configuration and builds the process logger from it.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("failed to load config")
		return nil, nil, err
	}
	return cfg, cfg.Log.NewLogger(), nil
}

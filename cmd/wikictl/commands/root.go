package commands

import (
	"os"

	"github.com/gowiki/gowiki/internal/config"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/spf13/cobra"
)

var cfg *config.Config

func newRoot() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "wikictl",
		Short:         "Maintenance commands for the wiki",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			logger.Init(logLevel)
			c, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")
	root.AddCommand(importCmd(), tokenCmd())
	return root
}

func Execute() error {
	return newRoot().Execute()
}

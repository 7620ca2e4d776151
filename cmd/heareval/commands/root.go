package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	appConfig  Config
	logger     *zap.Logger
	configPath string
	verbose    bool
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "heareval",
		Short: "Benchmark dataset preparation and baseline embeddings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			appConfig = cfg

			if verbose {
				logger, _ = zap.NewDevelopment()
			} else {
				logger, _ = zap.NewProduction()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	root.AddCommand(newSplitCommand())
	root.AddCommand(newPrepareCommand())
	root.AddCommand(newEmbedCommand())
	root.AddCommand(newListCommand())

	return root
}

func resolveString(value string, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func resolveInt(value int, fallback int, def int) int {
	if value > 0 {
		return value
	}
	if fallback > 0 {
		return fallback
	}
	return def
}

// resolvePct is resolveInt for percentage flags, where 0 is a meaningful
// value: an explicitly set flag wins even when it is zero.
func resolvePct(cmd *cobra.Command, flag string, value, fallback, def int) int {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if fallback > 0 {
		return fallback
	}
	return def
}

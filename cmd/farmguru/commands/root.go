// Package commands defines all Cobra CLI commands for the farmguru binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/farm-guru/farmguru-go/internal/audit"
	"github.com/farm-guru/farmguru-go/internal/config"
	"github.com/farm-guru/farmguru-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "farmguru",
		Short: "Farm-Guru — agricultural advice from retrieval and synthesis",
		Long: `Farm-Guru is an agricultural assistant for Indian farmers.

It answers questions about irrigation, pest management, planting, market
prices, weather, and government schemes by retrieving evidence from a
knowledge corpus and synthesizing grounded answers. Without a model backend
it still answers deterministically from retrieval alone.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.farmguru/config.yaml).
See 'farmguru --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.farmguru/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/cli/internal/output"
	"github.com/getmockd/lazystore/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting anything.

This command checks:
  - YAML or JSON syntax
  - every relation path and target
  - unique REST roots per type
  - the root type, when set`,
	Example: `  bookstore config validate bookstore.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d types (%v)\n", args[0], len(cfg.Types), cfg.TypeNames())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with defaults applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if jsonOutput || outputFormat == "json" {
			return output.JSON(cmd.OutOrStdout(), cfg)
		}
		data, err := config.ToYAML(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

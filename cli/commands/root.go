package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/config"
	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/cli/internal/version"
	"github.com/satishbabariya/prisma-edge/internal/debug"
)

var (
	cfg *config.Config

	debugFlag  bool
	strictFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "prisma-edge",
	Short: "Compile Prisma-style queries into MySQL statement pipelines",
	Long: `prisma-edge reads a Prisma schema, compiles declarative CRUD queries
into ordered MySQL statements and runs them against a database.

Queries are given as JSON descriptors:

    prisma-edge plan post findMany --args '{"where":{"title":{"contains":"go"}}}'
    prisma-edge exec post create --args '{"data":{"title":"Hello"}}'`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("debug") {
			cfg.Debug = debugFlag
		}
		if cmd.Flags().Changed("strict") {
			cfg.Strict = strictFlag
		}
		debug.Init(cfg.Debug)
		if cfg.File != "" {
			debug.Debug("Loaded config", "file", cfg.File)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log pipelines and statements to stderr")
	rootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "Reject malformed query fragments instead of dropping them")
	rootCmd.SetVersionTemplate(version.Get().FullString() + "\n")
}

// Execute is the main entry point for the CLI
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.PrintError("%v", err)
	}
	return err
}

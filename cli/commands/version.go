package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/cli/internal/version"
	"github.com/satishbabariya/prisma-edge/connector/mysql"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information.

With --server the database is contacted and its version is checked
against the minimum MySQL version the generated SQL needs.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var (
	versionServer bool
	versionURL    string
)

func init() {
	versionCmd.Flags().BoolVar(&versionServer, "server", false, "Check the database server version")
	versionCmd.Flags().StringVar(&versionURL, "url", "", "Database url (overrides config)")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	ui.PrintInfo("%s", version.Get().FullString())
	if !versionServer {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := openDatabase(ctx, versionURL, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	var v string
	if err := db.DB().QueryRowContext(ctx, "SELECT VERSION()").Scan(&v); err != nil {
		return err
	}
	// Open already refuses servers older than mysql.MinServerVersion.
	ui.PrintSuccess("MySQL %s (>= %s)", v, mysql.MinServerVersion)
	return nil
}

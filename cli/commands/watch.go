package commands

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/cli/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [schema-path]",
	Short: "Re-validate a schema file whenever it changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

var (
	watchSchemaPath string
	watchDebounce   time.Duration
)

func init() {
	watchCmd.Flags().StringVarP(&watchSchemaPath, "schema", "s", "", "Path to schema file")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before re-validating")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(watchSchemaPath, args)

	check := func() error {
		s, err := loadSchema(schemaPath)
		if err != nil {
			ui.PrintError("%v", err)
			return nil
		}
		ui.PrintSuccess("%s is valid (%d models)", schemaPath, len(s.Definitions))
		return nil
	}

	w, err := watch.NewWatcher(schemaPath, check,
		watch.WithDebounce(watchDebounce),
		watch.WithErrorHandler(func(err error) { ui.PrintError("%v", err) }),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(); err != nil {
		return err
	}
	ui.PrintInfo("Watching %s, press Ctrl+C to exit", schemaPath)
	<-ctx.Done()
	return nil
}

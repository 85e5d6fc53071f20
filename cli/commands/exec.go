package commands

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-edge/cli/internal/ui"
	"github.com/satishbabariya/prisma-edge/connector"
	"github.com/satishbabariya/prisma-edge/internal/debug"
	"github.com/satishbabariya/prisma-edge/query/cache"
	"github.com/satishbabariya/prisma-edge/runtime/client"
	"github.com/satishbabariya/prisma-edge/telemetry"
)

var execCmd = &cobra.Command{
	Use:   "exec <model> <verb>",
	Short: "Run a query against the database",
	Long: `Compile a query descriptor and run its pipeline against the MySQL
database named by --url, database_url or the schema's datasource.

The result is printed as JSON. With --metrics-addr the Prometheus
metrics of the run stay available until the command is interrupted.`,
	Example: `  prisma-edge exec post findUnique --args '{"where":{"uuid":"p-1"}}'
  prisma-edge exec post count --repeat 100 --stats`,
	Args: cobra.ExactArgs(2),
	RunE: runExec,
}

// slowStatement is the duration above which a statement is reported.
const slowStatement = time.Second

var (
	execSchemaPath  string
	execArgs        string
	execGQL         string
	execURL         string
	execMetricsAddr string
	execRepeat      int
	execStats       bool
	execTimeout     time.Duration
)

func init() {
	execCmd.Flags().StringVarP(&execSchemaPath, "schema", "s", "", "Path to schema file")
	execCmd.Flags().StringVarP(&execArgs, "args", "a", "", "Query descriptor as JSON")
	execCmd.Flags().StringVar(&execGQL, "gql", "", "GraphQL query (or @file); --args then holds its variables")
	execCmd.Flags().StringVar(&execURL, "url", "", "Database url (overrides config and schema)")
	execCmd.Flags().StringVar(&execMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	execCmd.Flags().IntVar(&execRepeat, "repeat", 1, "Run the query this many times")
	execCmd.Flags().BoolVar(&execStats, "stats", false, "Print statement statistics after the run")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 30*time.Second, "Timeout for the whole run")

	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	if execRepeat < 1 {
		return errors.New("--repeat must be at least 1")
	}
	s, err := loadSchema(getSchemaPath(execSchemaPath, nil))
	if err != nil {
		return err
	}
	verb, qargs, err := readQuery(args[1], execArgs, execGQL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics, err := telemetry.New(reg)
	if err != nil {
		return err
	}
	metricsAddr := execMetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg)
		defer srv.Close()
	}

	runCtx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	spinner, _ := ui.StartSpinner("Connecting to database")
	db, err := openDatabase(runCtx, execURL, s)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}
	defer db.Close()

	plans := cache.New(64, 0)
	c := client.New(db, s.Registry,
		client.WithStrict(cfg.Strict),
		client.WithPlanCache(plans),
		client.WithMetrics(metrics),
		client.WithMiddleware(
			connector.LoggingMiddleware(debug.Logger()),
			connector.TimingMiddleware(func(sql string, d time.Duration) {
				if d >= slowStatement {
					ui.PrintWarning("Slow statement (%s): %s", d.Round(time.Millisecond), sql)
				}
			}),
		),
		client.WithExtension(client.LoggingExtension(debug.Logger())),
	)
	mc, err := c.Model(args[0])
	if err != nil {
		return err
	}

	var result any
	for i := 0; i < execRepeat; i++ {
		if result, err = mc.Do(runCtx, verb, qargs); err != nil {
			return err
		}
	}
	if err := ui.PrintJSON(result); err != nil {
		return err
	}

	if execStats {
		snap := metrics.Snapshot()
		ps := plans.Stats()
		if err := ui.PrintTable([]string{"Calls", "Executed", "Skipped", "Suppressed", "Failed", "Plan cache hits"}, [][]string{{
			fmt.Sprint(snap.Calls),
			fmt.Sprint(snap.Executed),
			fmt.Sprint(snap.Skipped),
			fmt.Sprint(snap.Suppressed),
			fmt.Sprint(snap.Failed),
			fmt.Sprintf("%d/%d", ps.Hits, ps.Hits+ps.Misses),
		}}); err != nil {
			return err
		}
	}

	if metricsAddr != "" {
		ui.PrintInfo("Serving metrics on http://%s/metrics, press Ctrl+C to exit", metricsAddr)
		<-ctx.Done()
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.Error("Metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return srv
}
